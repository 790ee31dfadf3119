package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mavenSchema mirrors the maven_compile tool contract used throughout
// the server.
func mavenSchema() ToolSchema {
	return ToolSchema{
		Name: "maven_compile",
		Parameters: map[string]ParamSpec{
			"goals":     {Type: TypeArray, Default: []any{"compile"}, Items: &ParamSpec{Type: TypeString}},
			"offline":   Bool("", true),
			"quiet":     Bool("", true),
			"batchMode": Bool("", true),
			"timeout":   IntRange("", 300, 30, 3600),
		},
	}
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	got, err := Normalize(mavenSchema(), map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, []any{"compile"}, got["goals"])
	assert.Equal(t, true, got["offline"])
	assert.Equal(t, true, got["quiet"])
	assert.Equal(t, true, got["batchMode"])
	assert.Equal(t, 300, got["timeout"])
}

func TestNormalize_BelowMinimum(t *testing.T) {
	_, err := Normalize(mavenSchema(), map[string]any{"timeout": float64(5)})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "timeout", ve.Param)
	assert.Equal(t, "below minimum 30", ve.Reason)
}

func TestNormalize_AboveMaximum(t *testing.T) {
	_, err := Normalize(mavenSchema(), map[string]any{"timeout": float64(7200)})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "timeout", ve.Param)
	assert.Equal(t, "above maximum 3600", ve.Reason)
}

func TestNormalize_NeverClamps(t *testing.T) {
	// A value outside the range must error, not silently clamp.
	for _, v := range []float64{29, 0, -1, 3601} {
		_, err := Normalize(mavenSchema(), map[string]any{"timeout": v})
		assert.Error(t, err, "timeout=%v should be rejected", v)
	}
	got, err := Normalize(mavenSchema(), map[string]any{"timeout": float64(30)})
	require.NoError(t, err)
	assert.Equal(t, 30, got["timeout"])
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := map[string]any{"timeout": float64(60), "extra": "context"}

	first, err := Normalize(mavenSchema(), raw)
	require.NoError(t, err)
	second, err := Normalize(mavenSchema(), first)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalize_UnknownKeysPassThrough(t *testing.T) {
	got, err := Normalize(mavenSchema(), map[string]any{"sessionHint": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "abc", got["sessionHint"])
}

func TestNormalize_InputNotMutated(t *testing.T) {
	raw := map[string]any{"timeout": float64(60)}
	_, err := Normalize(mavenSchema(), raw)
	require.NoError(t, err)

	_, hasDefault := raw["offline"]
	assert.False(t, hasDefault, "defaults must not leak into the caller's map")
	assert.Equal(t, float64(60), raw["timeout"])
}

func TestNormalize_Coercion(t *testing.T) {
	s := ToolSchema{
		Name: "t",
		Parameters: map[string]ParamSpec{
			"count": {Type: TypeInteger},
			"ratio": {Type: TypeNumber},
			"flag":  {Type: TypeBoolean},
			"names": {Type: TypeArray, Items: &ParamSpec{Type: TypeString}},
		},
	}

	tests := []struct {
		name    string
		raw     map[string]any
		wantErr bool
		check   func(t *testing.T, got map[string]any)
	}{
		{
			name: "integral float becomes int",
			raw:  map[string]any{"count": float64(42)},
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, 42, got["count"])
			},
		},
		{
			name:    "fractional float rejected for integer",
			raw:     map[string]any{"count": 4.2},
			wantErr: true,
		},
		{
			name: "integer widens to number",
			raw:  map[string]any{"ratio": 3},
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, float64(3), got["ratio"])
			},
		},
		{
			name:    "string rejected for boolean",
			raw:     map[string]any{"flag": "true"},
			wantErr: true,
		},
		{
			name:    "non-string array element rejected",
			raw:     map[string]any{"names": []any{"a", float64(1)}},
			wantErr: true,
		},
		{
			name: "string array accepted",
			raw:  map[string]any{"names": []any{"a", "b"}},
			check: func(t *testing.T, got map[string]any) {
				assert.Equal(t, []any{"a", "b"}, got["names"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(s, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestNormalize_Enum(t *testing.T) {
	s := ToolSchema{
		Name: "t",
		Parameters: map[string]ParamSpec{
			"scope": StringEnum("", "project", "project", "module"),
		},
	}

	got, err := Normalize(s, map[string]any{"scope": "module"})
	require.NoError(t, err)
	assert.Equal(t, "module", got["scope"])

	_, err = Normalize(s, map[string]any{"scope": "file"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "scope", ve.Param)
}

func TestNormalize_Required(t *testing.T) {
	s := ToolSchema{
		Name: "t",
		Parameters: map[string]ParamSpec{
			"path":  {Type: TypeString},
			"limit": Int("", 10),
		},
		Required: []string{"path"},
	}

	_, err := Normalize(s, map[string]any{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "path", ve.Param)
	assert.Equal(t, "missing", ve.Reason)

	// A required param satisfied by a default is not missing.
	s.Parameters["path"] = ParamSpec{Type: TypeString, Default: "."}
	got, err := Normalize(s, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, ".", got["path"])
}
