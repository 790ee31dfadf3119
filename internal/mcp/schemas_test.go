package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javakit/mvnbridge-mcp/internal/schema"
)

func TestAllSchemasValidate(t *testing.T) {
	seen := make(map[string]struct{})
	for _, s := range allSchemas() {
		t.Run(s.Name, func(t *testing.T) {
			assert.NoError(t, s.Validate())
		})
		_, dup := seen[s.Name]
		assert.False(t, dup, "duplicate tool name %s", s.Name)
		seen[s.Name] = struct{}{}
	}
	assert.Len(t, seen, 5)
}

func TestBuildToolsCarryEscalationContract(t *testing.T) {
	buildTools := map[string]bool{
		ToolSyntaxCheck:      true,
		ToolIncrementalBuild: true,
		ToolMavenCompile:     true,
		ToolListDirectory:    false,
		ToolBuildHistory:     false,
	}
	for _, s := range allSchemas() {
		if buildTools[s.Name] {
			assert.Contains(t, s.Description, "syntax_check first", "tool %s", s.Name)
		} else {
			assert.NotContains(t, s.Description, "syntax_check first", "tool %s", s.Name)
		}
	}
}

func TestMavenCompileDefaults(t *testing.T) {
	s := mavenCompileSchema()

	args, err := schema.Normalize(s, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, []any{"compile"}, args["goals"])
	assert.Equal(t, true, args["offline"])
	assert.Equal(t, true, args["quiet"])
	assert.Equal(t, true, args["batchMode"])
	assert.Equal(t, 300, args["timeout"])
}

func TestMavenCompileTimeoutBounds(t *testing.T) {
	s := mavenCompileSchema()

	_, err := schema.Normalize(s, map[string]any{"timeout": 5})
	require.Error(t, err)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "timeout", verr.Param)

	_, err = schema.Normalize(s, map[string]any{"timeout": 4000})
	assert.Error(t, err)

	args, err := schema.Normalize(s, map[string]any{"timeout": 30})
	require.NoError(t, err)
	assert.Equal(t, 30, args["timeout"])
}

func TestSyntaxCheckRefreshHasNoDefault(t *testing.T) {
	s := syntaxCheckSchema()

	// The handler decides the refresh default from the mode, so the
	// schema must not inject one.
	args, err := schema.Normalize(s, map[string]any{})
	require.NoError(t, err)
	_, present := args["refresh"]
	assert.False(t, present)

	args, err = schema.Normalize(s, map[string]any{"refresh": true})
	require.NoError(t, err)
	assert.Equal(t, true, args["refresh"])
}

func TestIncrementalBuildScopeEnum(t *testing.T) {
	s := incrementalBuildSchema()

	_, err := schema.Normalize(s, map[string]any{"scope": "workspace"})
	assert.Error(t, err)

	args, err := schema.Normalize(s, map[string]any{"scope": "module"})
	require.NoError(t, err)
	assert.Equal(t, "module", args["scope"])

	args, err = schema.Normalize(s, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "project", args["scope"])
	assert.Equal(t, true, args["skipWarnings"])
	assert.Equal(t, false, args["forceRebuild"])
}
