package schema

import (
	"fmt"
	"math"
)

// ValidationError reports a single argument violation. Validation is
// fail-fast: the first violation is returned and no handler runs.
type ValidationError struct {
	Param  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Reason)
}

// Normalize applies defaults, coerces raw values to their declared
// types, and enforces enum and bounds constraints. Unknown extra keys
// pass through untouched so tools can read context fields the schema
// does not declare. The input map is not modified; applying Normalize
// to its own output yields the same result.
func Normalize(s ToolSchema, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw)+len(s.Parameters))
	for k, v := range raw {
		out[k] = v
	}

	for name, spec := range s.Parameters {
		val, present := out[name]
		if !present || val == nil {
			if spec.Default != nil {
				def, err := coerce(spec, spec.Default)
				if err != nil {
					return nil, &ValidationError{Param: name, Reason: err.Error()}
				}
				out[name] = def
			}
			continue
		}

		coerced, err := coerce(spec, val)
		if err != nil {
			return nil, &ValidationError{Param: name, Reason: err.Error()}
		}
		if err := checkEnum(spec, coerced); err != nil {
			return nil, &ValidationError{Param: name, Reason: err.Error()}
		}
		if err := checkBounds(spec, coerced); err != nil {
			return nil, &ValidationError{Param: name, Reason: err.Error()}
		}
		out[name] = coerced
	}

	for _, req := range s.Required {
		if v, ok := out[req]; !ok || v == nil {
			return nil, &ValidationError{Param: req, Reason: "missing"}
		}
	}

	return out, nil
}

// coerce converts a JSON-decoded value to the declared type. JSON
// decoding yields float64 for every number, so integer parameters
// accept integral floats; integers are accepted where a wider numeric
// type is declared. Out-of-range values are rejected, never clamped.
func coerce(spec ParamSpec, val any) (any, error) {
	switch spec.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", val)
		}
		return s, nil

	case TypeBoolean:
		b, ok := val.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", val)
		}
		return b, nil

	case TypeInteger:
		switch v := val.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return int(v), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", val)
		}

	case TypeNumber:
		switch v := val.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("expected number, got %T", val)
		}

	case TypeArray:
		items, ok := val.([]any)
		if !ok {
			// A normalized []string round-trips through here.
			if ss, ok := val.([]string); ok {
				items = make([]any, len(ss))
				for i, s := range ss {
					items[i] = s
				}
			} else {
				return nil, fmt.Errorf("expected array, got %T", val)
			}
		}
		out := make([]any, len(items))
		for i, item := range items {
			c, err := coerce(*spec.Items, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %v", i, err)
			}
			out[i] = c
		}
		return out, nil

	case TypeObject:
		m, ok := val.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", val)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported type %q", spec.Type)
	}
}

func checkEnum(spec ParamSpec, val any) error {
	if len(spec.Enum) == 0 {
		return nil
	}
	for _, allowed := range spec.Enum {
		if equalLoose(allowed, val) {
			return nil
		}
	}
	return fmt.Errorf("value %v not in %v", val, spec.Enum)
}

func checkBounds(spec ParamSpec, val any) error {
	if spec.Minimum == nil && spec.Maximum == nil {
		return nil
	}
	var n float64
	switch v := val.(type) {
	case int:
		n = float64(v)
	case float64:
		n = v
	default:
		return nil
	}
	if spec.Minimum != nil && n < *spec.Minimum {
		return fmt.Errorf("below minimum %s", formatBound(*spec.Minimum))
	}
	if spec.Maximum != nil && n > *spec.Maximum {
		return fmt.Errorf("above maximum %s", formatBound(*spec.Maximum))
	}
	return nil
}

func formatBound(b float64) string {
	if b == math.Trunc(b) {
		return fmt.Sprintf("%d", int64(b))
	}
	return fmt.Sprintf("%g", b)
}

// equalLoose compares an enum entry against a coerced value, treating
// numeric representations as interchangeable.
func equalLoose(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
