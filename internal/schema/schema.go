package schema

import (
	"errors"
	"fmt"
)

// ParamType is the declared JSON type of a parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Schema validation errors
var (
	ErrEmptyName        = errors.New("tool schema name cannot be empty")
	ErrUnknownType      = errors.New("unknown parameter type")
	ErrDefaultTypeWrong = errors.New("default value does not match declared type")
	ErrBoundsInverted   = errors.New("minimum is greater than maximum")
	ErrMissingItems     = errors.New("array parameter requires an items spec")
	ErrUnknownRequired  = errors.New("required parameter is not declared")
)

// ParamSpec describes a single tool parameter.
type ParamSpec struct {
	Type        ParamType
	Description string
	Default     any       // must match Type when present
	Enum        []any     // allowed values, checked after coercion
	Minimum     *float64  // numeric lower bound, inclusive
	Maximum     *float64  // numeric upper bound, inclusive
	Items       *ParamSpec // element spec for arrays
}

// ToolSchema declares the parameter contract of one tool.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
	Required    []string
}

// IsZero reports whether the schema is the empty placeholder returned
// for unknown tool names.
func (s ToolSchema) IsZero() bool {
	return s.Name == "" && len(s.Parameters) == 0
}

// Validate checks the schema's internal invariants. Called once at
// store construction so per-call normalization can trust the schema.
func (s ToolSchema) Validate() error {
	if s.Name == "" {
		return ErrEmptyName
	}
	for name, spec := range s.Parameters {
		if err := spec.validate(); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	for _, req := range s.Required {
		if _, ok := s.Parameters[req]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRequired, req)
		}
	}
	return nil
}

func (p ParamSpec) validate() error {
	switch p.Type {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeObject:
	case TypeArray:
		if p.Items == nil {
			return ErrMissingItems
		}
		if err := p.Items.validate(); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, p.Type)
	}
	if p.Default != nil {
		if _, err := coerce(p, p.Default); err != nil {
			return fmt.Errorf("%w: %v", ErrDefaultTypeWrong, p.Default)
		}
	}
	if p.Minimum != nil && p.Maximum != nil && *p.Minimum > *p.Maximum {
		return ErrBoundsInverted
	}
	return nil
}

// Helper constructors for declaring schemas

// String creates a string parameter.
func String(desc string) ParamSpec {
	return ParamSpec{Type: TypeString, Description: desc}
}

// StringEnum creates a string parameter constrained to specific values
// with a default.
func StringEnum(desc, def string, values ...string) ParamSpec {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return ParamSpec{Type: TypeString, Description: desc, Default: def, Enum: enum}
}

// Bool creates a boolean parameter with a default.
func Bool(desc string, def bool) ParamSpec {
	return ParamSpec{Type: TypeBoolean, Description: desc, Default: def}
}

// Int creates an integer parameter with a default.
func Int(desc string, def int) ParamSpec {
	return ParamSpec{Type: TypeInteger, Description: desc, Default: def}
}

// IntRange creates a bounded integer parameter with a default.
func IntRange(desc string, def, min, max int) ParamSpec {
	lo, hi := float64(min), float64(max)
	return ParamSpec{Type: TypeInteger, Description: desc, Default: def, Minimum: &lo, Maximum: &hi}
}

// ArrayOf creates an array parameter with the given element spec.
func ArrayOf(desc string, items ParamSpec) ParamSpec {
	return ParamSpec{Type: TypeArray, Description: desc, Items: &items}
}
