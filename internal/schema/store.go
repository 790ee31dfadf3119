package schema

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Store maps tool names to their validated schemas. It is populated
// once at startup and read-only afterwards.
type Store struct {
	schemas map[string]ToolSchema
	logger  *zap.Logger
}

// NewStore validates every declaration and builds the lookup table.
// Duplicate names and invalid schemas are construction errors.
func NewStore(logger *zap.Logger, schemas ...ToolSchema) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]ToolSchema, len(schemas))
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("schema %q: %w", s.Name, err)
		}
		if _, dup := m[s.Name]; dup {
			return nil, fmt.Errorf("duplicate schema %q", s.Name)
		}
		m[s.Name] = s
	}
	return &Store{schemas: m, logger: logger}, nil
}

// Get returns the schema for a tool name. An unknown name returns the
// zero schema and false; it is logged but never an error, so the
// dispatch loop stays up and the caller sees a structured not-found
// condition instead of a crash.
func (st *Store) Get(name string) (ToolSchema, bool) {
	s, ok := st.schemas[name]
	if !ok {
		st.logger.Warn("no schema registered for tool", zap.String("tool", name))
		return ToolSchema{}, false
	}
	return s, true
}

// Names returns all registered tool names, sorted.
func (st *Store) Names() []string {
	names := make([]string, 0, len(st.schemas))
	for name := range st.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
