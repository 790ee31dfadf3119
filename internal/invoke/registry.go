package invoke

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry errors
var (
	ErrToolNameEmpty         = errors.New("tool name cannot be empty")
	ErrToolHandlerNil        = errors.New("tool handler cannot be nil")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// Handler executes a tool with normalized arguments and returns the
// payload string. Errors should be classified ToolErrors; anything else
// is treated as internal by the invoker.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool binds a name to an executable handler.
type Tool struct {
	Name         string
	Handler      Handler
	Timeout      time.Duration // per-tool default, used when the caller passes none
	AutoApproved bool          // safe to run without user confirmation
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Handler == nil {
		return ErrToolHandlerNil
	}
	return nil
}

// Registry holds all executable tools. It is safe for concurrent use;
// registration normally happens once at startup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// MustRegister registers a tool and panics on error. For static
// registration at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not registered.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AutoApproved returns the names of tools flagged safe for unattended
// execution.
func (r *Registry) AutoApproved() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name, tool := range r.tools {
		if tool.AutoApproved {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
