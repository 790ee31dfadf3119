package invoke

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javakit/mvnbridge-mcp/internal/schema"
	"github.com/javakit/mvnbridge-mcp/pkg/types"
)

// DefaultTimeout bounds handlers whose tool declares none.
const DefaultTimeout = 120 * time.Second

// Recorder receives a record of every completed invocation. Recording
// is best-effort; failures never affect the tool result.
type Recorder interface {
	RecordInvocation(ctx context.Context, rec InvocationRecord)
}

// InvocationRecord describes one completed tool call.
type InvocationRecord struct {
	ID        string
	Tool      string
	Arguments map[string]any
	OK        bool
	ErrKind   types.ErrorKind
	StartedAt time.Time
	Duration  time.Duration
}

// Invoker dispatches tool calls: schema lookup, argument normalization,
// handler resolution, timeout-bounded execution, and conversion of
// every failure mode into the result envelope.
type Invoker struct {
	schemas  *schema.Store
	registry *Registry
	recorder Recorder
	logger   *zap.Logger
}

// NewInvoker creates an invoker over the given schema store and
// registry. The recorder may be nil.
func NewInvoker(schemas *schema.Store, registry *Registry, recorder Recorder, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{schemas: schemas, registry: registry, recorder: recorder, logger: logger}
}

// Invoke runs one tool call end to end. A zero timeout uses the tool's
// declared timeout, falling back to DefaultTimeout. The returned
// envelope is the only value that reaches the caller; handler panics
// and unclassified errors surface as internal errors with a generic
// message while the detail goes to the log.
func (inv *Invoker) Invoke(ctx context.Context, name string, rawArgs map[string]any, timeout time.Duration) types.ToolResult {
	id := uuid.NewString()
	started := time.Now()
	inv.logger.Info("tool invocation started",
		zap.String("tool", name),
		zap.String("invocation_id", id))

	result, args := inv.dispatch(ctx, name, rawArgs, timeout)

	duration := time.Since(started)
	if result.OK {
		inv.logger.Info("tool invocation finished",
			zap.String("tool", name),
			zap.String("invocation_id", id),
			zap.Duration("duration", duration))
	} else {
		inv.logger.Warn("tool invocation failed",
			zap.String("tool", name),
			zap.String("invocation_id", id),
			zap.String("kind", string(result.Err.Kind)),
			zap.String("message", result.Err.Message),
			zap.Duration("duration", duration))
	}

	if inv.recorder != nil {
		rec := InvocationRecord{
			ID:        id,
			Tool:      name,
			Arguments: args,
			OK:        result.OK,
			StartedAt: started,
			Duration:  duration,
		}
		if result.Err != nil {
			rec.ErrKind = result.Err.Kind
		}
		inv.recorder.RecordInvocation(ctx, rec)
	}

	return result
}

// dispatch performs the lookup/normalize/execute steps and returns the
// envelope plus the normalized arguments for recording.
func (inv *Invoker) dispatch(ctx context.Context, name string, rawArgs map[string]any, timeout time.Duration) (types.ToolResult, map[string]any) {
	args := rawArgs
	if args == nil {
		args = map[string]any{}
	}

	// Unknown schemas normalize as a pass-through; the registry lookup
	// below turns a truly unknown tool into NotFound.
	if sch, ok := inv.schemas.Get(name); ok {
		normalized, err := schema.Normalize(sch, args)
		if err != nil {
			return types.Failure(types.NewToolError(types.KindInvalidArgument, "%v", err)), args
		}
		args = normalized
	}

	tool := inv.registry.Get(name)
	if tool == nil {
		return types.Failure(types.NewToolError(types.KindNotFound, "unknown tool %q", name)), args
	}

	if timeout <= 0 {
		timeout = tool.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return inv.execute(ctx, tool, args, timeout), args
}

type handlerOutcome struct {
	payload string
	err     error
}

// execute runs the handler in its own goroutine under a deadline. On
// timeout the invocation is abandoned: the goroutine keeps running
// detached until the underlying operation notices the cancelled
// context. Native compiler and process APIs do not always support
// preemption, so the leak is accepted and bounded by their lifetime.
func (inv *Invoker) execute(ctx context.Context, tool *Tool, args map[string]any, timeout time.Duration) types.ToolResult {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				inv.logger.Error("tool handler panicked",
					zap.String("tool", tool.Name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				done <- handlerOutcome{err: types.NewToolError(types.KindInternal, "internal error")}
			}
		}()
		payload, err := tool.Handler(runCtx, args)
		done <- handlerOutcome{payload: payload, err: err}
	}()

	select {
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return types.Failure(types.NewToolError(types.KindTimeout,
				"tool %q did not complete within %s", tool.Name, timeout))
		}
		return types.Failure(types.NewToolError(types.KindInternal, "invocation cancelled"))
	case out := <-done:
		if out.err != nil {
			return types.Failure(inv.classify(tool.Name, out.err))
		}
		return types.Success(out.payload)
	}
}

// classify converts handler errors into the boundary taxonomy. Already
// classified errors pass through; validation errors raised inside a
// handler map to InvalidArgument; context deadlines map to Timeout;
// everything else is internal, logged in full, and surfaced generically.
func (inv *Invoker) classify(toolName string, err error) *types.ToolError {
	var te *types.ToolError
	if errors.As(err, &te) {
		return te
	}
	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return types.NewToolError(types.KindInvalidArgument, "%v", ve)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewToolError(types.KindTimeout, "operation deadline exceeded")
	}
	inv.logger.Error("tool handler returned unclassified error",
		zap.String("tool", toolName),
		zap.Error(err))
	return types.NewToolError(types.KindInternal, "internal error")
}
