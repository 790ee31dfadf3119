package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/javakit/mvnbridge-mcp/internal/analyzer"
	"github.com/javakit/mvnbridge-mcp/internal/build"
	"github.com/javakit/mvnbridge-mcp/internal/config"
	"github.com/javakit/mvnbridge-mcp/internal/history"
	"github.com/javakit/mvnbridge-mcp/internal/invoke"
	"github.com/javakit/mvnbridge-mcp/internal/proc"
	"github.com/javakit/mvnbridge-mcp/internal/refresh"
	"github.com/javakit/mvnbridge-mcp/internal/schema"
	"github.com/javakit/mvnbridge-mcp/internal/wsl"
)

const (
	// ServerName is the MCP server name
	ServerName = "mvnbridge-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the build-validation components.
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	logger   *zap.Logger
	store    *history.Store
	invoker  *invoke.Invoker
	registry *invoke.Registry

	syntax      *build.SyntaxChecker
	incremental *build.IncrementalBuilder
	maven       *build.MavenBuilder
	rewriter    wsl.Rewriter

	closers []func() error
}

// NewServer builds the component graph from the configuration and
// registers all tools.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		rewriter: wsl.Rewriter{Enabled: cfg.WSLMode},
	}

	if cfg.HistoryDBPath != "" {
		store, err := history.Open(cfg.HistoryDBPath, logger.Named("history"))
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		s.store = store
		s.closers = append(s.closers, store.Close)
	}

	var an analyzer.Analyzer = analyzer.Noop{}
	if cfg.SyntaxAnalysis {
		an = analyzer.NewLexical()
	}

	var refresher refresh.Refresher = refresh.Noop{}
	if cfg.WatchFS {
		watcher, err := refresh.NewWatcher(cfg.AbsSourceRoots(), logger.Named("refresh"))
		if err != nil {
			logger.Warn("filesystem watcher unavailable, refresh disabled", zap.Error(err))
		} else {
			refresher = watcher
			s.closers = append(s.closers, watcher.Close)
		}
	}

	runner := proc.NewExecRunner(logger.Named("proc"))
	walker := &build.Walker{Roots: cfg.AbsSourceRoots(), Extensions: cfg.SourceExtensions}

	s.syntax = build.NewSyntaxChecker(cfg.ProjectRoot, walker, an, refresher, cfg.Workers, logger.Named("syntax"))
	compiler := build.NewCommandCompiler(runner, cfg.IncrementalCommand, cfg.ProjectRoot, logger.Named("compiler"))
	s.incremental = build.NewIncrementalBuilder(compiler, nil, s.syntax, cfg.AbsOutputDirs(), logger.Named("incremental"))
	s.maven = build.NewMavenBuilder(runner, cfg.ProjectRoot, cfg.MavenHome, logger.Named("maven"))

	schemas, err := schema.NewStore(logger.Named("schema"), allSchemas()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema store: %w", err)
	}

	s.registry = invoke.NewRegistry()
	var recorder invoke.Recorder
	if s.store != nil {
		recorder = s.store
	}
	s.invoker = invoke.NewInvoker(schemas, s.registry, recorder, logger.Named("invoke"))

	s.mcp = server.NewMCPServer(ServerName, ServerVersion)
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve runs the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()
	return server.ServeStdio(s.mcp)
}

// Close releases the server's resources.
func (s *Server) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// toolDecl binds a schema to its handler and invocation policy.
type toolDecl struct {
	schema       schema.ToolSchema
	handler      invoke.Handler
	timeout      time.Duration
	autoApproved bool
}

// registerTools places every tool in the registry and advertises it to
// MCP clients through a bridge into the invoker.
func (s *Server) registerTools() error {
	decls := []toolDecl{
		{syntaxCheckSchema(), s.handleSyntaxCheck, s.cfg.SyntaxTimeout.Std(), true},
		{incrementalBuildSchema(), s.handleIncrementalBuild, s.cfg.BuildTimeout.Std(), true},
		{mavenCompileSchema(), s.handleMavenCompile, 0, false},
		{listDirectorySchema(), s.handleListDirectory, 10 * time.Second, true},
		{buildHistorySchema(), s.handleBuildHistory, 10 * time.Second, true},
	}

	for _, d := range decls {
		if err := s.registry.Register(&invoke.Tool{
			Name:         d.schema.Name,
			Handler:      d.handler,
			Timeout:      d.timeout,
			AutoApproved: d.autoApproved,
		}); err != nil {
			return err
		}
		s.mcp.AddTool(schema.ToMCPTool(d.schema), s.bridge(d.schema.Name))
	}
	return nil
}

// bridge adapts a protocol request into an invocation. Classified
// failures come back as tool-result errors, never as raw failures that
// would tear down the session.
func (s *Server) bridge(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		result := s.invoker.Invoke(ctx, name, args, s.invokeTimeout(name, args))
		if result.OK {
			return mcp.NewToolResultText(result.Payload), nil
		}
		return mcp.NewToolResultError(result.Err.Error()), nil
	}
}

// invokeTimeout resolves the outer invocation bound. The Maven tool's
// caller-supplied timeout applies to the process; the invocation gets a
// grace margin on top so the stage can report instead of being cut off
// mid-parse.
func (s *Server) invokeTimeout(name string, args map[string]interface{}) time.Duration {
	if name != ToolMavenCompile {
		return 0 // per-tool default
	}
	timeout := s.cfg.MavenTimeout.Std()
	if raw, ok := args["timeout"].(float64); ok && raw > 0 {
		timeout = time.Duration(raw) * time.Second
	}
	if timeout < build.MinMavenTimeout {
		timeout = build.MinMavenTimeout
	}
	return timeout + 15*time.Second
}
