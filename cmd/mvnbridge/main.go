package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javakit/mvnbridge-mcp/internal/config"
	"github.com/javakit/mvnbridge-mcp/internal/history"
	"github.com/javakit/mvnbridge-mcp/internal/mcp"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var (
		configPath  string
		projectRoot string
		logLevel    string
	)

	root := &cobra.Command{
		Use:           "mvnbridge",
		Short:         "MCP server exposing Maven build-validation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, projectRoot, logLevel)
		},
	}
	root.Flags().StringVar(&configPath, "config", "mvnbridge.yaml", "path to the configuration file")
	root.Flags().StringVar(&projectRoot, "project-root", "", "project root (overrides config)")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mvnbridge MCP Server\n")
			fmt.Printf("Version: %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", history.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", history.DriverName)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mvnbridge: %v\n", err)
		os.Exit(1)
	}
}

func serve(configPath, projectRoot, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if projectRoot != "" {
		cfg.ProjectRoot = projectRoot
	}
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// stdout carries the MCP protocol; all logging goes to stderr.
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("mvnbridge MCP server starting",
		zap.String("version", version),
		zap.String("build_mode", history.BuildMode),
		zap.String("project_root", cfg.ProjectRoot))

	srv, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-errChan:
		return err
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
