// conductor: multi-agent software delivery MCP server
//
// Runs a phased analyst-to-QA workflow behind MCP tools, with persistent
// project state and a quick lane for small requests.
//
// Usage:
//
//	conductor serve      # Start MCP server (stdio transport)
//	conductor version    # Print the version
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/config"
	"github.com/HendryAvila/conductor/internal/logging"
	"github.com/HendryAvila/conductor/internal/metrics"
	conductorserver "github.com/HendryAvila/conductor/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("conductor v%s\n", conductorserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	root, err := config.FindRoot(wd)
	if err != nil {
		return fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		stop := serveMetrics(cfg.Metrics.Listen, m, logger)
		defer stop()
	}

	s, cleanup, err := conductorserver.New(cfg, logger, m)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// The stdio server handles SIGINT and SIGTERM itself.
	return server.ServeStdio(s)
}

// serveMetrics exposes /metrics on addr in the background. The returned
// function shuts the listener down.
func serveMetrics(addr string, m *metrics.Metrics, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics listener shutdown", zap.Error(err))
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `conductor v%s: multi-agent software delivery MCP server

Usage:
  conductor serve      Start the MCP server (stdio transport)
  conductor version    Print the version

Configuration:
  Project settings live in .conductor/config.yaml at the project root.
  CONDUCTOR_* environment variables override the file, for example
  CONDUCTOR_BACKEND=sqlite or CONDUCTOR_METRICS__LISTEN=127.0.0.1:9464.

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "conductor": {
        "command": "conductor",
        "args": ["serve"]
      }
    }
  }
`, conductorserver.Version)
}
