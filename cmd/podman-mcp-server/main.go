// podman-mcp-server exposes podman container operations as MCP tools over
// stdio. A tool-calling agent connects via stdin/stdout; all logging goes
// to stderr.
//
// Usage: podman-mcp-server [-config config.json] [-tools create_container,deploy_compose] [-tcp]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/config"
	"github.com/rimaleon/podman-mcp/pkg/exec"
	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/mcpserver"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
	"github.com/rimaleon/podman-mcp/pkg/persistence"
	"github.com/rimaleon/podman-mcp/pkg/podman"
	"github.com/rimaleon/podman-mcp/pkg/tools"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config file")
	toolList := flag.String("tools", "", "Comma-separated allow-list of tools (default: all)")
	useTCP := flag.Bool("tcp", false, "Listen on TCP with token auth instead of stdio (debugging)")
	flag.Parse()

	logger := logx.NewLogger("podman-mcp")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	toolNames := cfg.Tools
	if *toolList != "" {
		toolNames = strings.Split(*toolList, ",")
		for i := range toolNames {
			toolNames[i] = strings.TrimSpace(toolNames[i])
		}
	}
	if len(toolNames) == 0 {
		toolNames = tools.AllToolNames()
	}

	provider := tools.NewProvider(toolContext(cfg), toolNames)
	server := mcpserver.NewServer(provider, logger)

	var journal *persistence.Journal
	if cfg.Journal.Enabled {
		journal, err = persistence.Open(cfg.Journal.Path)
		if err != nil {
			// The journal is best effort; the server still runs without it.
			logger.Warn("Journal disabled: %v", err)
		} else {
			defer journal.Close() //nolint:errcheck // Best-effort close on shutdown
			server.SetObserver(journalObserver(journal, logger))
		}
	}

	if cfg.Metrics.Enabled {
		go metrics.Serve(cfg.Metrics.Addr, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		if err := server.Stop(); err != nil {
			logger.Error("Error stopping server: %v", err)
		}
		cancel()
	}()

	logger.Info("Exposing tools: %v", toolNames)

	if *useTCP {
		runTCP(ctx, server, logger)
		return
	}

	if err := server.ServeStdio(ctx); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// toolContext wires the configured timeout and binary overrides into the
// tool layer. Empty overrides keep the default locate-at-startup behavior.
func toolContext(cfg *config.Config) tools.ToolContext {
	ctx := tools.ToolContext{Timeout: time.Duration(cfg.CommandTimeout)}

	if cfg.EngineBinary != "" {
		ctx.NewEngine = engineFromConfig(cfg)
	}
	if cfg.ComposeBinary != "" {
		ctx.NewDeployer = deployerFromConfig(cfg)
	}
	return ctx
}

// engineFromConfig builds engines around the configured binary instead of
// locating podman on the PATH.
func engineFromConfig(cfg *config.Config) func() (*podman.Engine, error) {
	return func() (*podman.Engine, error) {
		engine := podman.NewEngineWith(cfg.EngineBinary, exec.ForPlatform(runtime.GOOS))
		engine.Timeout = time.Duration(cfg.CommandTimeout)
		return engine, nil
	}
}

// deployerFromConfig builds deployers around the configured compose binary.
func deployerFromConfig(cfg *config.Config) func() (*podman.Deployer, error) {
	return func() (*podman.Deployer, error) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		deployer := podman.NewDeployerWith(wd, cfg.ComposeBinary, exec.ForPlatform(runtime.GOOS))
		deployer.Timeout = time.Duration(cfg.CommandTimeout)
		return deployer, nil
	}
}

func journalObserver(journal *persistence.Journal, logger *logx.Logger) mcpserver.ToolCallObserver {
	return func(record mcpserver.ToolCallRecord) {
		op := persistence.Operation{
			SessionID: record.SessionID,
			Tool:      record.Tool,
			Success:   record.Succeeded,
			Detail:    record.Content,
			Duration:  record.Duration,
		}
		if project, ok := record.Arguments["project_name"].(string); ok {
			op.Project = project
		}
		if err := journal.Record(op); err != nil {
			logger.Warn("Failed to journal %s call: %v", record.Tool, err)
		}
	}
}

// runTCP starts the TCP listener and prints the connection details once the
// port is bound, mirroring how debugging clients expect to find the server.
func runTCP(ctx context.Context, server *mcpserver.Server, logger *logx.Logger) {
	go func() {
		if err := server.StartTCP(ctx); err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}()

	for server.Port() == 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}

	fmt.Printf("PORT=%d\nTOKEN=%s\n", server.Port(), server.Token())
	<-ctx.Done()
}
