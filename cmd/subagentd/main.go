// Command subagentd is a JSON-RPC mediation server that spawns coding-agent
// subprocesses, normalizes their event streams, and exposes a small tool
// surface (spawn, spawn-group, status, result, events, cancel, wait-any,
// interrupt, ping) to a single coordinator over line-delimited stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fenwick-labs/subagentd/internal/config"
	"github.com/fenwick-labs/subagentd/internal/logger"
	"github.com/fenwick-labs/subagentd/internal/mcp"
	"github.com/fenwick-labs/subagentd/internal/metrics"
	"github.com/fenwick-labs/subagentd/internal/subagent"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "subagentd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(config.LogDir(), false); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	binary, err := config.AgentBinary()
	if err != nil {
		logger.Slog().Warn("agent binary not found on PATH at startup; spawn will fail until it is", "error", err)
	}

	auditLog, err := subagent.NewSQLiteAuditLog(config.AuditDBPath())
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer auditLog.Close()

	var dockerLauncher subagent.Launcher
	if dl, dockerErr := subagent.NewDockerLauncher(); dockerErr != nil {
		logger.Slog().Warn("docker launcher unavailable; containerImage spawns will fail", "error", dockerErr)
	} else {
		dockerLauncher = dl
	}
	launcher := subagent.DispatchLauncher{
		Local:  subagent.LocalLauncher{},
		Docker: dockerLauncher,
	}

	manager := subagent.NewManager(subagent.ManagerOptions{
		Launcher:             launcher,
		Binary:               binary,
		DefaultSandboxEnvVar: config.EnvDefaultSandbox,
		ConcurrencyCapEnvVar: config.EnvMaxConcurrentJobs,
		AuditLog:             auditLog,
		Metrics:              metrics.Collector{},
		Logger:               logger.Slog(),
	})

	monitor, err := subagent.NewStaleMonitor(manager, "", config.StaleJobWarnAfter(), logger.Slog())
	if err != nil {
		return fmt.Errorf("start stale job monitor: %w", err)
	}
	monitor.Start()
	defer monitor.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		addr := config.MetricsAddr()
		if err := mcp.ServeMetrics(addr); err != nil {
			logger.Slog().Error("metrics side port stopped", "error", err)
		}
	}()

	server := mcp.NewServer(manager)
	return server.Run(ctx)
}
