package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/janschaeferjohann/seriem-agent/cli"
	"github.com/janschaeferjohann/seriem-agent/config"
	"github.com/janschaeferjohann/seriem-agent/errors"
	"github.com/janschaeferjohann/seriem-agent/git"
	"github.com/janschaeferjohann/seriem-agent/internal/agent"
	"github.com/janschaeferjohann/seriem-agent/internal/daemon"
	"github.com/janschaeferjohann/seriem-agent/internal/daemon/metrics"
	"github.com/janschaeferjohann/seriem-agent/internal/daemon/pidfile"
	"github.com/janschaeferjohann/seriem-agent/internal/daemon/server"
	"github.com/janschaeferjohann/seriem-agent/internal/proposals"
	"github.com/janschaeferjohann/seriem-agent/internal/stream"
	"github.com/janschaeferjohann/seriem-agent/internal/telemetry"
	"github.com/janschaeferjohann/seriem-agent/internal/workspace"
	"github.com/janschaeferjohann/seriem-agent/logging"
	"github.com/janschaeferjohann/seriem-agent/pkg/client"
	"github.com/janschaeferjohann/seriem-agent/pkg/paths"
	"github.com/janschaeferjohann/seriem-agent/state"
	"github.com/janschaeferjohann/seriem-agent/version"
)

// NewDaemonCmd returns the seriem daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the seriem daemon",
		Long:  "Run and control the daemon that serves the workspace, proposal and chat APIs.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the seriem daemon in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("daemon")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			host, port, err := splitListenAddr(cfg.Server.Listen)
			if err != nil {
				return err
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("failed to prepare state directories: %w", err)
			}

			// 1. Acquire lock
			pidPath := paths.PidFilePath()
			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.WithError(err).Error("Failed to release pidfile")
				}
			}()

			// 2. Build the collaborating subsystems
			gitSvc := git.NewCLIService()
			registry, err := workspace.NewRegistry(gitSvc, cfg.Files.Ignore)
			if err != nil {
				return err
			}
			store := proposals.NewStore()
			mtr := metrics.New()

			telemetryDir := cfg.Telemetry.Dir
			if telemetryDir == "" {
				telemetryDir = paths.TelemetryDir()
			}
			recorder := telemetry.NewRecorder(*cfg.Telemetry.Enabled, telemetryDir)

			engine := buildEngine(cfg, registry, store)

			watcher, err := daemon.NewSettingsWatcher(registry, nil)
			if err != nil {
				return fmt.Errorf("failed to create settings watcher: %w", err)
			}

			// 3. Assemble the server
			srv := server.New(server.Config{
				Host:           host,
				Port:           port,
				AllowedOrigins: cfg.Server.CORSOrigins,
			}, server.Deps{
				Workspaces:      registry,
				Proposals:       store,
				Git:             gitSvc,
				Engine:          engine,
				Metrics:         mtr,
				Telemetry:       recorder,
				Version:         version.GetInfo().Version,
				StructuredTools: cfg.Agent.StructuredTools,
				OnWorkspaceSelected: func(snap workspace.Snapshot) {
					if err := watcher.Rearm(); err != nil {
						logger.WithError(err).Warn("Failed to watch workspace settings")
					}
					if err := state.Set(state.KeyLastWorkspace, snap.Root); err != nil {
						logger.WithError(err).Warn("Failed to remember workspace selection")
					}
				},
			})

			// 4. Handle signals
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			started := time.Now()
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel()

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.WithError(err).Error("Server shutdown error")
				}

				recorder.EmitSessionEnd(time.Since(started))

				// Explicitly release pidfile before exit in signal handler
				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			// 5. Proposal lifecycle counters and telemetry ride the store's
			// update feed; decisions are counted at the handler.
			updates := store.Subscribe()
			go func() {
				for update := range updates {
					switch update.Kind {
					case proposals.UpdateCreated:
						mtr.ProposalsCreated.Inc()
						fileCount := 0
						if p, err := store.Get(update.ID); err == nil {
							fileCount = len(p.Changes)
						}
						recorder.EmitProposalCreated(update.ID, fileCount)
					case proposals.UpdateExpired:
						mtr.ProposalsExpired.Inc()
					}
				}
			}()

			go watcher.Start(ctx)

			// 6. Select the startup workspace: the configured default wins,
			// otherwise the last selection from a previous run is restored.
			// Selection happens outside the HTTP handler so the watcher is
			// re-armed by hand.
			startupPath := cfg.Workspace.Default
			if startupPath == "" {
				if last, err := state.GetString(state.KeyLastWorkspace); err == nil {
					startupPath = last
				}
			}
			if startupPath != "" {
				if _, err := registry.Select(ctx, startupPath); err != nil {
					logger.WithError(err).WithField("path", startupPath).
						Warn("Startup workspace not selected")
				} else if err := watcher.Rearm(); err != nil {
					logger.WithError(err).Warn("Failed to watch workspace settings")
				}
			}

			recorder.EmitSessionStart(version.GetInfo().Version)

			// 7. Start the server (blocking)
			logger.WithFields(logrus.Fields{
				"pid":  os.Getpid(),
				"addr": cfg.Server.Listen,
			}).Info("Starting daemon")
			if err := srv.ListenAndServe(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				out.Info("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			out.Success(fmt.Sprintf("Sent SIGTERM to process %d", pid))
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if !running {
				out.Warn("Stopped")
				os.Exit(1) // Non-zero for stopped state, useful for scripts
			}

			c := client.New(daemonBaseURL(cmd))
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			health, err := c.Health(ctx)
			if err != nil {
				out.Error(fmt.Sprintf("Running (PID: %d) but not answering", pid), err)
				os.Exit(1)
			}

			uptime := time.Duration(health.UptimeSeconds * float64(time.Second)).Round(time.Second)
			out.Success(fmt.Sprintf("Running (PID: %d)", health.PID))
			out.Field("Version", health.Version)
			out.Field("Uptime", uptime)
			out.Field("Address", c.BaseURL())
			return nil
		},
	}
}

// buildEngine wires the agent subprocess engine and its tool registry. With
// no command configured the chat surface stays up but every turn fails with
// a transport error instead of a panic.
func buildEngine(cfg *config.Config, registry *workspace.Registry, store *proposals.Store) agent.Engine {
	tools := agent.NewRegistry()
	agent.NewFilesystemTools(registry, store).RegisterAll(tools)

	if len(cfg.Agent.Command) == 0 {
		return agent.EngineFunc(func(ctx context.Context, req agent.TurnRequest, emit func(stream.Event)) error {
			return errors.TransportFailure(fmt.Errorf("no agent command configured"), "starting agent")
		})
	}

	engine := agent.NewProcessEngine(cfg.Agent.Command, cfg.Workspace.Default, tools)
	agent.NewDocumentTools(engine).RegisterAll(tools)
	return engine
}

// loadConfig loads seriem.yml through the explicit --config flag or the
// standard search order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := cli.GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	return config.LoadDefault()
}

// daemonBaseURL resolves the daemon address the CLI should call. Commands
// keep working with a broken config; they fall back to the default listen
// address and let the request fail with a transport error if nothing is
// there.
func daemonBaseURL(cmd *cobra.Command) string {
	cfg, err := loadConfig(cmd)
	if err != nil || cfg.Server.Listen == "" {
		return "127.0.0.1:8000"
	}
	return cfg.Server.Listen
}

func splitListenAddr(listen string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return "", 0, fmt.Errorf("invalid server.listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid server.listen port %q: %w", portStr, err)
	}
	return host, port, nil
}
