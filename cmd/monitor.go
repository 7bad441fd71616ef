package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/health"
	"github.com/firefly-engineering/conduit-console/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor conduit health in the background",
	Long: `Periodically checks the health of all conduits and optionally
restarts stopped or unhealthy ones. Runs in the foreground until interrupted.

Health transitions are written to each conduit's audit log. Can be wrapped
in a systemd service for persistent monitoring.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	monitorInterval    time.Duration
	monitorAutoRestart bool
	monitorConcurrency int
	monitorDuration    time.Duration
)

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 60*time.Second, "Health check interval (default from monitorInterval in config)")
	monitorCmd.Flags().BoolVar(&monitorAutoRestart, "auto-restart", false, "Automatically restart stopped or unhealthy conduits")
	monitorCmd.Flags().IntVar(&monitorConcurrency, "concurrency", monitor.DefaultConcurrency, "Conduits checked in parallel")
	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "Exit after this long (0 runs until interrupted)")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a := app.Default

	interval := monitorInterval
	if !cmd.Flags().Changed("interval") && a.HostConfig.MonitorInterval > 0 {
		interval = a.HostConfig.MonitorInterval
	}

	mon := monitor.New(interval, a.Runtimes, a.Paths,
		monitor.WithAuditLogger(a.Audit),
		monitor.WithAutoRestart(monitorAutoRestart),
		monitor.WithConcurrency(monitorConcurrency),
		monitor.WithResultHandler(reportUnhealthy),
	)

	logInfo("Starting health monitor (interval: %s, auto-restart: %v)", interval, monitorAutoRestart)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if monitorDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, monitorDuration)
		defer cancel()
	}

	err := mon.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logInfo("Monitor stopped")
		return nil
	}
	return err
}

func reportUnhealthy(results []*health.CheckResult) {
	for _, r := range results {
		switch r.Status {
		case health.StatusUnhealthy, health.StatusMissing:
			if r.Error != "" {
				logWarning("%s: %s (%s)", r.Conduit, r.Status, r.Error)
			} else {
				logWarning("%s: %s", r.Conduit, r.Status)
			}
		}
	}
}
