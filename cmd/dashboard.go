package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/dashboard"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/monitor"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "top"},
	Short:   "Open the live conduit dashboard",
	Long: `Shows every conduit with its backend, health, uptime and restart count,
refreshing on a fixed interval until you quit.

The dashboard only exits on explicit input: q or ctrl+c in the terminal UI,
a "q", "quit" or "exit" line on stdin in headless mode, SIGINT/SIGTERM, or
the optional --duration deadline. It keeps refreshing when left unattended,
and reaching end of input on stdin does not close it.

Headless mode is used with --headless or whenever stdout is not a terminal.
It writes one text frame per refresh.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var (
	dashboardHeadless    bool
	dashboardInterval    time.Duration
	dashboardDuration    time.Duration
	dashboardNoWatch     bool
	dashboardStopTimeout time.Duration
)

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardHeadless, "headless", false, "Write text frames instead of the terminal UI")
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", dashboard.DefaultInterval, "Refresh interval (default from refreshInterval in config)")
	dashboardCmd.Flags().DurationVar(&dashboardDuration, "duration", 0, "Exit after this long (0 runs until quit)")
	dashboardCmd.Flags().BoolVar(&dashboardNoWatch, "no-watch", false, "Do not refresh on conduit directory changes")
	dashboardCmd.Flags().DurationVar(&dashboardStopTimeout, "stop-timeout", 10*time.Second, "Graceful timeout for the stop key")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a := app.Default

	interval := dashboardInterval
	if !cmd.Flags().Changed("interval") && a.HostConfig.RefreshInterval > 0 {
		interval = a.HostConfig.RefreshInterval
	}

	mon := monitor.New(interval, a.Runtimes, a.Paths, monitor.WithAuditLogger(a.Audit))
	src := &dashboard.MonitorSource{Monitor: mon}

	opts := dashboard.Options{
		Interval:    interval,
		Duration:    dashboardDuration,
		Controller:  lifecycle(),
		StopTimeout: dashboardStopTimeout,
	}

	if !dashboardNoWatch {
		if err := os.MkdirAll(a.Paths.ConduitsDir, 0755); err != nil {
			logging.Debug("cannot create conduits directory", "error", err)
		}
		w, err := dashboard.NewWatcher(a.Paths.ConduitsDir)
		if err != nil {
			logging.Debug("conduit directory watch disabled", "error", err)
		} else {
			defer w.Close()
			opts.Changes = w.Changes()
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dashboardHeadless || !dashboard.IsInteractive(os.Stdout) {
		logging.Debug("starting headless dashboard", "interval", interval, "duration", dashboardDuration)
		return dashboard.RunHeadless(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), src, opts)
	}
	return dashboard.Run(ctx, src, opts)
}
