package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a stopped conduit",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a running conduit",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart <name>",
	Short: "Restart a conduit",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestart,
}

var rmCmd = &cobra.Command{
	Use:     "rm <name>",
	Aliases: []string{"down"},
	Short:   "Stop and remove a conduit",
	Long: `Destroys the conduit through its backend and removes its metadata.
For systemd conduits the generated unit file is removed as well. The audit
log is deleted unless --keep-events is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var (
	stopTimeout    int
	restartTimeout int
	rmKeepEvents   bool
)

func init() {
	stopCmd.Flags().IntVarP(&stopTimeout, "timeout", "t", 30, "Graceful shutdown timeout in seconds (0 for immediate)")
	restartCmd.Flags().IntVarP(&restartTimeout, "timeout", "t", 30, "Graceful shutdown timeout in seconds (0 for immediate)")
	rmCmd.Flags().BoolVar(&rmKeepEvents, "keep-events", false, "Keep the audit log")
	rootCmd.AddCommand(startCmd, stopCmd, restartCmd, rmCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	logInfo("Starting conduit %s...", name)
	if err := lifecycle().Start(cmd.Context(), name); err != nil {
		return err
	}
	logSuccess("Started conduit %s", name)
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	name := args[0]
	if stopTimeout > 0 {
		logInfo("Stopping conduit %s (timeout: %ds)...", name, stopTimeout)
	} else {
		logInfo("Stopping conduit %s...", name)
	}
	if err := lifecycle().Stop(cmd.Context(), name, time.Duration(stopTimeout)*time.Second); err != nil {
		return err
	}
	logSuccess("Stopped conduit %s", name)
	return nil
}

func runRestart(cmd *cobra.Command, args []string) error {
	name := args[0]
	logInfo("Restarting conduit %s...", name)
	if err := lifecycle().Restart(cmd.Context(), name, time.Duration(restartTimeout)*time.Second); err != nil {
		return err
	}
	logSuccess("Restarted conduit %s", name)
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	name := args[0]
	logInfo("Removing conduit %s...", name)
	if err := lifecycle().Remove(cmd.Context(), name, rmKeepEvents); err != nil {
		return err
	}
	logSuccess("Removed conduit %s", name)
	return nil
}
