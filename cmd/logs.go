package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "View conduit logs",
	Long: `Shows the conduit's output: docker logs for container conduits and
the journal of the generated unit for systemd conduits.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

var (
	logsFollow bool
	logsLines  int
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	c, err := loadConduit(args[0])
	if err != nil {
		return err
	}
	rt, err := runtimeFor(c)
	if err != nil {
		return err
	}

	output, err := rt.Logs(cmd.Context(), c.Name, runtime.LogOptions{Lines: logsLines, Follow: logsFollow})
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	if output != "" {
		fmt.Fprint(cmd.OutOrStdout(), output)
		if !strings.HasSuffix(output, "\n") {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	return nil
}
