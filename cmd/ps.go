package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/monitor"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List all conduits",
	Args:  cobra.NoArgs,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	a := app.Default
	results, err := monitor.New(0, a.Runtimes, a.Paths).CheckAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conduits: %w", err)
	}

	if len(results) == 0 {
		logInfo("No conduits found. Create one with: conduit-console create <name> --backend docker --image <image>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tSTATUS\tUPTIME\tRESTARTS\tINSTANCE")
	fmt.Fprintln(w, "----\t-------\t------\t------\t--------\t--------")

	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Conduit, r.Backend, formatStatus(r.Status), orDash(r.Uptime), r.RestartCount, orDash(r.InstanceID))
	}

	return w.Flush()
}
