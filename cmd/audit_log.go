package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/errors"
)

var auditLogCmd = &cobra.Command{
	Use:   "audit-log <name>",
	Short: "Display the audit trail for a conduit",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditLog,
}

var (
	auditLogLines  int
	auditLogOutput string
)

func init() {
	auditLogCmd.Flags().IntVarP(&auditLogLines, "lines", "n", 0, "Show only the last N events (0 for all)")
	auditLogCmd.Flags().StringVarP(&auditLogOutput, "output", "o", "text", "Output format: text or jsonl")
	rootCmd.AddCommand(auditLogCmd)
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	name := args[0]

	if auditLogOutput != "text" && auditLogOutput != "jsonl" {
		return errors.ValidationError(fmt.Sprintf("unknown output format %q (must be text or jsonl)", auditLogOutput))
	}

	events, err := app.Default.Audit.Tail(name, auditLogLines)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events found for conduit %s", name)
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range events {
		if auditLogOutput == "jsonl" {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		if e.Details != "" {
			fmt.Fprintf(out, "[%s] %-8s %s (%s)\n", ts, e.Type, e.Conduit, e.Details)
		} else {
			fmt.Fprintf(out, "[%s] %-8s %s\n", ts, e.Type, e.Conduit)
		}
	}

	return nil
}
