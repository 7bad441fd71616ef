package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
	"github.com/firefly-engineering/conduit-console/internal/health"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show detailed status of a conduit",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var statusOutput string

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text, json, or yaml")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the machine-readable form of status.
type statusReport struct {
	Conduit *config.Conduit     `json:"conduit" yaml:"conduit"`
	Health  *health.CheckResult `json:"health" yaml:"health"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	name := args[0]

	switch statusOutput {
	case "text", "json", "yaml":
	default:
		return errors.ValidationError(fmt.Sprintf("unknown output format %q (must be text, json, or yaml)", statusOutput))
	}

	c, err := loadConduit(name)
	if err != nil {
		return err
	}

	report := statusReport{Conduit: c, Health: checkConduit(cmd.Context(), c)}
	out := cmd.OutOrStdout()

	switch statusOutput {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		return enc.Close()
	}

	printStatus(out, report)
	return nil
}

func printStatus(out io.Writer, r statusReport) {
	c, h := r.Conduit, r.Health

	fmt.Fprintf(out, "Conduit: %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(out, "Instance: %s\n", c.InstanceID)
	fmt.Fprintf(out, "Backend: %s\n", c.Backend)
	if c.Image != "" {
		fmt.Fprintf(out, "Image: %s\n", c.Image)
	}
	if len(c.Command) > 0 {
		fmt.Fprintf(out, "Command: %s\n", strings.Join(c.Command, " "))
	}
	fmt.Fprintf(out, "Restart: %s\n", c.EffectiveRestart())
	if unitName := c.UnitName(app.Default.HostConfig.UnitPrefix); unitName != "" {
		fmt.Fprintf(out, "Unit: %s\n", unitName)
	}
	for _, p := range c.Ports {
		fmt.Fprintf(out, "Port: 127.0.0.1:%d -> %d\n", p.Host, p.Container)
	}
	for _, m := range c.Mounts {
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		fmt.Fprintf(out, "Mount: %s -> %s (%s)\n", m.Host, m.Container, mode)
	}
	if len(c.Env) > 0 {
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "Env: %s\n", strings.Join(keys, ", "))
	}
	fmt.Fprintf(out, "Created: %s\n", c.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Health Checks:")
	fmt.Fprintf(out, "  Status: %s\n", formatStatus(h.Status))
	fmt.Fprintf(out, "  Running: %s\n", boolStatus(h.Running))
	if h.Running {
		fmt.Fprintf(out, "  Uptime: %s\n", orDash(h.Uptime))
	}
	if h.Restarting {
		fmt.Fprintln(out, "  Restarting: yes")
	}
	fmt.Fprintf(out, "  Restarts: %d\n", h.RestartCount)
	if h.NativeHealth != "" {
		fmt.Fprintf(out, "  Engine health: %s\n", h.NativeHealth)
	}
	if c.HealthPort > 0 {
		fmt.Fprintf(out, "  Probe (:%d): %s\n", c.HealthPort, orDash(string(h.HealthProbe)))
	}
	if h.Error != "" {
		fmt.Fprintf(out, "  Error: %s\n", h.Error)
	}
}

func boolStatus(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
