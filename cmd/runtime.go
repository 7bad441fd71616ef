package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
)

var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Show backend information",
	Long: `Display which conduit backends are available on this host and what
each one provides.

  docker   docker or podman CLI (auto-detected, docker preferred);
           the engine's restart policy supervises the container
  systemd  systemctl on a systemd-booted host; a generated unit
           supervises the process`,
	Args: cobra.NoArgs,
	RunE: runRuntime,
}

func init() {
	rootCmd.AddCommand(runtimeCmd)
}

func runRuntime(cmd *cobra.Command, args []string) error {
	a := app.Default
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Backends:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  BACKEND\tAVAILABLE\tTOOL\tUNIT FILE\tENGINE RESTART\tHEALTH")
	for _, b := range []config.Backend{config.BackendDocker, config.BackendSystemd} {
		rt, err := a.RuntimeFor(b)
		if err != nil {
			fmt.Fprintf(w, "  %s\t%s\t-\t-\t-\t-\n", b, boolStatus(false))
			continue
		}
		caps := runtime.GetCapabilities(rt)
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			b, boolStatus(true), toolName(rt), boolStatus(caps.UnitFile), boolStatus(caps.EngineRestart), boolStatus(caps.HealthStatus))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Unit directory: %s\n", a.Paths.UnitDir)
	fmt.Fprintf(out, "Unit prefix: %s\n", a.HostConfig.UnitPrefix)
	fmt.Fprintf(out, "Container prefix: %s\n", a.HostConfig.ContainerPrefix)
	return nil
}

func toolName(rt runtime.Runtime) string {
	switch r := rt.(type) {
	case *runtime.DockerRuntime:
		return r.Command
	case *runtime.SystemdRuntime:
		if r.UserUnits {
			return "systemctl --user"
		}
		return "systemctl"
	default:
		return rt.Name()
	}
}
