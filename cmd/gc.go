package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/logging"
	"github.com/firefly-engineering/conduit-console/internal/runtime"
	"github.com/firefly-engineering/conduit-console/internal/unit"
)

var gcForce bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Garbage collect orphaned conduit resources",
	Long: `Reconciles disk state with runtime state and removes orphaned resources.

Without --force, prints what would be cleaned (dry run).
With --force, actually removes orphaned files and destroys orphaned containers.
Unit files are disabled and stopped before removal, and the service manager
is reloaded afterwards.

Detects:
  - Legacy unit files: *-docker.service units written by older releases
    for container conduits, which the container engine now supervises
  - Orphaned units: units generated by conduit-console with no matching
    systemd conduit (hand-written units are left alone)
  - Orphaned containers: labelled containers with no matching metadata
  - Orphaned audit logs: event logs for conduits that no longer exist`,
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVar(&gcForce, "force", false, "Actually remove orphaned resources (default is dry run)")
	rootCmd.AddCommand(gcCmd)
}

// orphanedContainer is a runtime object with no metadata on disk.
type orphanedContainer struct {
	name    string
	backend config.Backend
}

// gcResult tracks what gc found and would/did clean up.
type gcResult struct {
	legacyUnits        []string
	orphanedUnits      []string
	orphanedContainers []orphanedContainer
	orphanedEvents     []string
}

func (r *gcResult) empty() bool {
	return len(r.legacyUnits) == 0 && len(r.orphanedUnits) == 0 &&
		len(r.orphanedContainers) == 0 && len(r.orphanedEvents) == 0
}

func runGC(cmd *cobra.Command, args []string) error {
	a := app.Default
	ctx := cmd.Context()

	result, err := collectGarbage(ctx, a)
	if err != nil {
		return err
	}

	if result.empty() {
		logInfo("No orphaned resources found")
		return nil
	}

	if !gcForce {
		printGCDryRun(cmd.OutOrStdout(), result)
		return nil
	}

	return executeGC(ctx, a, result)
}

func collectGarbage(ctx context.Context, a *app.App) (*gcResult, error) {
	conduits, err := config.ListConduits(a.Paths.ConduitsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list conduit metadata: %w", err)
	}
	known := make(map[string]*config.Conduit, len(conduits))
	for _, c := range conduits {
		known[c.Name] = c
	}

	result := &gcResult{}
	units := a.UnitWriter()

	// 1. Legacy container units, unless a systemd conduit happens to own the name
	legacy, err := units.LegacyDockerUnits()
	if err != nil {
		return nil, fmt.Errorf("failed to scan unit directory: %w", err)
	}
	owned := make(map[string]bool)
	for _, f := range legacy {
		name, _ := unit.ConduitName(units.Prefix, f)
		if c, exists := known[name]; exists && c.ManagesUnitFile() {
			owned[f] = true
			continue
		}
		result.legacyUnits = append(result.legacyUnits, f)
	}

	// 2. Generated units that no systemd conduit owns
	files, err := units.List()
	if err != nil {
		return nil, fmt.Errorf("failed to scan unit directory: %w", err)
	}
	for _, f := range files {
		if unit.IsLegacyDockerUnit(f) && !owned[f] {
			continue
		}
		name, ok := unit.ConduitName(units.Prefix, f)
		if !ok {
			continue
		}
		if c, exists := known[name]; exists && c.ManagesUnitFile() {
			continue
		}
		if !units.Managed(f) {
			logging.Debug("skipping unit not generated by conduit-console", "unit", f)
			continue
		}
		result.orphanedUnits = append(result.orphanedUnits, f)
	}

	// 3. Containers with no metadata. Units were handled above.
	if rt, err := a.RuntimeFor(config.BackendDocker); err == nil {
		containers, err := rt.List(ctx)
		if err != nil {
			logWarning("Failed to list containers: %v", err)
		}
		for _, info := range containers {
			if c, exists := known[info.Name]; !exists || c.Backend != config.BackendDocker {
				result.orphanedContainers = append(result.orphanedContainers, orphanedContainer{name: info.Name, backend: config.BackendDocker})
			}
		}
	} else {
		logging.Debug("docker backend unavailable, skipping container scan", "error", err)
	}

	// 4. Audit logs with no conduit
	eventNames, err := a.Audit.Conduits()
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit logs: %w", err)
	}
	for _, name := range eventNames {
		if _, exists := known[name]; !exists {
			result.orphanedEvents = append(result.orphanedEvents, name)
		}
	}

	sort.Strings(result.orphanedUnits)
	sort.Slice(result.orphanedContainers, func(i, j int) bool {
		return result.orphanedContainers[i].name < result.orphanedContainers[j].name
	})
	sort.Strings(result.orphanedEvents)

	return result, nil
}

func printGCDryRun(out io.Writer, result *gcResult) {
	fmt.Fprintln(out, "Dry run (use --force to actually clean up):")
	fmt.Fprintln(out)

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintln(out, title)
		for _, item := range items {
			fmt.Fprintf(out, "  %s\n", item)
		}
		fmt.Fprintln(out)
	}

	section("Legacy docker unit files (container engine supervises these conduits):", result.legacyUnits)
	section("Orphaned unit files (no matching systemd conduit):", result.orphanedUnits)

	var containers []string
	for _, oc := range result.orphanedContainers {
		containers = append(containers, fmt.Sprintf("%s (%s)", oc.name, oc.backend))
	}
	section("Orphaned containers (no matching metadata):", containers)
	section("Orphaned audit logs (no matching conduit):", result.orphanedEvents)
}

func executeGC(ctx context.Context, a *app.App, result *gcResult) error {
	for _, f := range result.legacyUnits {
		logInfo("Removing legacy unit: %s", f)
	}
	for _, f := range result.orphanedUnits {
		logInfo("Removing orphaned unit: %s", f)
	}
	removeUnitFiles(ctx, a, append(append([]string{}, result.legacyUnits...), result.orphanedUnits...))

	for _, oc := range result.orphanedContainers {
		logInfo("Destroying orphaned container: %s", oc.name)
		rt, err := a.RuntimeFor(oc.backend)
		if err != nil {
			logWarning("Backend %s unavailable: %v", oc.backend, err)
			continue
		}
		if err := rt.Destroy(ctx, oc.name); err != nil {
			logWarning("Failed to destroy container %s: %v", oc.name, err)
		} else {
			logging.Debug("destroyed orphaned container", "name", oc.name)
		}
	}

	for _, name := range result.orphanedEvents {
		logInfo("Removing orphaned audit log: %s", name)
		if err := a.Audit.Remove(name); err != nil {
			logWarning("Failed to remove audit log %s: %v", name, err)
		}
	}

	logSuccess("Garbage collection complete")
	return nil
}

// removeUnitFiles retires unit files through the systemd runtime so they
// are disabled and the manager is reloaded. Without one, the files are
// only deleted.
func removeUnitFiles(ctx context.Context, a *app.App, files []string) {
	if len(files) == 0 {
		return
	}

	if rt, err := a.RuntimeFor(config.BackendSystemd); err == nil {
		if remover, ok := rt.(runtime.UnitRemover); ok {
			if err := remover.RemoveUnits(ctx, files...); err != nil {
				logWarning("Failed to remove units: %v", err)
			}
			return
		}
	} else {
		logging.Debug("systemd backend unavailable, deleting unit files only", "error", err)
	}

	units := a.UnitWriter()
	for _, f := range files {
		if err := units.Remove(f); err != nil {
			logWarning("Failed to remove %s: %v", f, err)
		}
	}
	logInfo("Run 'systemctl daemon-reload' to drop the removed units from the service manager")
}
