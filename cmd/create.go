package cmd

import (
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/conduit"
	"github.com/firefly-engineering/conduit-console/internal/config"
	"github.com/firefly-engineering/conduit-console/internal/errors"
)

var createCmd = &cobra.Command{
	Use:   "create <name> [flags] [-- command [args...]]",
	Short: "Create a new conduit",
	Long: `Creates a conduit and hands it to its backend.

Docker conduits become containers with a restart policy (default
unless-stopped). The container engine supervises them, so no systemd unit
file is written.

Systemd conduits get a generated <unitPrefix><name>.service unit in the
unit directory. They require a command with an absolute executable path.

Examples:
  conduit-console create web --backend docker --image nginx:1.27 -p 8080:80
  conduit-console create relay --backend systemd -- /usr/bin/socat TCP-LISTEN:5432,fork TCP:db:5432`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

var (
	createBackend     string
	createImage       string
	createCommand     string
	createWorkDir     string
	createEnv         []string
	createPorts       []string
	createMounts      []string
	createRestart     string
	createDescription string
	createHealthPort  int
	createNoStart     bool
)

func init() {
	createCmd.Flags().StringVarP(&createBackend, "backend", "b", string(config.BackendDocker), "Backend: docker or systemd")
	createCmd.Flags().StringVarP(&createImage, "image", "i", "", "Container image (docker)")
	createCmd.Flags().StringVar(&createCommand, "command", "", "Command line, shell-quoted (alternative to arguments after --)")
	createCmd.Flags().StringVarP(&createWorkDir, "workdir", "w", "", "Working directory (absolute)")
	createCmd.Flags().StringArrayVarP(&createEnv, "env", "e", nil, "Environment variable KEY=VALUE (repeatable)")
	createCmd.Flags().StringArrayVarP(&createPorts, "port", "p", nil, "Publish HOST:CONTAINER on 127.0.0.1 (docker, repeatable)")
	createCmd.Flags().StringArrayVar(&createMounts, "mount", nil, "Bind mount HOST:CONTAINER[:ro] (docker, repeatable)")
	createCmd.Flags().StringVar(&createRestart, "restart", "", "Restart policy: no, on-failure, always, unless-stopped")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "Free-text description")
	createCmd.Flags().IntVar(&createHealthPort, "health-port", 0, "TCP port probed on 127.0.0.1 for health")
	createCmd.Flags().BoolVar(&createNoStart, "no-start", false, "Create without starting")
	rootCmd.AddCommand(createCmd)
}

func createOptions(args []string) (conduit.CreateOptions, error) {
	backend, err := config.ParseBackend(createBackend)
	if err != nil {
		return conduit.CreateOptions{}, errors.ValidationError(err.Error())
	}

	command := args[1:]
	if createCommand != "" {
		if len(command) > 0 {
			return conduit.CreateOptions{}, errors.ValidationError("use either --command or arguments after --, not both")
		}
		command, err = shellquote.Split(createCommand)
		if err != nil {
			return conduit.CreateOptions{}, errors.ValidationError(fmt.Sprintf("invalid --command: %v", err))
		}
	}

	env, err := conduit.ParseEnv(createEnv)
	if err != nil {
		return conduit.CreateOptions{}, errors.ValidationError(err.Error())
	}

	var ports []config.PortMapping
	for _, p := range createPorts {
		pm, err := conduit.ParsePort(p)
		if err != nil {
			return conduit.CreateOptions{}, errors.ValidationError(err.Error())
		}
		ports = append(ports, pm)
	}

	var mounts []config.Mount
	for _, m := range createMounts {
		mount, err := conduit.ParseMount(m)
		if err != nil {
			return conduit.CreateOptions{}, errors.ValidationError(err.Error())
		}
		mounts = append(mounts, mount)
	}

	return conduit.CreateOptions{
		Name:        args[0],
		Backend:     backend,
		Description: createDescription,
		Image:       createImage,
		Command:     command,
		WorkingDir:  createWorkDir,
		Env:         env,
		Ports:       ports,
		Mounts:      mounts,
		Restart:     createRestart,
		HealthPort:  createHealthPort,
		Start:       !createNoStart,
	}, nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	opts, err := createOptions(args)
	if err != nil {
		return err
	}

	logInfo("Creating conduit %s (%s)...", opts.Name, opts.Backend)

	inst, err := conduit.NewCreator(app.Default).Create(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logSuccess("Created conduit %s", inst.Name)
	fmt.Fprintf(out, "  Instance: %s\n", inst.InstanceID)
	fmt.Fprintf(out, "  Backend:  %s\n", inst.Backend)
	if inst.UnitFile != "" {
		fmt.Fprintf(out, "  Unit:     %s\n", inst.UnitFile)
	} else {
		fmt.Fprintf(out, "  Restart:  %s (enforced by the container engine)\n", inst.Conduit.EffectiveRestart())
	}
	if !opts.Start {
		fmt.Fprintf(out, "  Start it with: conduit-console start %s\n", inst.Name)
	}
	return nil
}
