package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/conduit-console/internal/app"
	"github.com/firefly-engineering/conduit-console/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configDir  string
	stateDir   string
)

// helpTemplate always starts with a labeled Description section.
const helpTemplate = `Description:
{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces | indent}}{{else}}  (no description){{end}}

{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}`

var rootCmd = &cobra.Command{
	Use:   "conduit-console",
	Short: "Supervise conduits and watch them on a live dashboard",
	Long: `conduit-console manages named conduits: long-running units of work
supervised on the local host by one of two backends.

  docker   runs the conduit as a container; the engine's restart
           policy keeps it alive and no unit file is written
  systemd  runs the conduit as a host process from a generated
           <prefix><name>.service unit

The dashboard command shows every conduit and refreshes until you quit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, cmd.ErrOrStderr())
		logging.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		return app.Configure(configDir, stateDir)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	cobra.AddTemplateFunc("indent", indent)
	rootCmd.SetHelpTemplate(helpTemplate)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default $CONDUIT_CONFIG_DIR or /etc/conduit-console)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "State directory (overrides config)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
