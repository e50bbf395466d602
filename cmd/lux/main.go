package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lux-run/lux/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// rootFlags collects the persistent flags every subcommand consults when
// building its cliContext.
type rootFlags struct {
	configPath   string
	jsonOutput   bool
	composeFiles []string
}

var flags rootFlags

var rootCmd = &cobra.Command{
	Use:     "lux",
	Short:   "lux - containerized coding-agent sandbox with behavioral auditing",
	Long:    `lux runs a coding agent inside a sandboxed container stack and records a behavioral timeline of what it actually did on the host's behalf.`,
	Version: Version,
	// RunE failures from emitError have already been reported; any other
	// error is printed by main.
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var reported silentError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		log.Debug("lux: command returned an error, exiting non-zero")
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("lux version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml (default: $LUX_CONFIG or the per-OS config dir)")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "emit machine-readable JSON envelopes on stdout")
	rootCmd.PersistentFlags().StringArrayVar(&flags.composeFiles, "compose-file", nil, "override compose file(s) (repeatable)")
	rootCmd.PersistentFlags().String("bundle-dir", "", "accepted but not read; set LUX_BUNDLE_DIR to choose the bundle directory")
	rootCmd.PersistentFlags().MarkHidden("bundle-dir")
	rootCmd.PersistentFlags().String("env-file", "", "accepted but not read; set LUX_ENV_FILE to choose the compose env file")
	rootCmd.PersistentFlags().MarkHidden("env-file")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(runtimeCmd)
	rootCmd.AddCommand(shimCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func initLogging() {
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: flags.jsonOutput,
	})
}

// bypassOverride reports whether LUX_RUNTIME_BYPASS is set. It has no
// callers: the proxied lifecycle commands (up/down/status/ui/run) decide
// whether to dial the running supervisor through shouldRouteThroughRuntime.
func bypassOverride() bool { return runtimeBypassEnabled() }
