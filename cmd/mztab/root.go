package main

import (
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mztab/internal/logging"
)

// Global flag values.
var (
	logLevel  string
	logFormat string
	noColor   bool
)

// rootCmd is the base command for mztab.
var rootCmd = &cobra.Command{
	Use:   "mztab",
	Short: "Validate mzTab proteomics and metabolomics result files",
	Long: `mztab checks the tabular sections of mzTab 1.0 files (protein, peptide,
PSM and small molecule) against their metadata and reports format and
logical errors with line numbers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// Logs go to stderr so that --json output on stdout stays clean.
		slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, logFormat))
		if noColor {
			color.NoColor = true
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("mztab " + Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(versionCmd)
}
