package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the kafka-recon application.
// Running it without a subcommand starts the interactive shell.
var rootCmd = &cobra.Command{
	Use:   "kafka-recon",
	Short: "Reconnaissance and enumeration tool for Apache Kafka",
	Long: `kafka-recon is an interactive reconnaissance tool for Apache Kafka
clusters. It connects with administrative and consumer credentials,
discovers cluster topology, and reports broker- and resource-level
configuration for security and operational review.

The tool is strictly read-only: it never creates topics, writes
configuration, or changes ACLs.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd)
	},
}

var (
	configFlag   string
	logLevelFlag string
)

// SetVersion sets the version for the root command. Called from main to
// inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point for the CLI application, called by
// main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kafka-recon version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error; exit non-zero to keep the
		// process's exit path orderly.
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newShellCmd())

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"load kafka configuration from json file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn",
		"structured log level (debug, info, warn, error)")
}
