package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the replyd application
var rootCmd = &cobra.Command{
	Use:   "replyd",
	Short: "Local Gmail reply-suggestion service",
	Long: `replyd is a local intermediary between a Gmail mailbox and an Ollama
generation backend. It serves a REST API for listing and reading emails,
generating reply suggestions with conversation context, and sending,
archiving, or relabeling messages.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "replyd version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
}
