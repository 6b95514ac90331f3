package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/replyd/internal/config"
	"github.com/teemow/replyd/internal/google"
	"github.com/teemow/replyd/internal/ollama"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check Gmail authorization and Ollama availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if google.HasToken() {
				fmt.Println("gmail:  token stored")
			} else {
				fmt.Println("gmail:  not authorized (run 'replyd auth')")
			}

			client := ollama.NewClient(cfg.Ollama, cfg.Suggest.BodyTruncationChars, slog.Default(), nil)
			info := client.Status(cmd.Context())
			switch {
			case !info.Running:
				fmt.Printf("ollama: not reachable at %s\n", cfg.Ollama.APIBaseURL)
			case !info.ModelAvailable:
				fmt.Printf("ollama: running, but model %q is not installed (have: %s)\n",
					info.Model, strings.Join(info.Models, ", "))
			default:
				fmt.Printf("ollama: running with model %q\n", info.Model)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.config/replyd/config.toml)")
	return cmd
}
