package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/replyd/internal/google"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to the Gmail account",
		Long: `Runs the out-of-band Google OAuth flow: prints an authorization URL,
reads the code back from stdin, and stores the resulting token for the
serve command. Set REPLYD_GOOGLE_CLIENT_ID and REPLYD_GOOGLE_CLIENT_SECRET
before running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if google.HasToken() {
				fmt.Println("A Google token is already stored; continuing will replace it.")
			}

			fmt.Println("Open the following URL in your browser and authorize access:")
			fmt.Println()
			fmt.Println("  " + google.GetAuthURL())
			fmt.Println()
			fmt.Print("Paste the authorization code here: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			if err := google.SaveToken(cmd.Context(), code); err != nil {
				return err
			}

			fmt.Println("Token stored. You can now run 'replyd serve'.")
			return nil
		},
	}
}
