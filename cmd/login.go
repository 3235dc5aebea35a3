package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/averen/sigil/internal/cliconfig"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate with a Sigil server and save the token",
	Long: `Login exchanges a username and password for a bearer token and saves it
locally so later commands (like inspect --server) can authenticate.
The password is read from the SIGIL_PASSWORD environment variable or the
--password flag.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("SIGIL_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("no password provided (use --password or SIGIL_PASSWORD)")
		}

		server, err := resolveServer()
		if err != nil {
			return err
		}
		cli, err := getClient()
		if err != nil {
			return err
		}

		result, err := cli.Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		cfg, err := cliconfig.Load()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading CLI config: %w", err)
			}
			cfg = &cliconfig.CLIConfig{}
		}
		if err := cfg.SetCredential(server, &cliconfig.Credential{Token: result.AccessToken}); err != nil {
			return err
		}
		if err := cliconfig.Save(cfg); err != nil {
			return fmt.Errorf("saving CLI config: %w", err)
		}

		color.Green("logged in as %s (token expires %s)", username, result.ExpiresAt.Format("15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().String("password", "", "Password (prefer SIGIL_PASSWORD)")
}
