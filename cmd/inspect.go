package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/averen/sigil/internal/core"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <token>",
	Short: "Verify a token and show its claims",
	Long: `Inspect verifies the token against the configured signing key, issuer,
and audience, and prints the reconstructed claim set. With --server set it
asks a running Sigil server instead of verifying locally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := args[0]

		if serverAddr != "" {
			return inspectRemote(raw)
		}

		comps, err := buildComponents(configPath())
		if err != nil {
			return err
		}

		claimSet, err := comps.verifier.Verify(raw)
		if err != nil {
			color.Red("INVALID")
			return err
		}

		color.Green("VALID")
		renderClaims(claimSet)
		return nil
	},
}

func inspectRemote(raw string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	who, err := c.Whoami(raw)
	if err != nil {
		color.Red("INVALID")
		return err
	}
	color.Green("VALID")
	renderClaims(who.Claims)
	return nil
}

func renderClaims(claimSet core.ClaimSet) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Type", "Value"})
	for _, c := range claimSet {
		t.AppendRow(table.Row{c.Type, c.Value})
	}
	t.Render()
	fmt.Printf("%d claim(s)\n", len(claimSet))
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
