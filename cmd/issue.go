package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/averen/sigil/internal/audit"
	"github.com/averen/sigil/internal/claims"
	"github.com/averen/sigil/internal/core"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a token locally from the configured signing key",
	Long: `Issue signs a token without going through the login endpoint.
Claims come either from a configured user (--user) or directly from
--subject/--role/--claim flags. Useful for testing policies and clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		subject, _ := cmd.Flags().GetString("subject")
		roles, _ := cmd.Flags().GetStringArray("role")
		rawClaims, _ := cmd.Flags().GetStringArray("claim")
		ttlMinutes, _ := cmd.Flags().GetInt("ttl")
		quiet, _ := cmd.Flags().GetBool("quiet")

		comps, err := buildComponents(configPath())
		if err != nil {
			return err
		}

		var claimSet core.ClaimSet
		if user != "" {
			roles, err := comps.store.RolesOf(cmd.Context(), user)
			if err != nil {
				return err
			}
			claimSet, err = claims.Build(&core.Identity{Subject: user, Roles: roles})
			if err != nil {
				return err
			}
		} else {
			claimSet, err = claimSetFromFlags(subject, roles, rawClaims)
			if err != nil {
				return err
			}
			if claimSet.Subject() == "" {
				return fmt.Errorf("either --user or --subject is required")
			}
		}

		signed, expiresAt, err := comps.issuer.Issue(claimSet, time.Duration(ttlMinutes)*time.Minute)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}

		if quiet {
			fmt.Println(signed)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"Subject", claimSet.Subject()},
			{"Roles", claimSet.Roles()},
			{"Expires", expiresAt.Format(time.RFC3339)},
			{"Fingerprint", audit.Fingerprint(signed)},
		})
		t.Render()

		color.Green("token issued:")
		fmt.Println(signed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueCmd)

	issueCmd.Flags().String("user", "", "Issue for a configured user (roles come from the store)")
	issueCmd.Flags().String("subject", "", "Subject for an ad-hoc claim set")
	issueCmd.Flags().StringArray("role", nil, "Role claim (repeatable)")
	issueCmd.Flags().StringArray("claim", nil, "Attribute claim as type=value (repeatable)")
	issueCmd.Flags().Int("ttl", 0, "Token lifetime in minutes (0 = config default)")
	issueCmd.Flags().Bool("quiet", false, "Print only the token")
}
