package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/averen/sigil/internal/authz"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Work with policy definitions",
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the policies in the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		comps, err := buildComponents(configPath())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Policy", "Requirements", "Description"})
		for _, p := range comps.cfg.Policies {
			t.AppendRow(table.Row{p.Name, len(p.Requirements), p.Description})
		}
		t.Render()

		color.Green("%d policies valid", len(comps.cfg.Policies))
		return nil
	},
}

var policyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a policy against an ad-hoc claim set",
	Long: `Check explains a policy decision: it evaluates every requirement of the
named policy against a claim set built from flags and prints each result.
The running service stops at the first failing requirement; this command
does not, so it shows the whole picture.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policyName, _ := cmd.Flags().GetString("policy")
		subject, _ := cmd.Flags().GetString("subject")
		roles, _ := cmd.Flags().GetStringArray("role")
		rawClaims, _ := cmd.Flags().GetStringArray("claim")

		if policyName == "" {
			return fmt.Errorf("--policy is required")
		}

		comps, err := buildComponents(configPath())
		if err != nil {
			return err
		}

		policy, err := comps.policies.Get(policyName)
		if err != nil {
			return err
		}

		claimSet, err := claimSetFromFlags(subject, roles, rawClaims)
		if err != nil {
			return err
		}

		decision, results := authz.EvaluateTrace(claimSet, policy)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"", "Requirement", "Reason"})
		for _, res := range results {
			mark := text.FgGreen.Sprint("PASS")
			if !res.Satisfied {
				mark = text.FgRed.Sprint("FAIL")
			}
			t.AppendRow(table.Row{mark, res.Expression, res.Reason})
		}
		t.Render()

		if decision.Allowed {
			color.Green("ALLOW")
			return nil
		}
		color.Red("DENY: %s", decision.Reason)
		os.Exit(1)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyValidateCmd)
	policyCmd.AddCommand(policyCheckCmd)

	policyCheckCmd.Flags().String("policy", "", "Name of the policy to evaluate")
	policyCheckCmd.Flags().String("subject", "", "Subject claim for the test claim set")
	policyCheckCmd.Flags().StringArray("role", nil, "Role claim (repeatable)")
	policyCheckCmd.Flags().StringArray("claim", nil, "Attribute claim as type=value (repeatable)")
}
