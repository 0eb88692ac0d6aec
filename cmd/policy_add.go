package cmd

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/darmiel/vigil/internal/core"
)

var policyFile string

var policyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a policy from a YAML file",
	Long: `Reads a single policy definition from a YAML file and installs it on the
	server. The new policy is matched after all existing ones.`,
	Example: `  vigil policy add --file policy.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(policyFile)
		if err != nil {
			return fmt.Errorf("reading policy file: %w", err)
		}

		var p core.NetworkPolicy
		if err := yaml.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("parsing policy file: %w", err)
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		created, correlation, err := cli.AddPolicy(cmd.Context(), p)
		if err != nil {
			return logError(err, correlation, "adding policy failed")
		}

		logSuccess("added policy %s (%s -> %s)", bold(created.PolicyID), created.SourceZone, created.DestinationZone)
		return nil
	},
}

var policyRemoveCmd = &cobra.Command{
	Use:     "remove POLICY-ID",
	Aliases: []string{"rm"},
	Short:   "Remove a policy",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		correlation, err := cli.RemovePolicy(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "removing policy failed")
		}

		logSuccess("removed policy %s", bold(args[0]))
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyAddCmd)
	policyCmd.AddCommand(policyRemoveCmd)

	policyAddCmd.Flags().StringVarP(&policyFile, "file", "f", "", "YAML file with the policy definition")
	_ = policyAddCmd.MarkFlagRequired("file")
}
