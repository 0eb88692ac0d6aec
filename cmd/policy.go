package cmd

import (
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:     "policy",
	Aliases: []string{"policies"},
	Short:   "Manage network policies",
	Long:    `List, add and remove the allow-rules between zones. Requires an authenticated session (vigil login).`,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
