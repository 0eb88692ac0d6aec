package cmd

import (
	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:     "identity",
	Aliases: []string{"identities", "id"},
	Short:   "Manage network identities",
	Long:    `Register, inspect and adjust the trust of network identities. Most subcommands require an authenticated session (vigil login).`,
}

func init() {
	rootCmd.AddCommand(identityCmd)
}
