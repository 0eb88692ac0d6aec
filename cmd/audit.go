package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Administrative audit commands",
	Long:  `View the server's audit log. Requires an authenticated session (vigil login).`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
