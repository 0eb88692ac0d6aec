package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var identityShowCmd = &cobra.Command{
	Use:     "show ENTITY-ID",
	Aliases: []string{"get"},
	Short:   "Show full details of a registered identity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		ident, correlation, err := cli.GetIdentity(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "retrieving identity failed")
		}

		risk := fmt.Sprintf("%.2f", ident.RiskScore)
		if ident.RiskScore >= 0.7 {
			risk = color.RedString(risk)
		}

		fmt.Println(bold("\n── Identity ──"))
		printKV("Entity ID", bold(ident.EntityID))
		printKV("Zone", ident.Zone)
		printKV("Trust Level", ident.TrustLevel)
		printKV("Risk Score", risk)

		fmt.Println(bold("\n── Network ──"))
		printKV("IP Address", ident.IPAddress)
		if ident.MACAddress != "" {
			printKV("MAC Address", ident.MACAddress)
		}
		printKV("Fingerprint", truncate(ident.DeviceFingerprint, 48))
		if ident.CertThumbprint != "" {
			printKV("Cert Thumbprint", truncate(ident.CertThumbprint, 48))
		}

		if !ident.LastVerified.IsZero() {
			fmt.Println()
			printKV("Last Verified", ident.LastVerified.Local().Format(time.RFC1123))
		}
		fmt.Println()
		return nil
	},
}

var identityRemoveCmd = &cobra.Command{
	Use:     "remove ENTITY-ID",
	Aliases: []string{"rm"},
	Short:   "Remove a registered identity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		correlation, err := cli.RemoveIdentity(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "removing identity failed")
		}

		logSuccess("removed identity %s", bold(args[0]))
		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identityRemoveCmd)
}
