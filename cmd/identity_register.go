package cmd

import (
	"github.com/spf13/cobra"

	"github.com/darmiel/vigil/internal/service"
)

var registerReq service.RegisterRequest

var identityRegisterCmd = &cobra.Command{
	Use:   "register ENTITY-ID",
	Short: "Register or refresh a network identity",
	Long: `Registers a new entity or refreshes an existing one. The server scores the
	entity and assigns an initial trust level based on its zone and reputation.`,
	Example: `  vigil identity register web-01 --ip 10.0.0.15 --zone dmz --fingerprint sha256:ab12...`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registerReq.EntityID = args[0]

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		ident, correlation, err := cli.Register(cmd.Context(), registerReq)
		if err != nil {
			return logError(err, correlation, "registration failed")
		}

		logSuccess("registered %s (zone: %s, trust: %s, risk: %.2f)",
			bold(ident.EntityID), ident.Zone, ident.TrustLevel, ident.RiskScore)
		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityRegisterCmd)

	identityRegisterCmd.Flags().StringVar(&registerReq.IPAddress, "ip", "", "IP address of the entity")
	identityRegisterCmd.Flags().StringVar(&registerReq.MACAddress, "mac", "", "MAC address (optional)")
	identityRegisterCmd.Flags().StringVar(&registerReq.DeviceFingerprint, "fingerprint", "", "Device fingerprint")
	identityRegisterCmd.Flags().StringVar(&registerReq.Zone, "zone", "", "Zone the entity claims to live in")

	_ = identityRegisterCmd.MarkFlagRequired("ip")
	_ = identityRegisterCmd.MarkFlagRequired("zone")
	_ = identityRegisterCmd.MarkFlagRequired("fingerprint")
}
