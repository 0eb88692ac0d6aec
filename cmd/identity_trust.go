package cmd

import (
	"github.com/spf13/cobra"

	"github.com/darmiel/vigil/internal/service"
)

var trustReason string

var identityTrustCmd = &cobra.Command{
	Use:   "trust ENTITY-ID LEVEL",
	Short: "Change an identity's trust level",
	Long: `Elevates or demotes an identity to the given trust level
	(untrusted, basic, authenticated, verified, privileged).
	Demotions require a --reason.`,
	Example: `  vigil identity trust web-01 verified
  vigil identity trust web-01 untrusted --reason "compromised credentials"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		ident, correlation, err := cli.ChangeTrust(cmd.Context(), args[0], service.TrustChangeRequest{
			Level:  args[1],
			Reason: trustReason,
		})
		if err != nil {
			return logError(err, correlation, "changing trust level failed")
		}

		logSuccess("%s is now %s (risk: %.2f)", bold(ident.EntityID), bold(ident.TrustLevel.String()), ident.RiskScore)
		return nil
	},
}

var identityRiskCmd = &cobra.Command{
	Use:   "risk ENTITY-ID SCORE",
	Short: "Overwrite an identity's risk score",
	Long: `Sets the risk score of an identity to a value in [0,1], e.g. from an
	external behavioral detector. The trust level is re-derived from the new score.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := parseScore(args[1])
		if err != nil {
			return err
		}

		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		ident, correlation, err := cli.UpdateRisk(cmd.Context(), args[0], score)
		if err != nil {
			return logError(err, correlation, "updating risk score failed")
		}

		logSuccess("%s now has risk %.2f (trust: %s)", bold(ident.EntityID), ident.RiskScore, ident.TrustLevel)
		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityTrustCmd)
	identityCmd.AddCommand(identityRiskCmd)

	identityTrustCmd.Flags().StringVar(&trustReason, "reason", "", "Reason for the change (required for demotions)")
}
