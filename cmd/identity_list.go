package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var identityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all registered identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving identities...")
		identities, correlation, err := cli.ListIdentities(cmd.Context())
		if err != nil {
			return logError(err, correlation, "listing identities failed")
		}

		t := newTable(table.Row{"Entity", "Zone", "Trust", "Risk", "IP", "Last Verified"})

		for _, ident := range identities {
			lastVerified := "never"
			if !ident.LastVerified.IsZero() {
				lastVerified = time.Since(ident.LastVerified).Round(time.Second).String() + " ago"
			}

			risk := fmt.Sprintf("%.2f", ident.RiskScore)
			if ident.RiskScore >= 0.7 {
				risk = color.RedString(risk)
			} else if ident.RiskScore >= 0.4 {
				risk = color.YellowString(risk)
			}

			t.AppendRow(table.Row{
				bold(truncate(ident.EntityID, 35)),
				ident.Zone,
				ident.TrustLevel,
				risk,
				ident.IPAddress,
				lastVerified,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	identityCmd.AddCommand(identityListCmd)
}
