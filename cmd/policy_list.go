package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var policyListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all policies in match order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving policies...")
		policies, correlation, err := cli.ListPolicies(cmd.Context())
		if err != nil {
			return logError(err, correlation, "listing policies failed")
		}

		t := newTable(table.Row{"#", "Policy", "Zones", "Ports", "Min Trust", "Window", "Session"})

		for i, p := range policies {
			ports := "(deny-all)"
			if len(p.AllowedPorts) > 0 {
				strs := make([]string, len(p.AllowedPorts))
				for j, port := range p.AllowedPorts {
					strs[j] = fmt.Sprintf("%d", port)
				}
				ports = strings.Join(strs, ",")
			}

			window := "always"
			if p.TimeRestriction != nil {
				window = p.TimeRestriction.Start + "-" + p.TimeRestriction.End
			}

			t.AppendRow(table.Row{
				i + 1,
				bold(p.PolicyID),
				fmt.Sprintf("%s -> %s", p.SourceZone, p.DestinationZone),
				ports,
				p.MinTrustLevel,
				window,
				p.SessionTTL().Round(time.Second),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyListCmd)
}
