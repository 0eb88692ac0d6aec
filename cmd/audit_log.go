package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/vigil/pkg/client"
)

var (
	auditLimit      int
	auditEntity     string
	auditDeniedOnly bool
)

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	Example: `  # the last 25 entries
  vigil audit log

  # denied requests of a specific entity
  vigil audit log --entity web-01 --denied`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:      uint(auditLimit),
			EntityID:   auditEntity,
			DeniedOnly: auditDeniedOnly,
		})
		if err != nil {
			return logError(err, correlation, "fetching audit log failed")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := newTable(table.Row{"Time", "Action", "Entity", "Destination", "Decision", "Reason"})

		for _, e := range audits {
			decision := color.GreenString("granted")
			if !e.Granted {
				decision = color.RedString("denied")
			}

			dest := ""
			if e.DestinationIP != "" {
				dest = fmt.Sprintf("%s:%d", e.DestinationIP, e.DestinationPort)
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				truncate(e.EntityID, 35),
				dest,
				decision,
				string(e.Reason),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().IntVarP(&auditLimit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditEntity, "entity", "", "Only show entries of this entity")
	auditLogCmd.Flags().BoolVar(&auditDeniedOnly, "denied", false, "Only show denied requests")
}
