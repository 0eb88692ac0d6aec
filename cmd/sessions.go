package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Inspect access sessions",
	Long:    `View active sessions on the server. Requires an authenticated session (vigil login).`,
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving sessions...")
		sessions, correlation, err := cli.ListActiveSessions(cmd.Context())
		if err != nil {
			return logError(err, correlation, "listing sessions failed")
		}

		t := newTable(table.Row{"Session", "Entity", "Destination", "Policy", "Expires"})

		for _, s := range sessions {
			t.AppendRow(table.Row{
				truncate(s.SessionID, 20),
				bold(truncate(s.SourceEntity, 35)),
				fmt.Sprintf("%s:%d", s.DestinationIP, s.DestinationPort),
				s.PolicyID,
				"in " + time.Until(s.ExpiresAt).Round(time.Second).String(),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:     "show SESSION-ID",
	Aliases: []string{"get"},
	Short:   "Show details of a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		resp, correlation, err := cli.GetSession(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "retrieving session failed")
		}

		state := color.GreenString("active")
		if !resp.Active {
			state = color.RedString("expired")
		}

		fmt.Println(bold("\n── Session ──"))
		printKV("Session ID", resp.Session.SessionID)
		printKV("State", state)
		printKV("Entity", bold(resp.Session.SourceEntity))
		printKV("Destination", fmt.Sprintf("%s:%d", resp.Session.DestinationIP, resp.Session.DestinationPort))
		printKV("Policy", resp.Session.PolicyID)
		printKV("Created", resp.Session.CreatedAt.Local().Format(time.RFC1123))
		printKV("Expires", resp.Session.ExpiresAt.Local().Format(time.RFC1123))
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}
