package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/service"
)

var (
	whyEntity   string
	whyDest     string
	whyPort     int
	whyProtocol string
)

var whyCmd = &cobra.Command{
	Use:   "why",
	Short: "Explain why an access request is granted or denied",
	Long: `Dry-runs a request through the decision pipeline and returns a trace of
	every step. No session is opened, no audit entry is written.

Note: against a server, this command requires admin privileges.`,
	Example: `  # why can't web-01 reach the database?
  vigil why --entity web-01 --dest 10.0.2.8 --port 5432

  # evaluate locally against a config file
  vigil why -f vigil.yaml --entity web-01 --dest 10.0.2.8 --port 5432`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.VerifyRequest{
			EntityID:        whyEntity,
			DestinationIP:   whyDest,
			DestinationPort: whyPort,
			Protocol:        whyProtocol,
		}

		var trace *access.DecisionTrace
		if f.ConfigPath != "" {
			svc, err := f.GetLocalService(cmd.Context())
			if err != nil {
				return err
			}
			trace, err = svc.Explain(cmd.Context(), req)
			if err != nil {
				return err
			}
		} else {
			if viper.GetString(VigilAddrKey) == "" && f.RemoteAddr == "" {
				return fmt.Errorf("no server configured and no --config given")
			}
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			var correlation string
			trace, correlation, err = cli.Explain(cmd.Context(), req)
			if err != nil {
				return logError(err, correlation, "explain request failed")
			}
		}

		printTrace(trace)
		return nil
	},
}

func printTrace(trace *access.DecisionTrace) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("\n%s for %s -> %s:%d (%s)\n",
		bold("Decision Trace"),
		bold(trace.EntityID),
		trace.DestinationIP, trace.DestinationPort, trace.Protocol)

	if trace.SourceZone != "" || trace.DestinationZone != "" {
		fmt.Printf("%s\n", faint(fmt.Sprintf("zones: %s -> %s", trace.SourceZone, trace.DestinationZone)))
	}

	fmt.Println(faint("---------------------------------------------------"))

	for _, step := range trace.Steps {
		icon := red("✖")
		if step.Passed {
			icon = green("✔")
		}

		fmt.Printf("%s %s\n", icon, bold(string(step.Step)))
		if step.Detail != "" {
			detail := step.Detail
			if step.Passed {
				detail = faint(detail)
			} else {
				detail = yellow(detail)
			}
			fmt.Printf("    ↳ %s\n", detail)
		}
	}

	fmt.Println(faint("---------------------------------------------------"))
	if trace.Granted {
		fmt.Printf("Decision: %s via policy '%s'\n", bold(green("granted")), bold(trace.PolicyID))
	} else {
		fmt.Printf("Decision: %s (%s)\n", bold(red("denied")), trace.Reason)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(whyCmd)

	whyCmd.Flags().StringVar(&whyEntity, "entity", "", "Source entity ID")
	whyCmd.Flags().StringVar(&whyDest, "dest", "", "Destination IP address")
	whyCmd.Flags().IntVar(&whyPort, "port", 0, "Destination port")
	whyCmd.Flags().StringVar(&whyProtocol, "protocol", "tcp", "Protocol (tcp, udp)")
	f.bindConfigFlag(whyCmd.Flags())

	_ = whyCmd.MarkFlagRequired("entity")
	_ = whyCmd.MarkFlagRequired("dest")
	_ = whyCmd.MarkFlagRequired("port")
}
