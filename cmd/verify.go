package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/vigil/internal/access"
	"github.com/darmiel/vigil/internal/service"
)

var (
	verifyEntity   string
	verifyDest     string
	verifyPort     int
	verifyProtocol string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify whether an entity may reach a destination",
	Long: `Runs an access verification against the server, or, with --config,
	against a local configuration file without any server involved.

Note: a granted verification opens a session on the server. Use 'vigil why'
for a side-effect free dry-run.`,
	Example: `  # ask the server
  vigil verify --entity web-01 --dest 10.0.1.5 --port 443

  # evaluate locally against a config file
  vigil verify -f vigil.yaml --entity web-01 --dest 10.0.1.5 --port 443`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.VerifyRequest{
			EntityID:        verifyEntity,
			DestinationIP:   verifyDest,
			DestinationPort: verifyPort,
			Protocol:        verifyProtocol,
		}

		var decision *access.Decision
		if f.ConfigPath != "" {
			svc, err := f.GetLocalService(cmd.Context())
			if err != nil {
				return err
			}
			local, err := svc.Verify(cmd.Context(), req)
			if err != nil {
				return err
			}
			decision = local
		} else {
			if viper.GetString(VigilAddrKey) == "" && f.RemoteAddr == "" {
				return fmt.Errorf("no server configured and no --config given")
			}
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			remote, correlation, err := cli.Verify(cmd.Context(), req)
			if err != nil {
				return logError(err, correlation, "verification request failed")
			}
			decision = remote
		}

		printDecision(decision)
		return nil
	},
}

func printDecision(d *access.Decision) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Println(bold("\n── Access Decision ──"))
	if d.Granted {
		printKV("Decision", green("granted"))
	} else {
		printKV("Decision", red("denied"))
	}
	printKV("Reason", string(d.Reason))
	if d.SourceZone != "" {
		printKV("Source Zone", d.SourceZone)
	}
	if d.DestinationZone != "" {
		printKV("Destination Zone", d.DestinationZone)
	}
	if d.PolicyID != "" {
		printKV("Policy", bold(d.PolicyID))
	}
	if d.Session != nil {
		fmt.Println(bold("\n── Session ──"))
		printKV("Session ID", d.Session.SessionID)
		printKV("Expires", d.Session.ExpiresAt.Local().Format(time.RFC1123))
		printKV("Lifetime", d.Session.ExpiresAt.Sub(d.Session.CreatedAt).String())
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyEntity, "entity", "", "Source entity ID")
	verifyCmd.Flags().StringVar(&verifyDest, "dest", "", "Destination IP address")
	verifyCmd.Flags().IntVar(&verifyPort, "port", 0, "Destination port")
	verifyCmd.Flags().StringVar(&verifyProtocol, "protocol", "tcp", "Protocol (tcp, udp)")
	f.bindConfigFlag(verifyCmd.Flags())

	_ = verifyCmd.MarkFlagRequired("entity")
	_ = verifyCmd.MarkFlagRequired("dest")
	_ = verifyCmd.MarkFlagRequired("port")
}
