package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var (
	mintKey string
	mintTTL time.Duration
	mintSub string
)

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint an admin token",
	Long: `Mints an HMAC-signed admin token for the server's admin routes.
	The key must match the server's --admin-key (or VIGIL_ADMIN_KEY).`,
	Example: `  vigil token mint --key "$VIGIL_ADMIN_KEY" --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   mintSub,
			"roles": []string{"admin"},
			"iat":   now.Unix(),
			"exp":   now.Add(mintTTL).Unix(),
		})

		signed, err := token.SignedString([]byte(mintKey))
		if err != nil {
			return fmt.Errorf("signing token: %w", err)
		}

		fmt.Println(signed)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenMintCmd)

	tokenMintCmd.Flags().StringVar(&mintKey, "key", "", "HMAC signing key (must match the server)")
	tokenMintCmd.Flags().DurationVar(&mintTTL, "ttl", time.Hour, "Token lifetime")
	tokenMintCmd.Flags().StringVar(&mintSub, "sub", "cli", "Token subject")

	_ = tokenMintCmd.MarkFlagRequired("key")
}
