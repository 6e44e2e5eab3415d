package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/countdown/internal/api/auth"
)

var (
	tokenShop string
	tokenTTL  time.Duration
)

// tokenCmd mints admin API tokens
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin API token for a shop",
	Long: `Mint a bearer token for the administrative timer API.

The token is signed with the server secret, read from
COUNTDOWN_AUTH_JWT_SECRET, and is scoped to one shop.

Example:
  countdownctl token --shop my-shop.myshopify.com --ttl 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("COUNTDOWN_AUTH_JWT_SECRET")
		if secret == "" {
			return fmt.Errorf("COUNTDOWN_AUTH_JWT_SECRET environment variable is required")
		}

		svc := auth.NewJWTService([]byte(secret), tokenTTL)
		token, err := svc.GenerateToken(tokenShop)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"access_token": token,
				"token_type":   "Bearer",
				"expires_in":   int(svc.TTL().Seconds()),
				"shop":         tokenShop,
			})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenShop, "shop", "", "shop the token is scoped to (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("shop")

	rootCmd.AddCommand(tokenCmd)
}
