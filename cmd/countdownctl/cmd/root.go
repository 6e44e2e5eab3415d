// Package cmd contains the CLI commands for countdownctl.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose  bool
	output   string
	timezone string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "countdownctl",
	Short: "countdownctl - storefront countdown timer administration",
	Long: `countdownctl manages scheduled countdown timers and previews them
the way a storefront visitor would see them.

Examples:
  # List a shop's timers
  countdownctl timer list --shop my-shop.myshopify.com

  # Mint an admin API token for a shop
  COUNTDOWN_AUTH_JWT_SECRET=... countdownctl token --shop my-shop.myshopify.com

  # Watch the live countdown served by a running server
  countdownctl watch --url http://localhost:8080 --shop my-shop.myshopify.com`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", os.Getenv("COUNTDOWN_SERVER_TIMEZONE"), "zone timer windows are interpreted in (default local)")
}

// location returns the zone selected with --timezone.
func location() (*time.Location, error) {
	if timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	return loc, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-2]) + ".."
}
