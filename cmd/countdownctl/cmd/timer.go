package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/countdown/internal/models"
	"github.com/good-yellow-bee/countdown/internal/storage"
	"github.com/good-yellow-bee/countdown/internal/timers"
)

// defaultDBPath is the default database path, can be overridden via COUNTDOWN_DATABASE_PATH env var
var defaultDBPath = "./data/countdown.db"

func init() {
	if envPath := os.Getenv("COUNTDOWN_DATABASE_PATH"); envPath != "" {
		defaultDBPath = envPath
	}
}

var (
	timerDBPath     string
	timerShop       string
	timerID         string
	timerActiveOnly bool
	timerAt         string
	timerInput      timers.TimerInput
	timerInactive   bool
)

// timerCmd represents the timer command group
var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Timer management commands",
	Long: `Commands for managing a shop's countdown timers.

These commands operate directly on the database file.

Examples:
  # List all timers of a shop
  countdownctl timer list --shop my-shop

  # Create a timer
  countdownctl timer create --shop my-shop --name "Summer sale" \
    --start-date 2026-07-01 --start-time 09:00 --end-date 2026-07-03 --end-time 21:00

  # Preview what the storefront shows right now
  countdownctl timer current --shop my-shop

  # Temporarily hide a timer
  countdownctl timer disable --shop my-shop --id 550e8400-e29b-41d4-a716-446655440000`,
}

// timerListCmd lists a shop's timers
var timerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a shop's timers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := cmd.Context()
		var list []*models.Timer
		if timerActiveOnly {
			list, err = svc.ListActiveByShop(ctx, timerShop)
		} else {
			list, err = svc.ListByShop(ctx, timerShop)
		}
		if err != nil {
			return fmt.Errorf("list timers: %w", err)
		}
		return printTimers(cmd.OutOrStdout(), list, svc)
	},
}

// timerCurrentCmd previews the resolver
var timerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the timers current for a shop",
	Long: `Show the timers the storefront would receive at this moment, in the
order the storefront receives them. Use --at to evaluate another instant.

Example:
  countdownctl timer current --shop my-shop --at 2026-07-02T12:00:00+02:00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		at := svc.Now()
		if timerAt != "" {
			at, err = time.Parse(time.RFC3339, timerAt)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
		}

		list, err := svc.CurrentTimersAt(cmd.Context(), timerShop, at)
		if err != nil {
			return fmt.Errorf("resolve current timers: %w", err)
		}
		return printTimers(cmd.OutOrStdout(), list, svc)
	},
}

// timerCreateCmd creates a timer
var timerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		in := timerInput
		if cmd.Flags().Changed("inactive") {
			active := !timerInactive
			in.IsActive = &active
		}

		timer, err := svc.Create(cmd.Context(), timerShop, in)
		if err != nil {
			return fmt.Errorf("create timer: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nTimer created successfully:\n")
		return printTimer(cmd.OutOrStdout(), timer, svc)
	},
}

// timerShowCmd shows one timer
var timerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show timer details",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		timer, err := svc.Get(cmd.Context(), timerShop, timerID)
		if err != nil {
			return fmt.Errorf("get timer: %w", err)
		}
		return printTimer(cmd.OutOrStdout(), timer, svc)
	},
}

// timerUpdateCmd replaces fields of a timer
var timerUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a timer",
	Long: `Update a timer. Only the flags given are changed; every other field
keeps its current value.

Example:
  countdownctl timer update --shop my-shop --id <id> --end-time 23:00 --urgency blink`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		ctx := cmd.Context()
		current, err := svc.Get(ctx, timerShop, timerID)
		if err != nil {
			return fmt.Errorf("get timer: %w", err)
		}

		in := mergeInput(current, cmd)
		timer, err := svc.Update(ctx, timerShop, timerID, in)
		if err != nil {
			return fmt.Errorf("update timer: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nTimer updated successfully:\n")
		return printTimer(cmd.OutOrStdout(), timer, svc)
	},
}

// timerDeleteCmd deletes a timer
var timerDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeDB, err := openTimerService()
		if err != nil {
			return err
		}
		defer closeDB()

		deleted, err := svc.Delete(cmd.Context(), timerShop, timerID)
		if err != nil {
			return fmt.Errorf("delete timer: %w", err)
		}
		if deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "Timer %s deleted.\n", timerID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Timer %s not found, nothing to delete.\n", timerID)
		}
		return nil
	},
}

func newToggleCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: strings.ToUpper(use[:1]) + use[1:] + " a timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openTimerService()
			if err != nil {
				return err
			}
			defer closeDB()

			timer, err := svc.SetActive(cmd.Context(), timerShop, timerID, active)
			if err != nil {
				return fmt.Errorf("%s timer: %w", use, err)
			}
			return printTimer(cmd.OutOrStdout(), timer, svc)
		},
	}
}

func init() {
	timerCmd.PersistentFlags().StringVar(&timerDBPath, "db", defaultDBPath, "database file path")
	timerCmd.PersistentFlags().StringVar(&timerShop, "shop", "", "shop that owns the timers (required)")
	timerCmd.MarkPersistentFlagRequired("shop")

	timerListCmd.Flags().BoolVar(&timerActiveOnly, "active", false, "only enabled timers")
	timerCurrentCmd.Flags().StringVar(&timerAt, "at", "", "evaluate at this RFC 3339 instant instead of now")

	for _, c := range []*cobra.Command{timerCreateCmd, timerUpdateCmd} {
		f := c.Flags()
		f.StringVar(&timerInput.Name, "name", "", "timer name")
		f.StringVar(&timerInput.Description, "description", "", "text shown before the countdown")
		f.StringVar(&timerInput.StartDate, "start-date", "", "start date (YYYY-MM-DD)")
		f.StringVar(&timerInput.StartTime, "start-time", "", "start time (HH:MM)")
		f.StringVar(&timerInput.EndDate, "end-date", "", "end date (YYYY-MM-DD)")
		f.StringVar(&timerInput.EndTime, "end-time", "", "end time (HH:MM)")
		f.StringVar(&timerInput.Size, "size", "", "small, medium or large")
		f.StringVar(&timerInput.Position, "position", "", "top or bottom")
		f.StringVar(&timerInput.Urgency, "urgency", "", "none, pulse or blink")
		f.StringVar(&timerInput.Color, "color", "", "background color (#RRGGBB)")
	}
	timerCreateCmd.Flags().BoolVar(&timerInactive, "inactive", false, "create the timer disabled")

	toggles := []*cobra.Command{newToggleCmd("enable", true), newToggleCmd("disable", false)}
	for _, c := range append([]*cobra.Command{timerShowCmd, timerUpdateCmd, timerDeleteCmd}, toggles...) {
		c.Flags().StringVar(&timerID, "id", "", "timer id (required)")
		c.MarkFlagRequired("id")
	}

	timerCmd.AddCommand(timerListCmd, timerCurrentCmd, timerCreateCmd, timerShowCmd, timerUpdateCmd, timerDeleteCmd)
	timerCmd.AddCommand(toggles...)
	rootCmd.AddCommand(timerCmd)
}

// mergeInput starts from the stored timer and applies the flags that were set.
func mergeInput(current *models.Timer, cmd *cobra.Command) timers.TimerInput {
	active := current.IsActive
	in := timers.TimerInput{
		Name:        current.Name,
		Description: current.Description,
		StartDate:   current.StartDate,
		StartTime:   current.StartTime,
		EndDate:     current.EndDate,
		EndTime:     current.EndTime,
		Size:        string(current.Size),
		Position:    string(current.Position),
		Urgency:     string(current.Urgency),
		Color:       current.Color,
		IsActive:    &active,
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("name", &in.Name, timerInput.Name)
	set("description", &in.Description, timerInput.Description)
	set("start-date", &in.StartDate, timerInput.StartDate)
	set("start-time", &in.StartTime, timerInput.StartTime)
	set("end-date", &in.EndDate, timerInput.EndDate)
	set("end-time", &in.EndTime, timerInput.EndTime)
	set("size", &in.Size, timerInput.Size)
	set("position", &in.Position, timerInput.Position)
	set("urgency", &in.Urgency, timerInput.Urgency)
	set("color", &in.Color, timerInput.Color)
	return in
}

// openTimerService opens the database and builds the timer service.
func openTimerService() (*timers.Service, func(), error) {
	loc, err := location()
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewSQLiteStorage(timerDBPath)
	ctx := context.Background()
	if err := store.Open(ctx); err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	svc := timers.NewService(store.Timers(), timers.WithLocation(loc))
	return svc, func() { store.Close() }, nil
}

type timerView struct {
	*models.Timer
	Status models.Status `json:"status"`
}

func printTimers(w io.Writer, list []*models.Timer, svc *timers.Service) error {
	now := svc.Now()
	if output == "json" {
		views := make([]timerView, len(list))
		for i, t := range list {
			views[i] = timerView{Timer: t, Status: t.Status(now, svc.Location())}
		}
		return printJSON(w, views)
	}

	if len(list) == 0 {
		fmt.Fprintln(w, "No timers found.")
		return nil
	}

	fmt.Fprintf(w, "\n%-36s  %-24s  %-16s  %-16s  %-9s  %-7s  %s\n",
		"ID", "NAME", "START", "END", "STATUS", "ACTIVE", "STYLE")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for _, t := range list {
		fmt.Fprintf(w, "%-36s  %-24s  %-16s  %-16s  %-9s  %-7t  %s/%s/%s %s\n",
			t.ID,
			truncate(t.Name, 24),
			t.StartDate+" "+t.StartTime,
			t.EndDate+" "+t.EndTime,
			t.Status(now, svc.Location()),
			t.IsActive,
			t.Size, t.Position, t.Urgency, t.Color,
		)
	}
	fmt.Fprintf(w, "\nTotal: %d timer(s)\n", len(list))
	return nil
}

func printTimer(w io.Writer, t *models.Timer, svc *timers.Service) error {
	status := t.Status(svc.Now(), svc.Location())
	if output == "json" {
		return printJSON(w, timerView{Timer: t, Status: status})
	}

	fmt.Fprintf(w, "  ID:          %s\n", t.ID)
	fmt.Fprintf(w, "  Shop:        %s\n", t.Shop)
	fmt.Fprintf(w, "  Name:        %s\n", t.Name)
	fmt.Fprintf(w, "  Description: %s\n", t.Description)
	fmt.Fprintf(w, "  Window:      %s %s -> %s %s\n", t.StartDate, t.StartTime, t.EndDate, t.EndTime)
	fmt.Fprintf(w, "  Style:       size=%s position=%s urgency=%s color=%s\n", t.Size, t.Position, t.Urgency, t.Color)
	fmt.Fprintf(w, "  Active:      %t\n", t.IsActive)
	fmt.Fprintf(w, "  Status:      %s\n", status)
	fmt.Fprintf(w, "  Created:     %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Updated:     %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
