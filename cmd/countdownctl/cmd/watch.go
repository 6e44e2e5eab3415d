package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/good-yellow-bee/countdown/internal/countdown"
	"github.com/good-yellow-bee/countdown/internal/countdown/term"
)

var (
	watchURL   string
	watchShop  string
	watchPath  string
	watchPlain bool
)

// watchCmd renders a live countdown in the terminal
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a shop's countdown as a storefront visitor sees it",
	Long: `Fetch the shop's current timers once from a running server and render
the first one as a live countdown, updated every second.

Nothing is shown when the shop has no current timer, the request fails or
the timer has already ended. On a terminal the countdown is drawn as a
styled bar; otherwise, or with --plain, one line is printed per second.

Example:
  countdownctl watch --url http://localhost:8080 --shop my-shop.myshopify.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := location()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := countdown.NewClient(watchURL, countdown.WithPath(watchPath))
		opts := []countdown.WidgetOption{countdown.InLocation(loc)}

		out := cmd.OutOrStdout()
		if watchPlain || !isTerminal(out) {
			err = watchPlainText(ctx, out, client, opts)
		} else {
			err = term.Run(ctx, client, watchShop, opts...)
		}
		return hidden(err)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://localhost:8080", "countdown server base URL")
	watchCmd.Flags().StringVar(&watchShop, "shop", "", "shop whose countdown to show (required)")
	watchCmd.Flags().StringVar(&watchPath, "path", countdown.DefaultPath, "storefront endpoint path")
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "print plain lines even on a terminal")
	watchCmd.MarkFlagRequired("shop")

	rootCmd.AddCommand(watchCmd)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && xterm.IsTerminal(int(f.Fd()))
}

func watchPlainText(ctx context.Context, out io.Writer, client *countdown.Client, opts []countdown.WidgetOption) error {
	widget, err := countdown.Load(ctx, client, watchShop, opts...)
	if err != nil {
		return err
	}
	return widget.Run(ctx, term.NewPrinter(out).Render)
}

// hidden turns load failures into a silent exit, the way a storefront
// widget stays hidden. They are still logged for the operator.
func hidden(err error) error {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, countdown.ErrNoTimers):
		slog.Info("no current timer", "shop", watchShop)
		return nil
	}

	var fetchErr *countdown.FetchError
	var malformed *countdown.MalformedResponseError
	if errors.As(err, &fetchErr) || errors.As(err, &malformed) {
		slog.Warn("countdown hidden", "shop", watchShop, "error", err)
		return nil
	}
	return fmt.Errorf("watch: %w", err)
}
