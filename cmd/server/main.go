package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/countdown/internal/api"
	"github.com/good-yellow-bee/countdown/internal/api/health"
	"github.com/good-yellow-bee/countdown/internal/metrics"
	"github.com/good-yellow-bee/countdown/internal/storage"
	"github.com/good-yellow-bee/countdown/internal/timers"
	"github.com/good-yellow-bee/countdown/pkg/config"
)

var (
	configFile string
	httpAddr   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "countdown-server",
	Short: "Countdown Server - storefront countdown timer service",
	Long: `Countdown Server stores scheduled promotion timers per shop and serves
the timers that are current right now to storefront widgets.`,
	SilenceUsage: true,
	RunE:         runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("countdown-server %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.Address = httpAddr
	}
	cfg.Verbose = verbose

	logger, logCloser, err := newLogger(cfg.Log, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Auto-create data directory
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The database is opened on the first request that needs it
	store := storage.NewLazy(storage.NewSQLiteStorage(cfg.Database.Path))
	defer store.Close()

	var repo storage.TimerRepository = store.Timers()
	var redisCache *storage.RedisCache
	if cfg.Cache.RedisURL != "" {
		redisCache, err = storage.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		defer redisCache.Close()
		repo = storage.NewCachedTimerRepository(repo, redisCache, cfg.Cache.TTL)
		logger.Info("timer cache enabled", "ttl", cfg.Cache.TTL)
	}

	svc := timers.NewService(repo, timers.WithLocation(loc))

	srv, err := api.New(&api.Config{
		Address:           cfg.Server.Address,
		JWTSecret:         []byte(cfg.Auth.JWTSecret),
		TokenTTL:          cfg.Auth.TokenTTL,
		HTTPTLSEnabled:    cfg.Server.TLS.Enabled,
		HTTPTLSCertFile:   cfg.Server.TLS.CertFile,
		HTTPTLSKeyFile:    cfg.Server.TLS.KeyFile,
		RateLimitPerIP:    cfg.Server.RateLimitPerIP,
		RateLimitPerShop:  cfg.Server.RateLimitPerShop,
		PublicCacheMaxAge: cfg.Server.PublicCacheMaxAge,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		Verbose:           cfg.Verbose,
		Logger:            logger,
	}, svc)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}
	srv.RegisterHealthChecker(health.NewStorageChecker(store))
	if redisCache != nil {
		srv.RegisterHealthChecker(health.NewRedisChecker(redisCache))
	}

	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	logger.Info("starting countdown-server",
		"version", config.Version,
		"address", cfg.Server.Address,
		"database", cfg.Database.Path,
		"timezone", loc.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Address)
		g.Go(func() error {
			return metricsSrv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
