package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/abhisek/skillscope/internal/adaptive"
	"github.com/abhisek/skillscope/internal/cache"
	"github.com/abhisek/skillscope/internal/config"
	"github.com/abhisek/skillscope/internal/store"
	"github.com/spf13/cobra"
)

// app bundles what a command needs to talk to the profile engine.
type app struct {
	cfg    *config.Config
	store  *store.Store
	svc    *adaptive.Service
	logger *log.Logger
}

func (a *app) Close() {
	a.svc.Close()
	a.store.Close()
}

// openApp loads config, opens the store and cache, and builds the service.
func openApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger := log.New(os.Stderr, "skillscope: ", log.LstdFlags)
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		logger = adaptive.DiscardLogger()
	}

	retry := adaptive.DefaultRetryConfig()
	retry.MaxRetries = cfg.ConflictRetries

	opts := adaptive.Options{
		Ledger:   st.Attempts(),
		Profiles: st.Profiles(),
		Logger:   logger,
		Retry:    &retry,
	}

	if cfg.CacheEnabled() {
		c, err := cache.NewRedis(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Profile cache not available:", err)
			fmt.Fprintln(os.Stderr, "Profiles will be read from the database.")
		} else {
			opts.Cache = c
		}
	}

	return &app{cfg: cfg, store: st, svc: adaptive.NewService(opts), logger: logger}, nil
}
