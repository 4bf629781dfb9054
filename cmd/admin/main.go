package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/apparel-storefront/internal/config"
	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/ratelimit"
	"github.com/fairyhunter13/apparel-storefront/internal/repository"
	"github.com/fairyhunter13/apparel-storefront/internal/service"
	"github.com/fairyhunter13/apparel-storefront/pkg/database"
)

var Version = "dev"

// promoStore is the part of the promo service the CLI drives.
type promoStore interface {
	CreatePromoCode(ctx context.Context, req *model.CreatePromoCodeRequest) (*model.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]model.PromoCode, error)
	DeletePromoCode(ctx context.Context, id uuid.UUID) error
	GetPromoCodeStats(ctx context.Context, couponID uuid.UUID, rng model.StatsRange) (*model.PromoCodeStats, error)
	GetTopPerformingPromoCodes(ctx context.Context, limit int, rng model.StatsRange) ([]model.PromoCodeStats, error)
}

// Connection factories, replaced in tests.
var (
	openDB = func(ctx context.Context) (database.Execer, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load configuration: %w", err)
		}
		pool, err := database.NewPool(ctx, database.PoolOptions{DSN: cfg.DB.DSN(), MaxConns: 2, MaxRetries: 2})
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}

	openStore = func(ctx context.Context) (promoStore, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load configuration: %w", err)
		}
		pool, err := database.NewPool(ctx, database.PoolOptions{DSN: cfg.DB.DSN(), MaxConns: 2, MaxRetries: 2})
		if err != nil {
			return nil, nil, err
		}
		svc := service.NewPromoService(pool,
			repository.NewPromoCodeRepository(pool),
			repository.NewAnalyticsRepository(pool),
			ratelimit.NewSlidingWindow(cfg.RateLimit.PromoLimit, cfg.RateLimit.PromoWindow))
		return svc, pool.Close, nil
	}
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storefront-admin",
		Short:         "Administer the storefront database and promo codes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(promoCmd())
	return rootCmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the storefront tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
