package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/apparel-storefront/internal/model"
	"github.com/fairyhunter13/apparel-storefront/internal/validator"
)

func promoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promo",
		Short: "Manage promo codes",
	}

	cmd.AddCommand(promoCreateCmd())
	cmd.AddCommand(promoListCmd())
	cmd.AddCommand(promoDeleteCmd())
	cmd.AddCommand(promoStatsCmd())
	cmd.AddCommand(promoTopCmd())
	return cmd
}

// withStore opens the promo store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store promoStore) error) error {
	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), store)
}

func promoCreateCmd() *cobra.Command {
	var (
		discountType string
		value        string
		minPurchase  string
		maxDiscount  string
		expires      string
		usageLimit   int
		customerID   string
		inactive     bool
	)

	cmd := &cobra.Command{
		Use:   "create [code]",
		Short: "Create a promo code",
		Example: `  storefront-admin promo create SAVE10 --type percentage --value 10 --min 50 --max 20
  storefront-admin promo create FLAT5 --type fixed --value 5 --limit 100 --expires 2026-12-31T23:59:59Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &model.CreatePromoCodeRequest{
				Code:         args[0],
				DiscountType: model.DiscountType(discountType),
			}

			var err error
			if req.Value, err = decimal.NewFromString(value); err != nil {
				return fmt.Errorf("invalid --value %q: %w", value, err)
			}
			if req.MinPurchase, err = optionalDecimal("min", minPurchase); err != nil {
				return err
			}
			if req.MaxDiscount, err = optionalDecimal("max", maxDiscount); err != nil {
				return err
			}
			if expires != "" {
				t, err := time.Parse(time.RFC3339, expires)
				if err != nil {
					return fmt.Errorf("invalid --expires %q: %w", expires, err)
				}
				req.ExpiresAt = &t
			}
			if cmd.Flags().Changed("limit") {
				if usageLimit < 1 {
					return fmt.Errorf("invalid --limit %d: must be at least 1", usageLimit)
				}
				req.UsageLimit = &usageLimit
			}
			if customerID != "" {
				req.CustomerID = &customerID
			}
			active := !inactive
			req.Active = &active

			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid promo code: %w", err)
			}

			return withStore(cmd, func(ctx context.Context, store promoStore) error {
				promo, err := store.CreatePromoCode(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), promo)
			})
		},
	}

	cmd.Flags().StringVarP(&discountType, "type", "t", string(model.DiscountPercentage), "discount type (percentage, fixed)")
	cmd.Flags().StringVar(&value, "value", "", "discount value, percent or currency amount")
	cmd.Flags().StringVar(&minPurchase, "min", "", "minimum subtotal required")
	cmd.Flags().StringVar(&maxDiscount, "max", "", "cap for percentage discounts")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry timestamp (RFC 3339)")
	cmd.Flags().IntVar(&usageLimit, "limit", 0, "maximum number of completed uses")
	cmd.Flags().StringVar(&customerID, "customer", "", "restrict the code to one customer id")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the code disabled")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func promoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List promo codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store promoStore) error {
				promos, err := store.ListPromoCodes(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), promos)
			})
		},
	}
}

func promoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a promo code and its analytics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid promo code id %q: %w", args[0], err)
			}
			return withStore(cmd, func(ctx context.Context, store promoStore) error {
				if err := store.DeletePromoCode(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				return nil
			})
		},
	}
}

func promoStatsCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "stats [id]",
		Short: "Show usage statistics of a promo code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid promo code id %q: %w", args[0], err)
			}
			rng, err := statsRange(start, end)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store promoStore) error {
				stats, err := store.GetPromoCodeStats(ctx, id, rng)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "only count usage created at or after (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "only count usage created at or before (RFC 3339)")
	return cmd
}

func promoTopCmd() *cobra.Command {
	var (
		start, end string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the promo codes generating the most revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := statsRange(start, end)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store promoStore) error {
				top, err := store.GetTopPerformingPromoCodes(ctx, limit, rng)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), top)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of promo codes")
	cmd.Flags().StringVar(&start, "start", "", "only count usage created at or after (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "only count usage created at or before (RFC 3339)")
	return cmd
}

func optionalDecimal(flag, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid --%s %q: %w", flag, raw, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func statsRange(start, end string) (model.StatsRange, error) {
	var rng model.StatsRange
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return rng, fmt.Errorf("invalid --start %q: %w", start, err)
		}
		rng.Start = &t
	}
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return rng, fmt.Errorf("invalid --end %q: %w", end, err)
		}
		rng.End = &t
	}
	return rng, nil
}
