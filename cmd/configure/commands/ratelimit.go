package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/middleware"
	"github.com/enp09/duende/internal/models"
)

// NewRatelimitCmd manages the per-client API rate stored in ratelimit_config.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Show or change the API rate limit",
		Long: "The API limits each client IP to a rate in <count>-<S|M|H|D> form, e.g. 100-M.\n" +
			"Running servers pick up a new rate within a minute.",
	}
	cmd.AddCommand(newRatelimitListCmd(), newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the stored rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return err
			}
			printRatelimit(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func printRatelimit(w io.Writer, c *models.RatelimitConfig) {
	if c == nil {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("No rate stored; servers seed %s on start.", middleware.DefaultRate)))
		return
	}
	rate, err := limiter.NewRateFromFormatted(c.Rate)
	fmt.Fprintln(w, headingStyle.Render("API rate limit"))
	if err != nil {
		fmt.Fprintf(w, "  %s (invalid, servers fall back to %s)\n", c.Rate, middleware.DefaultRate)
	} else {
		fmt.Fprintf(w, "  %s  %d requests per %s per client\n", c.Rate, rate.Limit, rate.Period)
	}
	fmt.Fprintln(w, mutedStyle.Render("  updated "+c.UpdatedAt.Format(time.RFC3339)))
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a new rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := validateRate(rate)
			if err != nil {
				return err
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.NewRatelimitConfigRepository(db).Set(cmd.Context(), &models.RatelimitConfig{Rate: normalized}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Rate limit set to "+normalized))
			return nil
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "rate such as 5-S, 100-M or 1000-H (required)")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

// validateRate trims raw and checks it parses as a limiter rate with a positive count.
func validateRate(raw string) (string, error) {
	rate := strings.TrimSpace(raw)
	if rate == "" {
		return "", errors.New("--rate is required (e.g. 5-S, 100-M)")
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return "", fmt.Errorf("invalid --rate %q: %w", rate, err)
	}
	if parsed.Limit <= 0 {
		return "", fmt.Errorf("invalid --rate %q: count must be positive", rate)
	}
	return rate, nil
}
