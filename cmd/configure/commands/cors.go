package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

// NewCorsCmd creates the cors configuration command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update CORS allowed origins and options. The server reloads them every minute.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if c == nil {
				fmt.Fprintln(out, "No CORS configuration in database; FRONTEND_URL is used. Use 'cors set' to add one.")
				return nil
			}
			fmt.Fprintln(out, "CORS configuration:")
			for _, origin := range database.AllowedOriginsSlice(c.AllowedOrigins) {
				fmt.Fprintf(out, "  Origin: %s\n", origin)
			}
			fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
			fmt.Fprintf(out, "  Max-Age: %d\n", c.MaxAge)
			return nil
		},
	}
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOrigins(origins); err != nil {
				return err
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must not be negative")
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			c := &models.CorsConfig{
				AllowedOrigins:   origins,
				AllowCredentials: allowCreds,
				MaxAge:           maxAge,
			}
			if err := database.NewCorsConfigRepository(db).Set(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}

// validateOrigins requires at least one http(s) origin and rejects wildcards.
func validateOrigins(raw string) error {
	origins := database.AllowedOriginsSlice(raw)
	if len(origins) == 0 {
		return fmt.Errorf("--origins is required (comma-separated list)")
	}
	for _, o := range origins {
		if o == "*" {
			return fmt.Errorf("wildcard origin is not allowed with credentials")
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("origin %q must start with http:// or https://", o)
		}
	}
	return nil
}
