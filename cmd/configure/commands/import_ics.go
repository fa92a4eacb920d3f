package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/services/calendar"
	"github.com/enp09/duende/internal/validation"
)

// NewImportICSCmd creates the import-ics command, which loads an iCalendar file into a
// user's stored events.
func NewImportICSCmd() *cobra.Command {
	var userFlag, file string
	var days int
	var debug bool
	cmd := &cobra.Command{
		Use:   "import-ics",
		Short: "Import events from an .ics file",
		Long:  "Expand the events of an iCalendar file over the next --days days and store them for --user.",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := validation.ParseUserID(userFlag)
			if err != nil {
				return err
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			log, err := logger.NewCLILogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			svc := calendar.NewSyncService(
				database.NewUserRepository(db),
				database.NewCalendarEventRepository(db),
				nil,
				time.Duration(days)*24*time.Hour,
				nil,
				log,
			)
			n, err := svc.Import(cmd.Context(), userID, calendar.NewICSProvider(data))
			if err != nil {
				return err
			}
			log.Debug("ics_imported", zap.String("file", file), zap.Int("events", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d events.\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&file, "file", "", "Path to .ics file (required)")
	cmd.Flags().IntVar(&days, "days", 7, "Days ahead to expand recurring events")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
