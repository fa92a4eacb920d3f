package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/detector"
	"github.com/enp09/duende/internal/logger"
	"github.com/enp09/duende/internal/models"
	"github.com/enp09/duende/internal/services/analysis"
	"github.com/enp09/duende/internal/validation"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

// report is what `analyze` prints.
type report struct {
	UserID     uuid.UUID          `yaml:"user_id"`
	Config     detector.Config    `yaml:"config"`
	Violations []models.Violation `yaml:"violations"`
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	severity     = map[models.Severity]lipgloss.Style{
		models.SeverityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		models.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			MarginBottom(1)
)

// NewAnalyzeCmd creates the analyze command, a dry run of threshold detection over a
// user's stored events. Nothing is recorded.
func NewAnalyzeCmd() *cobra.Command {
	var userFlag, output string
	var debug bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Preview threshold violations for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := validation.ParseUserID(userFlag)
			if err != nil {
				return err
			}
			if output != outputText && output != outputYAML {
				return fmt.Errorf("--output must be %s or %s", outputText, outputYAML)
			}

			log, err := logger.NewCLILogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			settingsRepo := database.NewSettingsRepository(db)
			svc := analysis.NewService(
				database.NewUserRepository(db),
				settingsRepo,
				database.NewCalendarEventRepository(db),
				database.NewSuggestionRepository(db),
				nil,
				log,
				analysis.Options{Window: cfg.AnalysisWindow(), DefaultLocation: cfg.DefaultLocation()},
			)

			violations, err := svc.Preview(cmd.Context(), userID)
			if err != nil {
				return err
			}
			settings, err := settingsRepo.GetByUserID(cmd.Context(), userID)
			if err != nil {
				return err
			}

			return renderReport(cmd.OutOrStdout(), output, report{
				UserID:     userID,
				Config:     detector.ConfigFromSettings(settings),
				Violations: violations,
			})
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "User ID (required)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or yaml")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func renderReport(w io.Writer, format string, r report) error {
	if format == outputYAML {
		if r.Violations == nil {
			r.Violations = []models.Violation{}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Threshold preview for "+r.UserID.String()) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("max %.1fh meetings/day, %d min buffers, protected lunch %v",
		r.Config.MaxMeetingHoursPerDay, r.Config.BufferMinutes, r.Config.WantsProtectedLunch)) + "\n\n")

	if len(r.Violations) == 0 {
		b.WriteString(okStyle.Render("No violations detected - your calendar looks good!") + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, v := range r.Violations {
		style, ok := severity[v.Severity]
		if !ok {
			style = mutedStyle
		}
		lines := []string{
			style.Render(strings.ToUpper(string(v.Severity))) + "  " + headingStyle.Render(v.Title),
			v.Description,
		}
		if v.SuggestedAction != "" {
			lines = append(lines, "→ "+v.SuggestedAction)
		}
		if len(v.AffectedEvents) > 0 {
			lines = append(lines, mutedStyle.Render("events: "+strings.Join(v.AffectedEvents, ", ")))
		}
		b.WriteString(cardStyle.Render(strings.Join(lines, "\n")) + "\n")
	}
	fmt.Fprintf(&b, "%d violation(s)\n", len(r.Violations))

	_, err := io.WriteString(w, b.String())
	return err
}
