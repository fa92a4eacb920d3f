package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("clock", validateClock); err != nil {
		panic(fmt.Sprintf("failed to register clock validator: %v", err))
	}
	if err := Validate.RegisterValidation("suggestion_status", validateSuggestionStatus); err != nil {
		panic(fmt.Sprintf("failed to register suggestion_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("weekday", validateWeekday); err != nil {
		panic(fmt.Sprintf("failed to register weekday validator: %v", err))
	}
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, ok := models.ParseWeekday(fl.Field().String())
	return ok
}

// validateClock accepts 24-hour "HH:MM" strings.
func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateSuggestionStatus(fl validator.FieldLevel) bool {
	return ValidateSuggestionStatus(fl.Field().String()) == nil
}

// ValidateSuggestionStatus checks a status a client may move a suggestion to.
// "expired" is set by the system only.
func ValidateSuggestionStatus(value string) error {
	switch models.SuggestionStatus(value) {
	case models.SuggestionStatusPending, models.SuggestionStatusAccepted,
		models.SuggestionStatusDismissed, models.SuggestionStatusSent:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'accepted', 'dismissed', or 'sent')", value)
	}
}

// ParseUserID parses a required user id.
func ParseUserID(value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("user id required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id: %s", value)
	}
	return id, nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
}

// Settings validates user settings with struct tags.
func Settings(s *models.UserSettings) error {
	return Validate.Struct(s)
}

// MaxProtectionBlocks bounds the blocks saved for one week.
const MaxProtectionBlocks = 50

// ProtectionBlocks validates each block's fields and that it ends after it starts.
func ProtectionBlocks(blocks []models.ProtectionBlock) error {
	if len(blocks) > MaxProtectionBlocks {
		return fmt.Errorf("too many protection blocks: %d (max %d)", len(blocks), MaxProtectionBlocks)
	}
	for i := range blocks {
		if err := Validate.Struct(&blocks[i]); err != nil {
			return fmt.Errorf("protection block %d: %w", i, err)
		}
		start, _ := time.Parse("15:04", blocks[i].StartTime)
		end, _ := time.Parse("15:04", blocks[i].EndTime)
		if !end.After(start) {
			return fmt.Errorf("protection block %d: end_time must be after start_time", i)
		}
	}
	return nil
}
