// Package ai drafts the short messages sent on a user's behalf when their calendar
// crosses a wellbeing threshold.
package ai

import (
	"context"
	"fmt"

	"github.com/enp09/duende/internal/models"
)

// MessageContext carries what a message generator needs to know about a violation.
type MessageContext struct {
	UserName             string
	ViolationType        models.ViolationType
	ViolationDescription string
	SuggestedAction      string
	RecipientName        string
	RecipientEmail       string
	MeetingTitle         string
}

// MessageGenerator produces the two message variants for a violation.
type MessageGenerator interface {
	// GenerateAdvocacyMessage drafts an email sent to someone else on the user's behalf.
	GenerateAdvocacyMessage(ctx context.Context, mc MessageContext) (string, error)
	// GenerateThresholdAlert drafts a short alert addressed to the user.
	GenerateThresholdAlert(ctx context.Context, mc MessageContext) (string, error)
}

// Messages holds both drafts for one suggestion.
type Messages struct {
	Advocacy string `json:"advocacy"`
	Alert    string `json:"alert"`
}

// ContextForSuggestion builds a MessageContext from a stored suggestion. The user's
// name is the local part of their email; the recipient name is derived the same way
// and defaults to "there".
func ContextForSuggestion(user *models.User, s *models.Suggestion, recipientEmail string) MessageContext {
	mc := MessageContext{
		UserName:             models.LocalPart(user.Email),
		ViolationType:        s.Type,
		ViolationDescription: s.Description,
		SuggestedAction:      s.Reasoning,
		RecipientName:        "there",
		RecipientEmail:       recipientEmail,
	}
	if recipientEmail != "" {
		mc.RecipientName = models.LocalPart(recipientEmail)
	}
	if len(s.AffectedEvents) == 1 {
		mc.MeetingTitle = s.AffectedEvents[0]
	}
	return mc
}

// GenerateMessages produces both drafts. The advocacy message is generated first.
func GenerateMessages(ctx context.Context, gen MessageGenerator, mc MessageContext) (*Messages, error) {
	advocacy, err := gen.GenerateAdvocacyMessage(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate advocacy message: %w", err)
	}
	alert, err := gen.GenerateThresholdAlert(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to generate threshold alert: %w", err)
	}
	return &Messages{Advocacy: advocacy, Alert: alert}, nil
}
