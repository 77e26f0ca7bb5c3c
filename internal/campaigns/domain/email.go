package domain

import (
	"strings"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// EmailStatus tracks one email through the generation and sending pipeline.
type EmailStatus string

const (
	EmailPending   EmailStatus = "pending"
	EmailGenerated EmailStatus = "generated"
	EmailScheduled EmailStatus = "scheduled"
	EmailSent      EmailStatus = "sent"
	EmailFailed    EmailStatus = "failed"
	EmailBounced   EmailStatus = "bounced"
)

// IsValid reports whether s is a known email status.
func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailPending, EmailGenerated, EmailScheduled, EmailSent, EmailFailed, EmailBounced:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition may leave s.
func (s EmailStatus) IsTerminal() bool {
	return s == EmailFailed || s == EmailBounced
}

// emailTransitions is the full transition table. No transition skips a state;
// failed is reachable until the email is sent, bounced only after sent.
var emailTransitions = map[EmailStatus][]EmailStatus{
	EmailPending:   {EmailGenerated, EmailFailed},
	EmailGenerated: {EmailScheduled, EmailFailed},
	EmailScheduled: {EmailSent, EmailFailed},
	EmailSent:      {EmailBounced},
}

// Transition validates a state change and returns the new status.
func Transition(from, to EmailStatus) (EmailStatus, error) {
	for _, allowed := range emailTransitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, apperr.Validation("invalid email status transition from " + string(from) + " to " + string(to))
}

// CampaignEmail is one message instance: one lead at one sequence position
// within one campaign. A row exists even when generation failed, so the
// pipeline's output size always matches its input size.
type CampaignEmail struct {
	ID         uuid.UUID
	CampaignID uuid.UUID
	LeadID     uuid.UUID

	FromEmail string
	Provider  string

	SequencePosition int
	Subject          string
	Body             string

	Status       EmailStatus
	ErrorMessage string

	ScheduledSendAt *time.Time
	SentAt          *time.Time
	OpenedAt        *time.Time
	RepliedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSent reports whether the email left the system.
func (e *CampaignEmail) IsSent() bool {
	return e.Status == EmailSent || e.Status == EmailBounced
}

// DetectProvider classifies a sending address by its domain. Unknown domains
// are treated as custom infrastructure.
func DetectProvider(fromEmail string) string {
	at := strings.LastIndex(fromEmail, "@")
	if at < 0 || at == len(fromEmail)-1 {
		return ""
	}
	switch strings.ToLower(fromEmail[at+1:]) {
	case "gmail.com", "googlemail.com":
		return "gmail"
	case "outlook.com", "hotmail.com", "live.com":
		return "outlook"
	case "yahoo.com":
		return "yahoo"
	default:
		return "custom"
	}
}
