// Package domain contains the lead entity and the pure business rules that
// operate on it (scoring, reactivation, custom-field constraints).
package domain

import (
	"strings"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusQualified   Status = "qualified"
	StatusContacted   Status = "contacted"
	StatusResponded   Status = "responded"
	StatusConverted   Status = "converted"
	StatusClosed      Status = "closed"
	StatusUnqualified Status = "unqualified"
)

// IsValid reports whether s is a known lead status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusQualified, StatusContacted, StatusResponded,
		StatusConverted, StatusClosed, StatusUnqualified:
		return true
	}
	return false
}

// Source identifies where a lead was acquired.
type Source string

const (
	SourceApollo    Source = "apollo"
	SourceLinkedIn  Source = "linkedin"
	SourceWebsite   Source = "website"
	SourceReferral  Source = "referral"
	SourceColdEmail Source = "cold_email"
	SourceEvent     Source = "event"
	SourceOther     Source = "other"
)

// IsValid reports whether s is a known lead source.
func (s Source) IsValid() bool {
	switch s {
	case SourceApollo, SourceLinkedIn, SourceWebsite, SourceReferral,
		SourceColdEmail, SourceEvent, SourceOther:
		return true
	}
	return false
}

// CustomFields is a free-form attribute bag attached to a lead.
// Keys must not shadow system column names; values are limited to JSON
// scalar types so the bag stays queryable.
type CustomFields map[string]any

// reservedCustomFieldKeys are system field names that custom fields may not
// override.
var reservedCustomFieldKeys = map[string]struct{}{
	"id":         {},
	"tenant_id":  {},
	"created_at": {},
	"updated_at": {},
}

// Validate rejects reserved keys and non-scalar values.
func (cf CustomFields) Validate() error {
	for key, value := range cf {
		if _, reserved := reservedCustomFieldKeys[key]; reserved {
			return apperr.Validation("cannot use '" + key + "' in custom_fields")
		}
		switch value.(type) {
		case string, bool, float64, int, int64, nil:
		default:
			return apperr.Validation("custom_fields['" + key + "'] must be a string, number, boolean or null")
		}
	}
	return nil
}

// Lead is a tenant-scoped prospect record.
type Lead struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	Email       string
	FirstName   string
	LastName    string
	CompanyName string
	JobTitle    string
	Phone       string

	Source    Source
	SourceURL string
	Notes     string

	Status Status
	Score  int

	CustomFields CustomFields

	ContactAttempts int
	LastContactedAt *time.Time
	NextFollowUpAt  *time.Time

	IsDeleted bool
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the name parts, tolerating either being empty.
func (l *Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// IsQualified reports whether the lead has reached qualified status or better.
func (l *Lead) IsQualified() bool {
	return l.Status != StatusNew && l.Status != StatusUnqualified
}

// NormalizeEmail lowercases and trims an email for dedup lookups. All email
// comparisons in the module go through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
