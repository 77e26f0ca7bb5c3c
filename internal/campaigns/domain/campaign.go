// Package domain contains the campaign entities and the pure rules that
// govern them: delay validation, the email state machine, provider detection
// and send-time computation.
package domain

import (
	"fmt"
	"sort"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// Status is the campaign lifecycle status.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid reports whether s is a known campaign status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusInactive:
		return true
	}
	return false
}

// Tone constrains the writing style of generated emails.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneCasual       Tone = "Casual"
	ToneDirect       Tone = "Direct"
)

// IsValid reports whether t is a known tone.
func (t Tone) IsValid() bool {
	switch t {
	case ToneProfessional, ToneCasual, ToneDirect:
		return true
	}
	return false
}

// Context is the user-provided generation context for a campaign.
type Context struct {
	CompanyName        string `json:"company_name"`
	ProductDescription string `json:"product_description"`
	ProblemStatement   string `json:"problem_statement"`
	CallToAction       string `json:"call_to_action"`
	Tone               Tone   `json:"tone"`
}

// Validate checks the generation context.
func (c Context) Validate() error {
	if c.Tone != "" && !c.Tone.IsValid() {
		return apperr.Validation("tone must be one of Professional, Casual, Direct")
	}
	return nil
}

// MaxSequenceLength bounds how many emails one campaign sequence may hold.
const MaxSequenceLength = 4

// Delays maps a 1-based sequence position to a day offset from the campaign's
// scheduled start.
type Delays map[int]int

// Validate enforces the delay invariants: positions within 1..maxLen,
// position 1 present, non-negative offsets, and offsets non-decreasing with
// position.
func (d Delays) Validate(maxLen int) error {
	if len(d) == 0 {
		return apperr.Validation("delays must define at least position 1")
	}
	if _, ok := d[1]; !ok {
		return apperr.Validation("delays must define position 1")
	}

	positions := make([]int, 0, len(d))
	for pos, days := range d {
		if pos < 1 || pos > maxLen {
			return apperr.Validation(fmt.Sprintf("delay position %d outside 1..%d", pos, maxLen))
		}
		if days < 0 {
			return apperr.Validation(fmt.Sprintf("delay for position %d is negative", pos))
		}
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	prev := -1
	for _, pos := range positions {
		if d[pos] < prev {
			return apperr.Validation(fmt.Sprintf("delay for position %d decreases from the previous position", pos))
		}
		prev = d[pos]
	}
	return nil
}

// DelayFor returns the day offset for a position.
func (d Delays) DelayFor(position int) (int, bool) {
	days, ok := d[position]
	return days, ok
}

// Campaign is a tenant-scoped outreach sequence definition.
type Campaign struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	OwnerID  uuid.UUID

	Name    string
	Context Context
	Delays  Delays

	MaxSequenceLength int
	Status            Status
	IsActive          bool
	ScheduledStart    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMutable reports whether non-status fields may still change. Everything
// other than status and active transitions is frozen once the campaign
// leaves draft.
func (c *Campaign) IsMutable() bool {
	return c.Status == StatusDraft
}

// ScheduledSendTime computes when the email at the given position should go
// out: the campaign's scheduled start plus the position's delay in days.
func (c *Campaign) ScheduledSendTime(position int) (time.Time, error) {
	if c.ScheduledStart == nil {
		return time.Time{}, apperr.Validation("campaign has no scheduled start")
	}
	days, ok := c.Delays.DelayFor(position)
	if !ok {
		return time.Time{}, apperr.Validation(fmt.Sprintf("no delay configured for position %d", position))
	}
	return c.ScheduledStart.AddDate(0, 0, days), nil
}
