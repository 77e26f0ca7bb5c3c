// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"outreach_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Email    string    `json:"email"`
	Status   string    `json:"status"`
	Score    int       `json:"score"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadReactivated is published when a soft-deleted lead is revived by a
// create with the same email.
type LeadReactivated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Email    string    `json:"email"`
}

func (e LeadReactivated) EventName() string { return "leads.lead.reactivated" }

// LeadStatusChanged is published when a lead transitions between statuses,
// including score-driven qualification.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Campaigns Domain Events
// =============================================================================

// CampaignCreated is published after the generation batch of a new campaign
// completes (successfully or with partial failures).
type CampaignCreated struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Targeted   int       `json:"targeted"`
	Generated  int       `json:"generated"`
	Failed     int       `json:"failed"`
}

func (e CampaignCreated) EventName() string { return "campaigns.campaign.created" }

// CampaignActivated is published when a draft campaign is activated and its
// emails are scheduled for sending.
type CampaignActivated struct {
	BaseEvent
	CampaignID uuid.UUID `json:"campaignId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Scheduled  int       `json:"scheduled"`
}

func (e CampaignActivated) EventName() string { return "campaigns.campaign.activated" }

// EmailSent is published when a scheduled campaign email is handed to the
// outbound mail transport.
type EmailSent struct {
	BaseEvent
	EmailID    uuid.UUID `json:"emailId"`
	CampaignID uuid.UUID `json:"campaignId"`
	LeadID     uuid.UUID `json:"leadId"`
	TenantID   uuid.UUID `json:"tenantId"`
}

func (e EmailSent) EventName() string { return "campaigns.email.sent" }

// EmailBounced is published when a sent email is reported as bounced.
type EmailBounced struct {
	BaseEvent
	EmailID    uuid.UUID `json:"emailId"`
	CampaignID uuid.UUID `json:"campaignId"`
	TenantID   uuid.UUID `json:"tenantId"`
}

func (e EmailBounced) EventName() string { return "campaigns.email.bounced" }
