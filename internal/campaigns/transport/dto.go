// Package transport defines the request and response shapes of the campaigns API.
package transport

import (
	"strconv"
	"time"

	"outreach_backend/internal/campaigns/domain"
	leaddomain "outreach_backend/internal/leads/domain"
	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
)

// ContextRequest is the user-provided generation context.
type ContextRequest struct {
	CompanyName        string `json:"companyName" validate:"required,max=200"`
	ProductDescription string `json:"productDescription" validate:"required,max=2000"`
	ProblemStatement   string `json:"problemStatement" validate:"max=2000"`
	CallToAction       string `json:"callToAction" validate:"required,max=500"`
	Tone               string `json:"tone" validate:"required,oneof=Professional Casual Direct"`
}

// ToDomain converts the request context.
func (r ContextRequest) ToDomain() domain.Context {
	return domain.Context{
		CompanyName:        r.CompanyName,
		ProductDescription: r.ProductDescription,
		ProblemStatement:   r.ProblemStatement,
		CallToAction:       r.CallToAction,
		Tone:               domain.Tone(r.Tone),
	}
}

// LeadFilterRequest narrows the targeted lead set of a campaign. All fields
// optional; an absent filter targets every active lead in the tenant.
type LeadFilterRequest struct {
	Status        string     `json:"status"`
	Source        string     `json:"source"`
	CompanyName   string     `json:"companyName"`
	MinScore      *int       `json:"minScore"`
	MaxScore      *int       `json:"maxScore"`
	CreatedAfter  *time.Time `json:"createdAfter"`
	CreatedBefore *time.Time `json:"createdBefore"`
	Search        string     `json:"search"`
}

// ToDomain converts the filter into the leads module's filter type.
func (r *LeadFilterRequest) ToDomain() *leaddomain.Filter {
	if r == nil {
		return nil
	}
	filter := &leaddomain.Filter{
		MinScore:      r.MinScore,
		MaxScore:      r.MaxScore,
		CreatedAfter:  r.CreatedAfter,
		CreatedBefore: r.CreatedBefore,
	}
	if r.Status != "" {
		status := leaddomain.Status(r.Status)
		filter.Status = &status
	}
	if r.Source != "" {
		source := leaddomain.Source(r.Source)
		filter.Source = &source
	}
	if r.CompanyName != "" {
		filter.CompanyName = &r.CompanyName
	}
	if r.Search != "" {
		filter.Search = &r.Search
	}
	return filter
}

// CreateCampaignRequest creates a campaign and runs position-1 generation for
// every targeted lead.
type CreateCampaignRequest struct {
	Name      string `json:"name" binding:"required" validate:"required,max=200"`
	FromEmail string `json:"fromEmail" binding:"required" validate:"required,email"`

	Context ContextRequest `json:"context" binding:"required"`

	// Delays maps the 1-based sequence position to a day offset, e.g.
	// {"1": 0, "2": 3, "3": 7}.
	Delays map[string]int `json:"delays" binding:"required"`

	MaxSequenceLength int        `json:"maxSequenceLength" validate:"omitempty,min=1,max=4"`
	ScheduledStart    *time.Time `json:"scheduledStart"`

	LeadFilter *LeadFilterRequest `json:"leadFilter"`
}

// DomainDelays converts the string-keyed wire delays to the domain type.
func (r CreateCampaignRequest) DomainDelays() (domain.Delays, error) {
	delays := make(domain.Delays, len(r.Delays))
	for key, days := range r.Delays {
		pos, err := strconv.Atoi(key)
		if err != nil {
			return nil, apperr.Validation("delay position " + key + " is not a number")
		}
		delays[pos] = days
	}
	return delays, nil
}

// UpdateCampaignRequest mutates a draft campaign. Nil fields are untouched.
type UpdateCampaignRequest struct {
	Name              *string         `json:"name" validate:"omitempty,max=200"`
	Context           *ContextRequest `json:"context"`
	Delays            map[string]int  `json:"delays"`
	MaxSequenceLength *int            `json:"maxSequenceLength" validate:"omitempty,min=1,max=4"`
	ScheduledStart    *time.Time      `json:"scheduledStart"`
}

// ListCampaignsQuery filters and paginates campaign listings.
type ListCampaignsQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	IsActive *bool  `form:"isActive"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// GenerationSummary reports the batch outcome of campaign creation.
type GenerationSummary struct {
	Targeted  int `json:"targeted"`
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
}

// CampaignResponse is a campaign as returned by the API.
type CampaignResponse struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`
	OwnerID  uuid.UUID `json:"ownerId"`

	Name string `json:"name"`

	Context struct {
		CompanyName        string `json:"companyName"`
		ProductDescription string `json:"productDescription"`
		ProblemStatement   string `json:"problemStatement,omitempty"`
		CallToAction       string `json:"callToAction"`
		Tone               string `json:"tone"`
	} `json:"context"`

	Delays map[string]int `json:"delays"`

	MaxSequenceLength int        `json:"maxSequenceLength"`
	Status            string     `json:"status"`
	IsActive          bool       `json:"isActive"`
	ScheduledStart    *time.Time `json:"scheduledStart,omitempty"`

	Generation *GenerationSummary `json:"generation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToCampaignResponse maps a domain campaign onto the API shape.
func ToCampaignResponse(c *domain.Campaign, summary *GenerationSummary) CampaignResponse {
	resp := CampaignResponse{
		ID:                c.ID,
		TenantID:          c.TenantID,
		OwnerID:           c.OwnerID,
		Name:              c.Name,
		Delays:            make(map[string]int, len(c.Delays)),
		MaxSequenceLength: c.MaxSequenceLength,
		Status:            string(c.Status),
		IsActive:          c.IsActive,
		ScheduledStart:    c.ScheduledStart,
		Generation:        summary,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	resp.Context.CompanyName = c.Context.CompanyName
	resp.Context.ProductDescription = c.Context.ProductDescription
	resp.Context.ProblemStatement = c.Context.ProblemStatement
	resp.Context.CallToAction = c.Context.CallToAction
	resp.Context.Tone = string(c.Context.Tone)
	for pos, days := range c.Delays {
		resp.Delays[strconv.Itoa(pos)] = days
	}
	return resp
}

// CampaignListResponse is a paginated campaign list.
type CampaignListResponse struct {
	Campaigns  []CampaignResponse `json:"campaigns"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// EmailResponse is one campaign email row.
type EmailResponse struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaignId"`
	LeadID     uuid.UUID `json:"leadId"`

	FromEmail string `json:"fromEmail"`
	Provider  string `json:"provider,omitempty"`

	SequencePosition int    `json:"sequencePosition"`
	Subject          string `json:"subject,omitempty"`
	Body             string `json:"body,omitempty"`

	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	ScheduledSendAt *time.Time `json:"scheduledSendAt,omitempty"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	OpenedAt        *time.Time `json:"openedAt,omitempty"`
	RepliedAt       *time.Time `json:"repliedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToEmailResponse maps a domain email onto the API shape.
func ToEmailResponse(e *domain.CampaignEmail) EmailResponse {
	return EmailResponse{
		ID:               e.ID,
		CampaignID:       e.CampaignID,
		LeadID:           e.LeadID,
		FromEmail:        e.FromEmail,
		Provider:         e.Provider,
		SequencePosition: e.SequencePosition,
		Subject:          e.Subject,
		Body:             e.Body,
		Status:           string(e.Status),
		ErrorMessage:     e.ErrorMessage,
		ScheduledSendAt:  e.ScheduledSendAt,
		SentAt:           e.SentAt,
		OpenedAt:         e.OpenedAt,
		RepliedAt:        e.RepliedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// CampaignStatsResponse tallies a campaign's email rows per status.
type CampaignStatsResponse struct {
	CampaignID uuid.UUID      `json:"campaignId"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
}

// PreviewEmailRequest generates a one-off email for a single lead without
// persisting anything.
type PreviewEmailRequest struct {
	Context ContextRequest `json:"context" binding:"required"`
}

// PreviewEmailResponse is the generated draft.
type PreviewEmailResponse struct {
	LeadID  uuid.UUID `json:"leadId"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}
