// Package transport defines the request and response shapes of the leads API.
package transport

import (
	"time"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// CreateLeadRequest is the payload for creating a single lead.
type CreateLeadRequest struct {
	Email       string `json:"email" binding:"required" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	CompanyName string `json:"companyName" validate:"max=200"`
	JobTitle    string `json:"jobTitle" validate:"max=150"`
	Phone       string `json:"phone" validate:"max=32"`

	Source    string `json:"source" validate:"omitempty,oneof=apollo linkedin website referral cold_email event other"`
	SourceURL string `json:"sourceUrl" validate:"omitempty,max=500"`
	Notes     string `json:"notes"`

	CustomFields map[string]any `json:"customFields"`
}

// ToDomainInput converts the request into a domain create input.
func (r CreateLeadRequest) ToDomainInput() domain.CreateInput {
	source := domain.Source(r.Source)
	if r.Source == "" {
		source = domain.SourceOther
	}
	return domain.CreateInput{
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		CompanyName:  r.CompanyName,
		JobTitle:     r.JobTitle,
		Phone:        r.Phone,
		Source:       source,
		SourceURL:    r.SourceURL,
		Notes:        r.Notes,
		CustomFields: domain.CustomFields(r.CustomFields),
	}
}

// BulkCreateLeadsRequest creates up to 100 leads in one call.
type BulkCreateLeadsRequest struct {
	Leads []CreateLeadRequest `json:"leads" binding:"required" validate:"required,min=1,max=100,dive"`
}

// UpdateLeadRequest carries a partial lead update. Nil fields are untouched.
type UpdateLeadRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	FirstName   *string `json:"firstName" validate:"omitempty,max=100"`
	LastName    *string `json:"lastName" validate:"omitempty,max=100"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=200"`
	JobTitle    *string `json:"jobTitle" validate:"omitempty,max=150"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`

	Status *string `json:"status" validate:"omitempty,oneof=new qualified contacted responded converted closed unqualified"`
	Score  *int    `json:"score" validate:"omitempty,min=0,max=100"`

	Source    *string `json:"source" validate:"omitempty,oneof=apollo linkedin website referral cold_email event other"`
	SourceURL *string `json:"sourceUrl" validate:"omitempty,max=500"`
	Notes     *string `json:"notes"`

	CustomFields   map[string]any `json:"customFields"`
	NextFollowUpAt *time.Time     `json:"nextFollowUpAt"`
}

// ListLeadsQuery carries filter and pagination parameters.
type ListLeadsQuery struct {
	Status      string `form:"status"`
	Source      string `form:"source"`
	CompanyName string `form:"companyName"`
	MinScore    *int   `form:"minScore"`
	MaxScore    *int   `form:"maxScore"`

	CreatedAfter  *time.Time `form:"createdAfter" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedBefore *time.Time `form:"createdBefore" time_format:"2006-01-02T15:04:05Z07:00"`

	Search string `form:"search"`

	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// ToDomainFilter converts the query string parameters into a domain filter.
func (q ListLeadsQuery) ToDomainFilter() *domain.Filter {
	filter := &domain.Filter{
		MinScore:      q.MinScore,
		MaxScore:      q.MaxScore,
		CreatedAfter:  q.CreatedAfter,
		CreatedBefore: q.CreatedBefore,
	}
	if q.Status != "" {
		status := domain.Status(q.Status)
		filter.Status = &status
	}
	if q.Source != "" {
		source := domain.Source(q.Source)
		filter.Source = &source
	}
	if q.CompanyName != "" {
		filter.CompanyName = &q.CompanyName
	}
	if q.Search != "" {
		filter.Search = &q.Search
	}
	return filter
}

// LeadResponse is a lead as returned by the API.
type LeadResponse struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`

	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	Phone       string `json:"phone,omitempty"`

	Source    string `json:"source,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Status      string `json:"status"`
	Score       int    `json:"score"`
	IsQualified bool   `json:"isQualified"`

	CustomFields map[string]any `json:"customFields"`

	ContactAttempts int        `json:"contactAttempts"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	NextFollowUpAt  *time.Time `json:"nextFollowUpAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToLeadResponse maps a domain lead onto the API shape.
func ToLeadResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:              l.ID,
		TenantID:        l.TenantID,
		Email:           l.Email,
		FirstName:       l.FirstName,
		LastName:        l.LastName,
		FullName:        l.FullName(),
		CompanyName:     l.CompanyName,
		JobTitle:        l.JobTitle,
		Phone:           l.Phone,
		Source:          string(l.Source),
		SourceURL:       l.SourceURL,
		Notes:           l.Notes,
		Status:          string(l.Status),
		Score:           l.Score,
		IsQualified:     l.IsQualified(),
		CustomFields:    l.CustomFields,
		ContactAttempts: l.ContactAttempts,
		LastContactedAt: l.LastContactedAt,
		NextFollowUpAt:  l.NextFollowUpAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// LeadListResponse is a paginated lead list.
type LeadListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// BulkCreateError describes one failed entry of a bulk create.
type BulkCreateError struct {
	Index int    `json:"index"`
	Email string `json:"email"`
	Error string `json:"error"`
}

// BulkCreateLeadsResponse reports per-entry outcomes of a bulk create.
type BulkCreateLeadsResponse struct {
	Created []LeadResponse    `json:"created"`
	Errors  []BulkCreateError `json:"errors"`
}
