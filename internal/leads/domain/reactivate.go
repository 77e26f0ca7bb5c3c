package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateInput carries the caller-supplied attributes for a new lead. Email is
// expected to be normalized before the input reaches domain logic.
type CreateInput struct {
	Email        string
	FirstName    string
	LastName     string
	CompanyName  string
	JobTitle     string
	Phone        string
	Source       Source
	SourceURL    string
	Notes        string
	CustomFields CustomFields
}

// NewLead builds a scored lead from fresh input. The initial status is
// derived from the score.
func NewLead(tenantID uuid.UUID, createdBy *uuid.UUID, input CreateInput) *Lead {
	lead := &Lead{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        NormalizeEmail(input.Email),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CompanyName:  input.CompanyName,
		JobTitle:     input.JobTitle,
		Phone:        input.Phone,
		Source:       input.Source,
		SourceURL:    input.SourceURL,
		Notes:        input.Notes,
		CustomFields: input.CustomFields,
		CreatedBy:    createdBy,
	}
	if lead.CustomFields == nil {
		lead.CustomFields = CustomFields{}
	}
	lead.Score = Score(lead)
	lead.Status = StatusForScore(lead.Score)
	return lead
}

// Reactivate revives a soft-deleted lead in place when the same email is
// ingested again. The new input overwrites the stored attributes, the delete
// flag clears, and the score is recomputed. The identifier never changes and
// the previous status is kept.
func Reactivate(existing *Lead, input CreateInput) *Lead {
	existing.Email = NormalizeEmail(input.Email)
	existing.FirstName = input.FirstName
	existing.LastName = input.LastName
	existing.CompanyName = input.CompanyName
	existing.JobTitle = input.JobTitle
	existing.Phone = input.Phone
	existing.Source = input.Source
	existing.SourceURL = input.SourceURL
	existing.Notes = input.Notes
	if input.CustomFields != nil {
		existing.CustomFields = input.CustomFields
	}

	existing.IsDeleted = false
	existing.Score = Score(existing)
	existing.UpdatedAt = time.Now().UTC()

	return existing
}
