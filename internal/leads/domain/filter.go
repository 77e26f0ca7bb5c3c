package domain

import (
	"time"

	"outreach_backend/platform/apperr"
)

// Filter is an optional conjunction of lead predicates. Nil pointer fields
// mean "no constraint"; tenant scoping and the not-deleted rule are always
// applied by the repository on top of this.
type Filter struct {
	Status        *Status
	Source        *Source
	CompanyName   *string
	MinScore      *int
	MaxScore      *int
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Search        *string
}

// Validate rejects impossible or out-of-range predicates before any query
// runs. An inverted score range is an error, not an empty result.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Status != nil && !f.Status.IsValid() {
		return apperr.Validation("invalid lead status filter")
	}
	if f.Source != nil && !f.Source.IsValid() {
		return apperr.Validation("invalid lead source filter")
	}
	if f.MinScore != nil && (*f.MinScore < 0 || *f.MinScore > 100) {
		return apperr.Validation("min_score must be between 0 and 100")
	}
	if f.MaxScore != nil && (*f.MaxScore < 0 || *f.MaxScore > 100) {
		return apperr.Validation("max_score must be between 0 and 100")
	}
	if f.MinScore != nil && f.MaxScore != nil && *f.MinScore > *f.MaxScore {
		return apperr.Validation("min_score cannot exceed max_score")
	}
	return nil
}
