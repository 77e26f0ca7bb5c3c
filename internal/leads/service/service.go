// Package service implements the lead business operations: deduplicated
// creation, bulk ingest, filtering, updates with conditional rescoring, and
// soft deletion.
package service

import (
	"context"
	"errors"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxBulkLeads    = 100
)

// Store is the persistence surface the service needs. *repository.Repository
// satisfies it.
type Store interface {
	Create(ctx context.Context, lead *domain.Lead) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string, includeDeleted bool) (*domain.Lead, error)
	Update(ctx context.Context, lead *domain.Lead) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, filter *domain.Filter, page, pageSize int) ([]domain.Lead, int, error)
	ListAllByFilter(ctx context.Context, tenantID uuid.UUID, filter *domain.Filter) ([]domain.Lead, error)
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Create ingests one lead. Duplicate active emails fail with Conflict; a
// soft-deleted duplicate is reactivated in place instead of creating a new
// record.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	input := req.ToDomainInput()
	input.Email = domain.NormalizeEmail(input.Email)
	input.Phone = phone.NormalizeE164(input.Phone)

	if err := input.CustomFields.Validate(); err != nil {
		return transport.LeadResponse{}, err
	}

	existing, err := s.store.FindByEmail(ctx, tenantID, input.Email, true)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, err
	}

	if existing != nil {
		if !existing.IsDeleted {
			return transport.LeadResponse{}, apperr.Conflict("lead with email " + input.Email + " already exists")
		}

		lead := domain.Reactivate(existing, input)
		if err := s.store.Update(ctx, lead); err != nil {
			return transport.LeadResponse{}, err
		}

		s.publish(ctx, events.LeadReactivated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  tenantID,
			Email:     lead.Email,
		})
		return transport.ToLeadResponse(lead), nil
	}

	lead := domain.NewLead(tenantID, createdBy, input)
	if err := s.store.Create(ctx, lead); err != nil {
		return transport.LeadResponse{}, err
	}

	s.publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  tenantID,
		Email:     lead.Email,
		Status:    string(lead.Status),
		Score:     lead.Score,
	})
	return transport.ToLeadResponse(lead), nil
}

// CreateBulk ingests up to 100 leads. Duplicate emails inside the batch are
// rejected before any write; per-entry failures against existing data are
// collected, not fatal.
func (s *Service) CreateBulk(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID, req transport.BulkCreateLeadsRequest) (transport.BulkCreateLeadsResponse, error) {
	if len(req.Leads) == 0 {
		return transport.BulkCreateLeadsResponse{}, apperr.Validation("leads list is empty")
	}
	if len(req.Leads) > maxBulkLeads {
		return transport.BulkCreateLeadsResponse{}, apperr.Validation("cannot create more than 100 leads at once")
	}

	seen := make(map[string]struct{}, len(req.Leads))
	for _, entry := range req.Leads {
		email := domain.NormalizeEmail(entry.Email)
		if _, dup := seen[email]; dup {
			return transport.BulkCreateLeadsResponse{}, apperr.Validation("duplicate email in batch: " + email)
		}
		seen[email] = struct{}{}
	}

	resp := transport.BulkCreateLeadsResponse{
		Created: make([]transport.LeadResponse, 0, len(req.Leads)),
		Errors:  make([]transport.BulkCreateError, 0),
	}
	for i, entry := range req.Leads {
		created, err := s.Create(ctx, tenantID, createdBy, entry)
		if err != nil {
			resp.Errors = append(resp.Errors, transport.BulkCreateError{
				Index: i,
				Email: domain.NormalizeEmail(entry.Email),
				Error: err.Error(),
			})
			continue
		}
		resp.Created = append(resp.Created, created)
	}

	return resp, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// List returns a filtered, paginated page of the tenant's active leads.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, query transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	filter := query.ToDomainFilter()
	if err := filter.Validate(); err != nil {
		return transport.LeadListResponse{}, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	leads, total, err := s.store.List(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	resp := transport.LeadListResponse{
		Leads:      make([]transport.LeadResponse, 0, len(leads)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for i := range leads {
		resp.Leads = append(resp.Leads, transport.ToLeadResponse(&leads[i]))
	}
	return resp, nil
}

// Update applies a partial update. The score is recomputed only when
// company_name, job_title or source change; name and phone edits keep the
// stored score.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	oldStatus := lead.Status

	if req.Email != nil {
		newEmail := domain.NormalizeEmail(*req.Email)
		if newEmail != lead.Email {
			duplicate, err := s.store.FindByEmail(ctx, tenantID, newEmail, true)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return transport.LeadResponse{}, err
			}
			if duplicate != nil && duplicate.ID != lead.ID {
				return transport.LeadResponse{}, apperr.Conflict("lead with email " + newEmail + " already exists")
			}
			lead.Email = newEmail
		}
	}

	if req.FirstName != nil {
		lead.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		lead.LastName = *req.LastName
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.SourceURL != nil {
		lead.SourceURL = *req.SourceURL
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	if req.NextFollowUpAt != nil {
		lead.NextFollowUpAt = req.NextFollowUpAt
	}
	if req.CustomFields != nil {
		customFields := domain.CustomFields(req.CustomFields)
		if err := customFields.Validate(); err != nil {
			return transport.LeadResponse{}, err
		}
		lead.CustomFields = customFields
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		if !status.IsValid() {
			return transport.LeadResponse{}, apperr.Validation("invalid lead status")
		}
		lead.Status = status
	}
	if req.Score != nil {
		if *req.Score < 0 || *req.Score > 100 {
			return transport.LeadResponse{}, apperr.Validation("score must be between 0 and 100")
		}
		lead.Score = *req.Score
	}

	companyChanged := req.CompanyName != nil && *req.CompanyName != lead.CompanyName
	titleChanged := req.JobTitle != nil && *req.JobTitle != lead.JobTitle
	sourceChanged := false
	if req.CompanyName != nil {
		lead.CompanyName = *req.CompanyName
	}
	if req.JobTitle != nil {
		lead.JobTitle = *req.JobTitle
	}
	if req.Source != nil {
		source := domain.Source(*req.Source)
		if !source.IsValid() {
			return transport.LeadResponse{}, apperr.Validation("invalid lead source")
		}
		sourceChanged = source != lead.Source
		lead.Source = source
	}

	if domain.ScoreFieldsChanged(companyChanged, titleChanged, sourceChanged) {
		lead.Score = domain.Score(lead)
	}

	if err := s.store.Update(ctx, lead); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}

	if lead.Status != oldStatus {
		s.publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  tenantID,
			OldStatus: string(oldStatus),
			NewStatus: string(lead.Status),
		})
	}

	return transport.ToLeadResponse(lead), nil
}

// Delete soft-deletes a lead. The record stays queryable for reactivation.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.store.SoftDelete(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}
	return nil
}

// ResolveByFilter returns all active leads matching the filter, in stable
// creation order. Campaign targeting consumes this.
func (s *Service) ResolveByFilter(ctx context.Context, tenantID uuid.UUID, filter *domain.Filter) ([]domain.Lead, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListAllByFilter(ctx, tenantID, filter)
}

// GetLead returns the domain lead directly for other modules; the HTTP
// surface uses Get, which maps to the API shape.
func (s *Service) GetLead(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return lead, nil
}

// RecordContactAttempt tracks an outbound touch on a lead: the attempt counter
// is incremented, the contact time stamped, and new or qualified leads move to
// contacted.
func (s *Service) RecordContactAttempt(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}

	oldStatus := lead.Status
	lead.ContactAttempts++
	lead.LastContactedAt = &at
	if lead.Status == domain.StatusNew || lead.Status == domain.StatusQualified {
		lead.Status = domain.StatusContacted
	}

	if err := s.store.Update(ctx, lead); err != nil {
		return err
	}

	if lead.Status != oldStatus {
		s.publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			TenantID:  tenantID,
			OldStatus: string(oldStatus),
			NewStatus: string(lead.Status),
		})
	}
	return nil
}

// RegisterEventHandlers subscribes lead-side reactions to events published by
// other modules. A sent campaign email counts as a contact attempt on the
// targeted lead.
func RegisterEventHandlers(bus events.Bus, svc *Service) {
	bus.Subscribe(events.EmailSent{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		sent, ok := e.(events.EmailSent)
		if !ok {
			return nil
		}
		return svc.RecordContactAttempt(ctx, sent.TenantID, sent.LeadID, sent.OccurredAt())
	}))
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
