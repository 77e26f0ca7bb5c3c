// Package service implements campaign orchestration: creation with batch
// email generation, lifecycle transitions, scheduling and send handling.
package service

import (
	"context"
	"errors"
	"time"

	"outreach_backend/internal/campaigns/domain"
	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/campaigns/transport"
	"outreach_backend/internal/email"
	"outreach_backend/internal/events"
	leaddomain "outreach_backend/internal/leads/domain"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// draft is a generated subject/body pair.
type draft struct {
	Subject string
	Body    string
}

// Store is the persistence surface the service needs. *repository.Repository
// satisfies it.
type Store interface {
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaign(ctx context.Context, tenantID, id uuid.UUID) (*domain.Campaign, error)
	GetCampaignByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error
	ListCampaigns(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter, page, pageSize int) ([]domain.Campaign, int, error)

	CreateEmail(ctx context.Context, email *domain.CampaignEmail) error
	GetEmail(ctx context.Context, tenantID, campaignID, emailID uuid.UUID) (*domain.CampaignEmail, error)
	GetEmailByID(ctx context.Context, emailID uuid.UUID) (*domain.CampaignEmail, error)
	ListEmails(ctx context.Context, tenantID, campaignID uuid.UUID) ([]domain.CampaignEmail, error)
	ListEmailsByStatus(ctx context.Context, tenantID, campaignID uuid.UUID, status domain.EmailStatus) ([]domain.CampaignEmail, error)
	UpdateEmail(ctx context.Context, email *domain.CampaignEmail) error
	CountEmailsByStatus(ctx context.Context, tenantID, campaignID uuid.UUID) (map[domain.EmailStatus]int, error)
}

// LeadDirectory is the slice of the leads module the orchestrator needs.
type LeadDirectory interface {
	ResolveByFilter(ctx context.Context, tenantID uuid.UUID, filter *leaddomain.Filter) ([]leaddomain.Lead, error)
	GetLead(ctx context.Context, tenantID, id uuid.UUID) (*leaddomain.Lead, error)
}

// TextGenerator is the external generation capability.
type TextGenerator interface {
	GenerateEmail(ctx context.Context, systemPrompt, userPrompt string) (textgen.Draft, error)
}

// SendScheduler enqueues a send task for one email row at a point in time.
type SendScheduler interface {
	ScheduleEmailSend(ctx context.Context, emailID uuid.UUID, runAt time.Time) error
}

type Service struct {
	store     Store
	leads     LeadDirectory
	gen       TextGenerator
	quota     *GenerationQuota
	scheduler SendScheduler
	sender    email.Sender
	bus       events.Bus
	log       *logger.Logger
	workers   int
}

func New(
	store Store,
	leads LeadDirectory,
	gen TextGenerator,
	quota *GenerationQuota,
	scheduler SendScheduler,
	sender email.Sender,
	bus events.Bus,
	log *logger.Logger,
	cfg config.PipelineConfig,
) *Service {
	workers := cfg.GetGenerationWorkers()
	if workers < 1 {
		workers = 1
	}
	return &Service{
		store:     store,
		leads:     leads,
		gen:       gen,
		quota:     quota,
		scheduler: scheduler,
		sender:    sender,
		bus:       bus,
		log:       log,
		workers:   workers,
	}
}

// Create persists a draft campaign, resolves its target lead set and runs
// position-1 generation for every targeted lead. An empty target set leaves
// the campaign as an empty draft and reports NoMatchingLeads distinctly so
// the caller can adjust filters.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req transport.CreateCampaignRequest) (transport.CampaignResponse, error) {
	campaignCtx := req.Context.ToDomain()
	if err := campaignCtx.Validate(); err != nil {
		return transport.CampaignResponse{}, err
	}

	maxLen := req.MaxSequenceLength
	if maxLen == 0 {
		maxLen = domain.MaxSequenceLength
	}
	if maxLen < 1 || maxLen > domain.MaxSequenceLength {
		return transport.CampaignResponse{}, apperr.Validation("max sequence length must be between 1 and 4")
	}

	delays, err := req.DomainDelays()
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	if err := delays.Validate(maxLen); err != nil {
		return transport.CampaignResponse{}, err
	}

	filter := req.LeadFilter.ToDomain()
	if err := filter.Validate(); err != nil {
		return transport.CampaignResponse{}, err
	}

	campaign := &domain.Campaign{
		ID:                uuid.New(),
		TenantID:          tenantID,
		OwnerID:           userID,
		Name:              req.Name,
		Context:           campaignCtx,
		Delays:            delays,
		MaxSequenceLength: maxLen,
		Status:            domain.StatusDraft,
		IsActive:          true,
		ScheduledStart:    req.ScheduledStart,
	}
	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return transport.CampaignResponse{}, err
	}

	// Absent filter targets every active lead in the tenant.
	targets, err := s.leads.ResolveByFilter(ctx, tenantID, filter)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	if len(targets) == 0 {
		// The draft row deliberately survives; only generation is skipped.
		return transport.CampaignResponse{}, apperr.Unprocessable("no leads match the campaign filter").
			WithDetails(map[string]any{"campaignId": campaign.ID})
	}

	if err := s.quota.Reserve(ctx, tenantID, len(targets)); err != nil {
		return transport.CampaignResponse{}, err
	}

	rows := s.runGeneration(ctx, campaign, req.FromEmail, targets)

	summary := transport.GenerationSummary{Targeted: len(targets)}
	for i := range rows {
		if err := s.store.CreateEmail(ctx, &rows[i]); err != nil {
			return transport.CampaignResponse{}, err
		}
		if rows[i].Status == domain.EmailGenerated {
			summary.Generated++
		} else {
			summary.Failed++
		}
	}

	s.log.BatchSummary(campaign.ID.String(), summary.Targeted, summary.Generated, summary.Failed)
	s.publish(ctx, events.CampaignCreated{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: campaign.ID,
		TenantID:   tenantID,
		Targeted:   summary.Targeted,
		Generated:  summary.Generated,
		Failed:     summary.Failed,
	})

	return transport.ToCampaignResponse(campaign, &summary), nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (transport.CampaignResponse, error) {
	campaign, err := s.getCampaign(ctx, tenantID, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	return transport.ToCampaignResponse(campaign, nil), nil
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, query transport.ListCampaignsQuery) (transport.CampaignListResponse, error) {
	filter := repository.ListFilter{Search: query.Search, IsActive: query.IsActive}
	if query.Status != "" {
		status := domain.Status(query.Status)
		if !status.IsValid() {
			return transport.CampaignListResponse{}, apperr.Validation("invalid campaign status filter")
		}
		filter.Status = &status
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

	campaigns, total, err := s.store.ListCampaigns(ctx, tenantID, filter, page, pageSize)
	if err != nil {
		return transport.CampaignListResponse{}, err
	}

	resp := transport.CampaignListResponse{
		Campaigns:  make([]transport.CampaignResponse, 0, len(campaigns)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for i := range campaigns {
		resp.Campaigns = append(resp.Campaigns, transport.ToCampaignResponse(&campaigns[i], nil))
	}
	return resp, nil
}

// Update mutates a campaign. Everything except status and active transitions
// is frozen once the campaign leaves draft.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req transport.UpdateCampaignRequest) (transport.CampaignResponse, error) {
	campaign, err := s.getCampaign(ctx, tenantID, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	if !campaign.IsMutable() {
		return transport.CampaignResponse{}, apperr.Validation("only draft campaigns can be edited")
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Context != nil {
		campaignCtx := req.Context.ToDomain()
		if err := campaignCtx.Validate(); err != nil {
			return transport.CampaignResponse{}, err
		}
		campaign.Context = campaignCtx
	}
	if req.MaxSequenceLength != nil {
		if *req.MaxSequenceLength < 1 || *req.MaxSequenceLength > domain.MaxSequenceLength {
			return transport.CampaignResponse{}, apperr.Validation("max sequence length must be between 1 and 4")
		}
		campaign.MaxSequenceLength = *req.MaxSequenceLength
	}
	if req.Delays != nil {
		wrapped := transport.CreateCampaignRequest{Delays: req.Delays}
		delays, err := wrapped.DomainDelays()
		if err != nil {
			return transport.CampaignResponse{}, err
		}
		if err := delays.Validate(campaign.MaxSequenceLength); err != nil {
			return transport.CampaignResponse{}, err
		}
		campaign.Delays = delays
	}
	if req.ScheduledStart != nil {
		campaign.ScheduledStart = req.ScheduledStart
	}

	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return transport.CampaignResponse{}, err
	}
	return transport.ToCampaignResponse(campaign, nil), nil
}

// Delete soft-deactivates a campaign. Rows are never physically removed.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	campaign, err := s.getCampaign(ctx, tenantID, id)
	if err != nil {
		return err
	}
	campaign.Status = domain.StatusInactive
	campaign.IsActive = false
	return s.store.UpdateCampaign(ctx, campaign)
}

// Activate moves a draft campaign to active: every generated row gets its
// send time computed from the campaign delays and is scheduled for delivery.
func (s *Service) Activate(ctx context.Context, tenantID, id uuid.UUID) (transport.CampaignResponse, error) {
	campaign, err := s.getCampaign(ctx, tenantID, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	if campaign.Status != domain.StatusDraft {
		return transport.CampaignResponse{}, apperr.Validation("only draft campaigns can be activated")
	}

	if campaign.ScheduledStart == nil {
		now := time.Now().UTC()
		campaign.ScheduledStart = &now
	}
	campaign.Status = domain.StatusActive
	campaign.IsActive = true
	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return transport.CampaignResponse{}, err
	}

	generated, err := s.store.ListEmailsByStatus(ctx, tenantID, id, domain.EmailGenerated)
	if err != nil {
		return transport.CampaignResponse{}, err
	}

	scheduled := 0
	for i := range generated {
		row := &generated[i]

		sendAt, err := campaign.ScheduledSendTime(row.SequencePosition)
		if err != nil {
			return transport.CampaignResponse{}, err
		}

		next, err := domain.Transition(row.Status, domain.EmailScheduled)
		if err != nil {
			return transport.CampaignResponse{}, err
		}
		row.Status = next
		row.ScheduledSendAt = &sendAt
		if err := s.store.UpdateEmail(ctx, row); err != nil {
			return transport.CampaignResponse{}, err
		}

		if s.scheduler != nil {
			if err := s.scheduler.ScheduleEmailSend(ctx, row.ID, sendAt); err != nil {
				s.log.Error("failed to enqueue email send", "emailId", row.ID, "error", err)
			}
		}
		scheduled++
	}

	s.publish(ctx, events.CampaignActivated{
		BaseEvent:  events.NewBaseEvent(),
		CampaignID: campaign.ID,
		TenantID:   tenantID,
		Scheduled:  scheduled,
	})

	return transport.ToCampaignResponse(campaign, nil), nil
}

// Deactivate pauses an active campaign. Already-sent emails are unaffected.
func (s *Service) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (transport.CampaignResponse, error) {
	campaign, err := s.getCampaign(ctx, tenantID, id)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	if campaign.Status != domain.StatusActive {
		return transport.CampaignResponse{}, apperr.Validation("only active campaigns can be deactivated")
	}
	campaign.Status = domain.StatusInactive
	campaign.IsActive = false
	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return transport.CampaignResponse{}, err
	}
	return transport.ToCampaignResponse(campaign, nil), nil
}

// ListEmails returns a campaign's email rows.
func (s *Service) ListEmails(ctx context.Context, tenantID, campaignID uuid.UUID) ([]transport.EmailResponse, error) {
	if _, err := s.getCampaign(ctx, tenantID, campaignID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListEmails(ctx, tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.EmailResponse, 0, len(rows))
	for i := range rows {
		out = append(out, transport.ToEmailResponse(&rows[i]))
	}
	return out, nil
}

// Stats tallies a campaign's email rows per status.
func (s *Service) Stats(ctx context.Context, tenantID, campaignID uuid.UUID) (transport.CampaignStatsResponse, error) {
	if _, err := s.getCampaign(ctx, tenantID, campaignID); err != nil {
		return transport.CampaignStatsResponse{}, err
	}
	counts, err := s.store.CountEmailsByStatus(ctx, tenantID, campaignID)
	if err != nil {
		return transport.CampaignStatsResponse{}, err
	}

	resp := transport.CampaignStatsResponse{
		CampaignID: campaignID,
		ByStatus:   make(map[string]int, len(counts)),
	}
	for status, count := range counts {
		resp.ByStatus[string(status)] = count
		resp.Total += count
	}
	return resp, nil
}

// RecordBounce marks a sent email as bounced after a delivery-failure
// notification.
func (s *Service) RecordBounce(ctx context.Context, tenantID, campaignID, emailID uuid.UUID) (transport.EmailResponse, error) {
	row, err := s.store.GetEmail(ctx, tenantID, campaignID, emailID)
	if err != nil {
		if errors.Is(err, repository.ErrEmailNotFound) {
			return transport.EmailResponse{}, apperr.NotFound("campaign email not found")
		}
		return transport.EmailResponse{}, err
	}

	next, err := domain.Transition(row.Status, domain.EmailBounced)
	if err != nil {
		return transport.EmailResponse{}, err
	}
	row.Status = next
	if err := s.store.UpdateEmail(ctx, row); err != nil {
		return transport.EmailResponse{}, err
	}

	s.publish(ctx, events.EmailBounced{
		BaseEvent:  events.NewBaseEvent(),
		EmailID:    row.ID,
		CampaignID: campaignID,
		TenantID:   tenantID,
	})
	return transport.ToEmailResponse(row), nil
}

// PreviewForLead generates a one-off email for a single lead without
// persisting anything.
func (s *Service) PreviewForLead(ctx context.Context, tenantID, leadID uuid.UUID, req transport.PreviewEmailRequest) (transport.PreviewEmailResponse, error) {
	campaignCtx := req.Context.ToDomain()
	if err := campaignCtx.Validate(); err != nil {
		return transport.PreviewEmailResponse{}, err
	}

	lead, err := s.leads.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return transport.PreviewEmailResponse{}, err
	}

	if err := s.quota.Reserve(ctx, tenantID, 1); err != nil {
		return transport.PreviewEmailResponse{}, err
	}

	result, err := s.generate(ctx, lead, campaignCtx)
	if err != nil {
		return transport.PreviewEmailResponse{}, err
	}

	return transport.PreviewEmailResponse{
		LeadID:  leadID,
		Subject: result.Subject,
		Body:    result.Body,
	}, nil
}

// SendScheduledEmail delivers one scheduled row. The worker calls this when
// the row's send time arrives. A transport failure marks the row failed; a
// row no longer in scheduled state is skipped, which makes redeliveries of
// the same task harmless.
func (s *Service) SendScheduledEmail(ctx context.Context, emailID uuid.UUID) error {
	row, err := s.store.GetEmailByID(ctx, emailID)
	if err != nil {
		if errors.Is(err, repository.ErrEmailNotFound) {
			return nil
		}
		return err
	}
	if row.Status != domain.EmailScheduled {
		return nil
	}

	campaign, err := s.store.GetCampaignByID(ctx, row.CampaignID)
	if err != nil {
		return err
	}
	if !campaign.IsActive {
		return nil
	}

	lead, err := s.leads.GetLead(ctx, campaign.TenantID, row.LeadID)
	if err != nil {
		return s.markSendFailed(ctx, row, "lead no longer active")
	}

	sendErr := s.sender.SendOutreachEmail(ctx, email.OutreachMessage{
		ToEmail:   lead.Email,
		ToName:    lead.FullName(),
		Subject:   row.Subject,
		Body:      row.Body,
		FromEmail: row.FromEmail,
		FromName:  campaign.Context.CompanyName,
	})
	if sendErr != nil {
		return s.markSendFailed(ctx, row, sendErr.Error())
	}

	next, err := domain.Transition(row.Status, domain.EmailSent)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row.Status = next
	row.SentAt = &now
	if err := s.store.UpdateEmail(ctx, row); err != nil {
		return err
	}

	s.publish(ctx, events.EmailSent{
		BaseEvent:  events.NewBaseEvent(),
		EmailID:    row.ID,
		CampaignID: campaign.ID,
		LeadID:     row.LeadID,
		TenantID:   campaign.TenantID,
	})
	return nil
}

func (s *Service) markSendFailed(ctx context.Context, row *domain.CampaignEmail, reason string) error {
	next, err := domain.Transition(row.Status, domain.EmailFailed)
	if err != nil {
		return err
	}
	row.Status = next
	row.ErrorMessage = reason
	// Failed is terminal; the task must not be retried.
	return s.store.UpdateEmail(ctx, row)
}

func (s *Service) getCampaign(ctx context.Context, tenantID, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("campaign not found")
		}
		return nil, err
	}
	return campaign, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
