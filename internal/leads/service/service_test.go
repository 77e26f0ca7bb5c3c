package service

import (
	"context"
	"testing"
	"time"

	"outreach_backend/internal/events"
	"outreach_backend/internal/leads/domain"
	"outreach_backend/internal/leads/repository"
	"outreach_backend/internal/leads/transport"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	leads   map[uuid.UUID]*domain.Lead
	creates int
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]*domain.Lead)}
}

func (f *fakeStore) Create(_ context.Context, lead *domain.Lead) error {
	f.creates++
	clone := *lead
	f.leads[lead.ID] = &clone
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID || lead.IsDeleted {
		return nil, repository.ErrNotFound
	}
	clone := *lead
	return &clone, nil
}

func (f *fakeStore) FindByEmail(_ context.Context, tenantID uuid.UUID, email string, includeDeleted bool) (*domain.Lead, error) {
	for _, lead := range f.leads {
		if lead.TenantID != tenantID || lead.Email != email {
			continue
		}
		if lead.IsDeleted && !includeDeleted {
			continue
		}
		clone := *lead
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, lead *domain.Lead) error {
	if _, ok := f.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	f.updates++
	clone := *lead
	f.leads[lead.ID] = &clone
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, tenantID, id uuid.UUID) error {
	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID || lead.IsDeleted {
		return repository.ErrNotFound
	}
	lead.IsDeleted = true
	return nil
}

func (f *fakeStore) List(_ context.Context, tenantID uuid.UUID, _ *domain.Filter, _, _ int) ([]domain.Lead, int, error) {
	out := make([]domain.Lead, 0)
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && !lead.IsDeleted {
			out = append(out, *lead)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) ListAllByFilter(_ context.Context, tenantID uuid.UUID, _ *domain.Filter) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0)
	for _, lead := range f.leads {
		if lead.TenantID == tenantID && !lead.IsDeleted {
			out = append(out, *lead)
		}
	}
	return out, nil
}

func newTestService(store Store) *Service {
	return New(store, nil, logger.New("test"))
}

func TestCreateRejectsActiveDuplicate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "Jane@Acme.io"})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if first.Email != "jane@acme.io" {
		t.Errorf("email not normalized: %q", first.Email)
	}

	_, err = svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "  JANE@acme.io"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate create: got %v, want conflict", err)
	}

	active := 0
	for _, lead := range store.leads {
		if !lead.IsDeleted {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active leads = %d, want exactly 1", active)
	}
}

func TestCreateAllowsSameEmailAcrossTenants(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, uuid.New(), nil, transport.CreateLeadRequest{Email: "jane@acme.io"}); err != nil {
		t.Fatalf("tenant A create failed: %v", err)
	}
	if _, err := svc.Create(ctx, uuid.New(), nil, transport.CreateLeadRequest{Email: "jane@acme.io"}); err != nil {
		t.Fatalf("tenant B create failed: %v", err)
	}
}

func TestCreateReactivatesSoftDeletedLead(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "jane@gmail.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(ctx, tenantID, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	revived, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{
		Email:       "jane@gmail.com",
		CompanyName: "Acme",
		JobTitle:    "CTO",
	})
	if err != nil {
		t.Fatalf("re-ingest failed: %v", err)
	}

	if revived.ID != created.ID {
		t.Fatalf("reactivation created a new id: %s != %s", revived.ID, created.ID)
	}
	if revived.Score != 55 {
		t.Errorf("reactivated score = %d, want 55", revived.Score)
	}
	if store.creates != 1 {
		t.Errorf("store creates = %d, want 1 (reactivation is an update)", store.creates)
	}
}

func TestCreateBulkRejectsInBatchDuplicatesBeforeAnyWrite(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.CreateBulk(ctx, uuid.New(), nil, transport.BulkCreateLeadsRequest{
		Leads: []transport.CreateLeadRequest{
			{Email: "a@acme.io"},
			{Email: "b@acme.io"},
			{Email: "A@ACME.IO"},
		},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if store.creates != 0 {
		t.Errorf("store creates = %d, want 0 (fail fast before writes)", store.creates)
	}
}

func TestCreateBulkCollectsPerEntryErrors(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "taken@acme.io"}); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	result, err := svc.CreateBulk(ctx, tenantID, nil, transport.BulkCreateLeadsRequest{
		Leads: []transport.CreateLeadRequest{
			{Email: "fresh@acme.io"},
			{Email: "taken@acme.io"},
			{Email: "another@acme.io"},
		},
	})
	if err != nil {
		t.Fatalf("bulk create failed: %v", err)
	}

	if len(result.Created) != 2 {
		t.Errorf("created = %d, want 2", len(result.Created))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].Index != 1 || result.Errors[0].Email != "taken@acme.io" {
		t.Errorf("error entry = %+v", result.Errors[0])
	}
}

func TestCreateBulkLimitsBatchSize(t *testing.T) {
	svc := newTestService(newFakeStore())

	leads := make([]transport.CreateLeadRequest, 101)
	for i := range leads {
		leads[i] = transport.CreateLeadRequest{Email: uuid.NewString() + "@acme.io"}
	}

	_, err := svc.CreateBulk(context.Background(), uuid.New(), nil, transport.BulkCreateLeadsRequest{Leads: leads})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestUpdateRescoresOnlyOnTriggerFields(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "jane@gmail.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Score != 0 {
		t.Fatalf("precondition: score = %d, want 0", created.Score)
	}

	// Adding a phone alone would be worth +10 on a rescore, but phone is not
	// in the trigger set.
	phone := "+15550001111"
	updated, err := svc.Update(ctx, tenantID, created.ID, transport.UpdateLeadRequest{Phone: &phone})
	if err != nil {
		t.Fatalf("phone update failed: %v", err)
	}
	if updated.Score != 0 {
		t.Errorf("phone-only update changed score to %d", updated.Score)
	}

	// A job title change triggers the rescore, which now also counts the phone.
	title := "Director"
	updated, err = svc.Update(ctx, tenantID, created.ID, transport.UpdateLeadRequest{JobTitle: &title})
	if err != nil {
		t.Fatalf("title update failed: %v", err)
	}
	// 15 title + 20 senior + 10 phone
	if updated.Score != 45 {
		t.Errorf("rescored = %d, want 45", updated.Score)
	}
}

func TestUpdateEmailConflict(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "a@acme.io"}); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "b@acme.io"})
	if err != nil {
		t.Fatal(err)
	}

	email := "a@acme.io"
	_, err = svc.Update(ctx, tenantID, second.ID, transport.UpdateLeadRequest{Email: &email})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestGetIsTenantScoped(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), nil, transport.CreateLeadRequest{Email: "jane@acme.io"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Get(ctx, uuid.New(), created.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("cross-tenant get: got %v, want not found", err)
	}
}

func TestListRejectsInvalidFilterBeforeQuery(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	minScore, maxScore := 80, 20
	_, err := svc.List(context.Background(), uuid.New(), transport.ListLeadsQuery{
		MinScore: &minScore,
		MaxScore: &maxScore,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestRecordContactAttempt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	tenantID := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "jane@acme.io"})
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	if err := svc.RecordContactAttempt(ctx, tenantID, created.ID, at); err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	if err := svc.RecordContactAttempt(ctx, tenantID, created.ID, at.Add(time.Hour)); err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}

	lead := store.leads[created.ID]
	if lead.ContactAttempts != 2 {
		t.Errorf("contact attempts = %d, want 2", lead.ContactAttempts)
	}
	if lead.LastContactedAt == nil || !lead.LastContactedAt.Equal(at.Add(time.Hour)) {
		t.Errorf("last contacted at = %v, want %v", lead.LastContactedAt, at.Add(time.Hour))
	}
	if lead.Status != domain.StatusContacted {
		t.Errorf("status = %q, want %q", lead.Status, domain.StatusContacted)
	}

	if err := svc.RecordContactAttempt(ctx, uuid.New(), created.ID, at); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("cross-tenant attempt: got %v, want not found", err)
	}
}

func TestEmailSentEventRecordsContactAttempt(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	bus := events.NewInMemoryBus(logger.New("test"))
	RegisterEventHandlers(bus, svc)

	tenantID := uuid.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, tenantID, nil, transport.CreateLeadRequest{Email: "jane@acme.io"})
	if err != nil {
		t.Fatal(err)
	}

	err = bus.PublishSync(ctx, events.EmailSent{
		BaseEvent:  events.NewBaseEvent(),
		EmailID:    uuid.New(),
		CampaignID: uuid.New(),
		LeadID:     created.ID,
		TenantID:   tenantID,
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	lead := store.leads[created.ID]
	if lead.ContactAttempts != 1 {
		t.Errorf("contact attempts = %d, want 1", lead.ContactAttempts)
	}
	if lead.LastContactedAt == nil {
		t.Error("last contacted at not set")
	}
	if lead.Status != domain.StatusContacted {
		t.Errorf("status = %q, want %q", lead.Status, domain.StatusContacted)
	}
}
