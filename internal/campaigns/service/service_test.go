package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"outreach_backend/internal/campaigns/domain"
	"outreach_backend/internal/campaigns/repository"
	"outreach_backend/internal/campaigns/transport"
	"outreach_backend/internal/email"
	leaddomain "outreach_backend/internal/leads/domain"
	"outreach_backend/platform/ai/textgen"
	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeGen is a deterministic TextGenerator. Emails listed in failEmails fail;
// everything else yields a draft derived from the prompt.
type fakeGen struct {
	mu         sync.Mutex
	calls      int
	failEmails map[string]bool
}

func newFakeGen() *fakeGen {
	return &fakeGen{failEmails: make(map[string]bool)}
}

func (g *fakeGen) FailFor(email string) {
	g.failEmails[email] = true
}

func (g *fakeGen) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGen) GenerateEmail(_ context.Context, _, userPrompt string) (textgen.Draft, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	for email := range g.failEmails {
		if strings.Contains(userPrompt, email) {
			return textgen.Draft{}, apperr.Upstream("generation failed for " + email)
		}
	}
	return textgen.Draft{Subject: "Quick question", Body: "Hi there,\n\nworth a chat?"}, nil
}

// fakeStore is an in-memory Store for service tests. Email rows keep their
// insertion order so pipeline ordering is observable.
type fakeStore struct {
	campaigns map[uuid.UUID]*domain.Campaign
	emails    []*domain.CampaignEmail
}

func newFakeStore() *fakeStore {
	return &fakeStore{campaigns: make(map[uuid.UUID]*domain.Campaign)}
}

func (f *fakeStore) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	clone := *c
	f.campaigns[c.ID] = &clone
	return nil
}

func (f *fakeStore) GetCampaign(_ context.Context, tenantID, id uuid.UUID) (*domain.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok || c.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeStore) GetCampaignByID(_ context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeStore) UpdateCampaign(_ context.Context, c *domain.Campaign) error {
	if _, ok := f.campaigns[c.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *c
	f.campaigns[c.ID] = &clone
	return nil
}

func (f *fakeStore) ListCampaigns(_ context.Context, tenantID uuid.UUID, _ repository.ListFilter, _, _ int) ([]domain.Campaign, int, error) {
	out := make([]domain.Campaign, 0)
	for _, c := range f.campaigns {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) CreateEmail(_ context.Context, e *domain.CampaignEmail) error {
	clone := *e
	f.emails = append(f.emails, &clone)
	return nil
}

func (f *fakeStore) GetEmail(_ context.Context, tenantID, campaignID, emailID uuid.UUID) (*domain.CampaignEmail, error) {
	c, ok := f.campaigns[campaignID]
	if !ok || c.TenantID != tenantID {
		return nil, repository.ErrEmailNotFound
	}
	for _, e := range f.emails {
		if e.ID == emailID && e.CampaignID == campaignID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, repository.ErrEmailNotFound
}

func (f *fakeStore) GetEmailByID(_ context.Context, emailID uuid.UUID) (*domain.CampaignEmail, error) {
	for _, e := range f.emails {
		if e.ID == emailID {
			clone := *e
			return &clone, nil
		}
	}
	return nil, repository.ErrEmailNotFound
}

func (f *fakeStore) ListEmails(_ context.Context, _, campaignID uuid.UUID) ([]domain.CampaignEmail, error) {
	out := make([]domain.CampaignEmail, 0)
	for _, e := range f.emails {
		if e.CampaignID == campaignID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEmailsByStatus(_ context.Context, _, campaignID uuid.UUID, status domain.EmailStatus) ([]domain.CampaignEmail, error) {
	out := make([]domain.CampaignEmail, 0)
	for _, e := range f.emails {
		if e.CampaignID == campaignID && e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateEmail(_ context.Context, e *domain.CampaignEmail) error {
	for i, existing := range f.emails {
		if existing.ID == e.ID {
			clone := *e
			f.emails[i] = &clone
			return nil
		}
	}
	return repository.ErrEmailNotFound
}

func (f *fakeStore) CountEmailsByStatus(_ context.Context, _, campaignID uuid.UUID) (map[domain.EmailStatus]int, error) {
	counts := make(map[domain.EmailStatus]int)
	for _, e := range f.emails {
		if e.CampaignID == campaignID {
			counts[e.Status]++
		}
	}
	return counts, nil
}

// fakeLeads serves a fixed lead list in a stable order.
type fakeLeads struct {
	leads []leaddomain.Lead
}

func (f *fakeLeads) ResolveByFilter(_ context.Context, tenantID uuid.UUID, _ *leaddomain.Filter) ([]leaddomain.Lead, error) {
	out := make([]leaddomain.Lead, 0, len(f.leads))
	for _, l := range f.leads {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeads) GetLead(_ context.Context, tenantID, id uuid.UUID) (*leaddomain.Lead, error) {
	for _, l := range f.leads {
		if l.ID == id && l.TenantID == tenantID {
			clone := l
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("lead not found")
}

type scheduledTask struct {
	emailID uuid.UUID
	runAt   time.Time
}

type fakeScheduler struct {
	tasks []scheduledTask
}

func (f *fakeScheduler) ScheduleEmailSend(_ context.Context, emailID uuid.UUID, runAt time.Time) error {
	f.tasks = append(f.tasks, scheduledTask{emailID: emailID, runAt: runAt})
	return nil
}

type fakeSender struct {
	sent    []email.OutreachMessage
	failAll bool
}

func (f *fakeSender) SendOutreachEmail(_ context.Context, msg email.OutreachMessage) error {
	if f.failAll {
		return errors.New("connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type testPipelineCfg struct{ workers int }

func (c testPipelineCfg) GetGenerationWorkers() int    { return c.workers }
func (c testPipelineCfg) GetGenerationDailyQuota() int { return 0 }

type deps struct {
	store     *fakeStore
	leads     *fakeLeads
	gen       *fakeGen
	scheduler *fakeScheduler
	sender    *fakeSender
}

func newTestService(d deps) *Service {
	var sched SendScheduler
	if d.scheduler != nil {
		sched = d.scheduler
	}
	return New(
		d.store, d.leads, d.gen, nil, sched, d.sender,
		nil, logger.New("test"), testPipelineCfg{workers: 2},
	)
}

func makeLeads(tenantID uuid.UUID, n int) []leaddomain.Lead {
	leads := make([]leaddomain.Lead, n)
	for i := range leads {
		leads[i] = leaddomain.Lead{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Email:     fmt.Sprintf("lead%d@acme.io", i+1),
			FirstName: fmt.Sprintf("Lead%d", i+1),
			Status:    leaddomain.StatusNew,
		}
	}
	return leads
}

func createRequest() transport.CreateCampaignRequest {
	return transport.CreateCampaignRequest{
		Name:      "Spring launch",
		FromEmail: "sales@acme.io",
		Context: transport.ContextRequest{
			CompanyName:        "Acme",
			ProductDescription: "Widgets",
			CallToAction:       "Book a demo",
			Tone:               "Professional",
		},
		Delays: map[string]int{"1": 0, "2": 3},
	}
}

func TestCreateGeneratesOneRowPerLead(t *testing.T) {
	tenantID := uuid.New()
	d := deps{
		store:  newFakeStore(),
		leads:  &fakeLeads{leads: makeLeads(tenantID, 5)},
		gen:    newFakeGen(),
		sender: &fakeSender{},
	}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if resp.Generation == nil {
		t.Fatal("response has no generation summary")
	}
	if resp.Generation.Targeted != 5 || resp.Generation.Generated != 5 || resp.Generation.Failed != 0 {
		t.Errorf("summary = %+v, want 5/5/0", *resp.Generation)
	}
	if len(d.store.emails) != 5 {
		t.Fatalf("stored %d email rows, want 5", len(d.store.emails))
	}
	for i, row := range d.store.emails {
		if row.LeadID != d.leads.leads[i].ID {
			t.Errorf("row %d belongs to wrong lead; rows must follow lead order", i)
		}
		if row.Status != domain.EmailGenerated {
			t.Errorf("row %d status = %s, want generated", i, row.Status)
		}
		if row.SequencePosition != 1 {
			t.Errorf("row %d position = %d, want 1", i, row.SequencePosition)
		}
		if row.Provider != "custom" {
			t.Errorf("row %d provider = %q, want custom", i, row.Provider)
		}
		if row.Subject == "" || row.Body == "" {
			t.Errorf("row %d has empty content", i)
		}
	}
}

func TestCreateIsolatesGenerationFailures(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 5)
	gen := newFakeGen()
	gen.FailFor(leads[2].Email)

	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: gen, sender: &fakeSender{}}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if resp.Generation.Targeted != 5 || resp.Generation.Generated != 4 || resp.Generation.Failed != 1 {
		t.Errorf("summary = %+v, want 5/4/1", *resp.Generation)
	}

	if len(d.store.emails) != 5 {
		t.Fatalf("stored %d email rows, want 5; a failed lead must still get a row", len(d.store.emails))
	}
	for i, row := range d.store.emails {
		if i == 2 {
			if row.Status != domain.EmailFailed {
				t.Errorf("failed lead row status = %s, want failed", row.Status)
			}
			if row.ErrorMessage == "" {
				t.Error("failed row has no error message")
			}
			continue
		}
		if row.Status != domain.EmailGenerated {
			t.Errorf("row %d status = %s, want generated despite sibling failure", i, row.Status)
		}
	}
}

func TestCreateWithoutMatchingLeadsKeepsDraft(t *testing.T) {
	tenantID := uuid.New()
	d := deps{store: newFakeStore(), leads: &fakeLeads{}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	_, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if !apperr.Is(err, apperr.KindUnprocessable) {
		t.Fatalf("got %v, want unprocessable", err)
	}

	if len(d.store.campaigns) != 1 {
		t.Fatalf("campaign draft was not persisted")
	}
	for _, c := range d.store.campaigns {
		if c.Status != domain.StatusDraft {
			t.Errorf("campaign status = %s, want draft", c.Status)
		}
	}
	if len(d.store.emails) != 0 {
		t.Errorf("stored %d email rows, want 0", len(d.store.emails))
	}
	if d.gen.Calls() != 0 {
		t.Errorf("generator called %d times, want 0", d.gen.Calls())
	}
}

func TestCreateRejectsInvalidDelays(t *testing.T) {
	tenantID := uuid.New()
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	tests := []struct {
		name   string
		delays map[string]int
	}{
		{"missing position 1", map[string]int{"2": 3}},
		{"decreasing", map[string]int{"1": 5, "2": 2}},
		{"negative", map[string]int{"1": -1}},
		{"non-numeric key", map[string]int{"first": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			req.Delays = tt.delays
			_, err := svc.Create(context.Background(), tenantID, uuid.New(), req)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	tenantID := uuid.New()
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Activate(context.Background(), tenantID, resp.ID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	name := "renamed"
	_, err = svc.Update(context.Background(), tenantID, resp.ID, transport.UpdateCampaignRequest{Name: &name})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("update of active campaign: got %v, want validation error", err)
	}
}

func TestActivateSchedulesGeneratedEmails(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 3)
	gen := newFakeGen()
	gen.FailFor(leads[1].Email)

	sched := &fakeScheduler{}
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: gen, scheduler: sched, sender: &fakeSender{}}
	svc := newTestService(d)

	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	req := createRequest()
	req.ScheduledStart = &start

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	activated, err := svc.Activate(context.Background(), tenantID, resp.ID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if activated.Status != string(domain.StatusActive) {
		t.Errorf("status = %s, want active", activated.Status)
	}

	// Only the two generated rows get scheduled; the failed one stays failed.
	if len(sched.tasks) != 2 {
		t.Fatalf("scheduled %d sends, want 2", len(sched.tasks))
	}
	for _, task := range sched.tasks {
		if !task.runAt.Equal(start) {
			t.Errorf("position 1 send at %v, want %v", task.runAt, start)
		}
	}

	scheduled, failed := 0, 0
	for _, row := range d.store.emails {
		switch row.Status {
		case domain.EmailScheduled:
			scheduled++
			if row.ScheduledSendAt == nil || !row.ScheduledSendAt.Equal(start) {
				t.Errorf("scheduled row has send time %v, want %v", row.ScheduledSendAt, start)
			}
		case domain.EmailFailed:
			failed++
		default:
			t.Errorf("unexpected row status %s after activation", row.Status)
		}
	}
	if scheduled != 2 || failed != 1 {
		t.Errorf("rows scheduled/failed = %d/%d, want 2/1", scheduled, failed)
	}
}

func TestActivateDefaultsScheduledStart(t *testing.T) {
	tenantID := uuid.New()
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), scheduler: &fakeScheduler{}, sender: &fakeSender{}}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	before := time.Now().UTC()
	activated, err := svc.Activate(context.Background(), tenantID, resp.ID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if activated.ScheduledStart == nil {
		t.Fatal("scheduled start not defaulted on activation")
	}
	if activated.ScheduledStart.Before(before.Add(-time.Minute)) {
		t.Errorf("defaulted scheduled start %v is in the past", activated.ScheduledStart)
	}
}

func TestDeleteDeactivates(t *testing.T) {
	tenantID := uuid.New()
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Delete(context.Background(), tenantID, resp.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The row survives as an inactive campaign.
	stored, err := d.store.GetCampaign(context.Background(), tenantID, resp.ID)
	if err != nil {
		t.Fatalf("campaign row removed: %v", err)
	}
	if stored.Status != domain.StatusInactive || stored.IsActive {
		t.Errorf("campaign after delete: status=%s isActive=%v, want inactive/false", stored.Status, stored.IsActive)
	}
}

func TestSendScheduledEmail(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 1)
	sender := &fakeSender{}
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: newFakeGen(), scheduler: &fakeScheduler{}, sender: sender}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Activate(context.Background(), tenantID, resp.ID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	emailID := d.store.emails[0].ID
	if err := svc.SendScheduledEmail(context.Background(), emailID); err != nil {
		t.Fatalf("SendScheduledEmail failed: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if sender.sent[0].ToEmail != leads[0].Email {
		t.Errorf("sent to %q, want %q", sender.sent[0].ToEmail, leads[0].Email)
	}

	row, _ := d.store.GetEmailByID(context.Background(), emailID)
	if row.Status != domain.EmailSent {
		t.Errorf("row status = %s, want sent", row.Status)
	}
	if row.SentAt == nil {
		t.Error("sent row has no sent timestamp")
	}

	// Redelivery of the same task is a no-op.
	if err := svc.SendScheduledEmail(context.Background(), emailID); err != nil {
		t.Fatalf("redelivery errored: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("redelivery sent again; %d messages total", len(sender.sent))
	}
}

func TestSendScheduledEmailMarksFailureTerminal(t *testing.T) {
	tenantID := uuid.New()
	sender := &fakeSender{failAll: true}
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), scheduler: &fakeScheduler{}, sender: sender}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Activate(context.Background(), tenantID, resp.ID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	emailID := d.store.emails[0].ID
	// A transport failure is recorded on the row, not returned, so the task
	// queue does not retry a terminal row.
	if err := svc.SendScheduledEmail(context.Background(), emailID); err != nil {
		t.Fatalf("send failure surfaced to the worker: %v", err)
	}

	row, _ := d.store.GetEmailByID(context.Background(), emailID)
	if row.Status != domain.EmailFailed {
		t.Errorf("row status = %s, want failed", row.Status)
	}
	if row.ErrorMessage == "" {
		t.Error("failed row has no error message")
	}
}

func TestRecordBounce(t *testing.T) {
	tenantID := uuid.New()
	sender := &fakeSender{}
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: makeLeads(tenantID, 1)}, gen: newFakeGen(), scheduler: &fakeScheduler{}, sender: sender}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Activate(context.Background(), tenantID, resp.ID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	emailID := d.store.emails[0].ID

	// Bouncing a not-yet-sent email is rejected.
	if _, err := svc.RecordBounce(context.Background(), tenantID, resp.ID, emailID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("bounce before send: got %v, want validation error", err)
	}

	if err := svc.SendScheduledEmail(context.Background(), emailID); err != nil {
		t.Fatalf("SendScheduledEmail failed: %v", err)
	}
	bounced, err := svc.RecordBounce(context.Background(), tenantID, resp.ID, emailID)
	if err != nil {
		t.Fatalf("RecordBounce failed: %v", err)
	}
	if bounced.Status != string(domain.EmailBounced) {
		t.Errorf("status = %s, want bounced", bounced.Status)
	}
}

func TestStatsTallyByStatus(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 4)
	gen := newFakeGen()
	gen.FailFor(leads[3].Email)

	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: gen, sender: &fakeSender{}}
	svc := newTestService(d)

	resp, err := svc.Create(context.Background(), tenantID, uuid.New(), createRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err := svc.Stats(context.Background(), tenantID, resp.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 {
		t.Errorf("total = %d, want 4", stats.Total)
	}
	if stats.ByStatus["generated"] != 3 || stats.ByStatus["failed"] != 1 {
		t.Errorf("by status = %v, want generated:3 failed:1", stats.ByStatus)
	}
}

func TestPreviewForLeadDoesNotPersist(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 1)
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	preview, err := svc.PreviewForLead(context.Background(), tenantID, leads[0].ID, transport.PreviewEmailRequest{
		Context: createRequest().Context,
	})
	if err != nil {
		t.Fatalf("PreviewForLead failed: %v", err)
	}
	if preview.Subject == "" || preview.Body == "" {
		t.Error("preview has empty content")
	}
	if len(d.store.emails) != 0 {
		t.Errorf("preview persisted %d rows", len(d.store.emails))
	}
}

func TestRunGenerationOrderIsDeterministic(t *testing.T) {
	tenantID := uuid.New()
	leads := makeLeads(tenantID, 20)
	d := deps{store: newFakeStore(), leads: &fakeLeads{leads: leads}, gen: newFakeGen(), sender: &fakeSender{}}
	svc := newTestService(d)

	campaign := &domain.Campaign{ID: uuid.New(), TenantID: tenantID, Context: domain.Context{CompanyName: "Acme"}}
	rows := svc.runGeneration(context.Background(), campaign, "sales@acme.io", leads)

	if len(rows) != len(leads) {
		t.Fatalf("got %d rows for %d leads", len(rows), len(leads))
	}
	for i, row := range rows {
		if row.LeadID != leads[i].ID {
			t.Fatalf("row %d out of order despite concurrent generation", i)
		}
	}
	if got := d.gen.Calls(); got != len(leads) {
		t.Errorf("generator called %d times, want %d", got, len(leads))
	}
}
