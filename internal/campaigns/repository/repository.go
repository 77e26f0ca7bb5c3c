// Package repository provides tenant-scoped persistence for campaigns and
// their email rows. Email rows carry no tenant column; tenant scoping goes
// through the owning campaign.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"outreach_backend/internal/campaigns/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("campaign not found")
	ErrEmailNotFound = errors.New("campaign email not found")
)

const campaignColumns = `id, tenant_id, user_id, name, context, delays,
	max_sequence_length, status, is_active, scheduled_start, created_at, updated_at`

const emailColumns = `e.id, e.campaign_id, e.lead_id, e.from_email, e.provider,
	e.sequence_position, e.subject, e.body, e.status, e.error_message,
	e.scheduled_send_at, e.sent_at, e.opened_at, e.replied_at, e.created_at, e.updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter narrows campaign listings.
type ListFilter struct {
	Search   string
	Status   *domain.Status
	IsActive *bool
}

func encodeDelays(d domain.Delays) ([]byte, error) {
	// jsonb object keys are strings
	out := make(map[string]int, len(d))
	for pos, days := range d {
		out[strconv.Itoa(pos)] = days
	}
	return json.Marshal(out)
}

func decodeDelays(raw []byte) (domain.Delays, error) {
	decoded := make(map[string]int)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode delays: %w", err)
		}
	}
	delays := make(domain.Delays, len(decoded))
	for key, days := range decoded {
		pos, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("decode delays: position %q not numeric", key)
		}
		delays[pos] = days
	}
	return delays, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var (
		campaign    domain.Campaign
		contextJSON []byte
		delaysJSON  []byte
		status      string
	)
	err := row.Scan(
		&campaign.ID, &campaign.TenantID, &campaign.OwnerID, &campaign.Name,
		&contextJSON, &delaysJSON,
		&campaign.MaxSequenceLength, &status, &campaign.IsActive, &campaign.ScheduledStart,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	campaign.Status = domain.Status(status)

	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &campaign.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}
	campaign.Delays, err = decodeDelays(delaysJSON)
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *Repository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	contextJSON, err := json.Marshal(campaign.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	delaysJSON, err := encodeDelays(campaign.Delays)
	if err != nil {
		return fmt.Errorf("encode delays: %w", err)
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (
			id, tenant_id, user_id, name, context, delays,
			max_sequence_length, status, is_active, scheduled_start
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`,
		campaign.ID, campaign.TenantID, campaign.OwnerID, campaign.Name,
		contextJSON, delaysJSON,
		campaign.MaxSequenceLength, string(campaign.Status), campaign.IsActive, campaign.ScheduledStart,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt)
}

func (r *Repository) GetCampaign(ctx context.Context, tenantID, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := scanCampaign(r.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return campaign, err
}

// GetCampaignByID loads a campaign without tenant scoping. The send worker
// uses it; the row carries the tenant for downstream scoped lookups.
func (r *Repository) GetCampaignByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	campaign, err := scanCampaign(r.pool.QueryRow(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return campaign, err
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	contextJSON, err := json.Marshal(campaign.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	delaysJSON, err := encodeDelays(campaign.Delays)
	if err != nil {
		return fmt.Errorf("encode delays: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET
			name = $3, context = $4, delays = $5, max_sequence_length = $6,
			status = $7, is_active = $8, scheduled_start = $9, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
	`,
		campaign.ID, campaign.TenantID,
		campaign.Name, contextJSON, delaysJSON, campaign.MaxSequenceLength,
		string(campaign.Status), campaign.IsActive, campaign.ScheduledStart,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCampaigns returns one page of the tenant's campaigns plus the total.
func (r *Repository) ListCampaigns(ctx context.Context, tenantID uuid.UUID, filter ListFilter, page, pageSize int) ([]domain.Campaign, int, error) {
	where := "tenant_id = $1"
	args := []any{tenantID}

	if filter.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(*filter.Status))
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND is_active = $%d", len(args)+1)
		args = append(args, *filter.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM campaigns WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, campaignColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := make([]domain.Campaign, 0)
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *campaign)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return campaigns, total, nil
}

func scanEmail(row rowScanner) (*domain.CampaignEmail, error) {
	var (
		email  domain.CampaignEmail
		status string
	)
	err := row.Scan(
		&email.ID, &email.CampaignID, &email.LeadID, &email.FromEmail, &email.Provider,
		&email.SequencePosition, &email.Subject, &email.Body, &status, &email.ErrorMessage,
		&email.ScheduledSendAt, &email.SentAt, &email.OpenedAt, &email.RepliedAt,
		&email.CreatedAt, &email.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	email.Status = domain.EmailStatus(status)
	return &email, nil
}

func (r *Repository) CreateEmail(ctx context.Context, email *domain.CampaignEmail) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaign_emails (
			id, campaign_id, lead_id, from_email, provider,
			sequence_position, subject, body, status, error_message, scheduled_send_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`,
		email.ID, email.CampaignID, email.LeadID, email.FromEmail, email.Provider,
		email.SequencePosition, email.Subject, email.Body, string(email.Status),
		email.ErrorMessage, email.ScheduledSendAt,
	).Scan(&email.CreatedAt, &email.UpdatedAt)
}

// GetEmail loads one email row, scoped through its campaign's tenant.
func (r *Repository) GetEmail(ctx context.Context, tenantID, campaignID, emailID uuid.UUID) (*domain.CampaignEmail, error) {
	email, err := scanEmail(r.pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM campaign_emails e
		JOIN campaigns c ON c.id = e.campaign_id
		WHERE e.id = $1 AND e.campaign_id = $2 AND c.tenant_id = $3
	`, emailID, campaignID, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmailNotFound
	}
	return email, err
}

// GetEmailByID loads one email row without tenant context. The send worker
// uses this; the task id is not caller-supplied.
func (r *Repository) GetEmailByID(ctx context.Context, emailID uuid.UUID) (*domain.CampaignEmail, error) {
	email, err := scanEmail(r.pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM campaign_emails e
		WHERE e.id = $1
	`, emailID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmailNotFound
	}
	return email, err
}

// ListEmails returns all rows for a campaign in insertion-stable order.
func (r *Repository) ListEmails(ctx context.Context, tenantID, campaignID uuid.UUID) ([]domain.CampaignEmail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emailColumns+`
		FROM campaign_emails e
		JOIN campaigns c ON c.id = e.campaign_id
		WHERE e.campaign_id = $1 AND c.tenant_id = $2
		ORDER BY e.sequence_position ASC, e.created_at ASC, e.id ASC
	`, campaignID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]domain.CampaignEmail, 0)
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return emails, nil
}

// ListEmailsByStatus returns a campaign's rows in one status.
func (r *Repository) ListEmailsByStatus(ctx context.Context, tenantID, campaignID uuid.UUID, status domain.EmailStatus) ([]domain.CampaignEmail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emailColumns+`
		FROM campaign_emails e
		JOIN campaigns c ON c.id = e.campaign_id
		WHERE e.campaign_id = $1 AND c.tenant_id = $2 AND e.status = $3
		ORDER BY e.created_at ASC, e.id ASC
	`, campaignID, tenantID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make([]domain.CampaignEmail, 0)
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, *email)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return emails, nil
}

func (r *Repository) UpdateEmail(ctx context.Context, email *domain.CampaignEmail) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaign_emails SET
			subject = $2, body = $3, status = $4, error_message = $5,
			scheduled_send_at = $6, sent_at = $7, opened_at = $8, replied_at = $9,
			updated_at = now()
		WHERE id = $1
	`,
		email.ID,
		email.Subject, email.Body, string(email.Status), email.ErrorMessage,
		email.ScheduledSendAt, email.SentAt, email.OpenedAt, email.RepliedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailNotFound
	}
	return nil
}

// CountEmailsByStatus tallies a campaign's rows per status.
func (r *Repository) CountEmailsByStatus(ctx context.Context, tenantID, campaignID uuid.UUID) (map[domain.EmailStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.status, count(*)
		FROM campaign_emails e
		JOIN campaigns c ON c.id = e.campaign_id
		WHERE e.campaign_id = $1 AND c.tenant_id = $2
		GROUP BY e.status
	`, campaignID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.EmailStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.EmailStatus(status)] = count
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}
