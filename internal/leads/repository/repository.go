// Package repository provides tenant-scoped persistence for leads.
// Every query carries the tenant identifier; scoping is enforced here at the
// data-access boundary, not only in calling code.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, tenant_id, email, first_name, last_name, company_name, job_title, phone,
	source, source_url, notes, status, score, custom_fields,
	contact_attempts, last_contacted_at, next_follow_up_at,
	is_deleted, created_by, created_at, updated_at`

const getLeadByIDQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE id = $1 AND tenant_id = $2 AND is_deleted = false`

const updateLeadQuery = `
	UPDATE leads SET
		email = $3, first_name = $4, last_name = $5, company_name = $6,
		job_title = $7, phone = $8, source = $9, source_url = $10, notes = $11,
		status = $12, score = $13, custom_fields = $14,
		contact_attempts = $15, last_contacted_at = $16, next_follow_up_at = $17,
		is_deleted = $18, updated_at = now()
	WHERE id = $1 AND tenant_id = $2`

const softDeleteLeadQuery = `
	UPDATE leads
	SET is_deleted = true, updated_at = now()
	WHERE id = $1 AND tenant_id = $2 AND is_deleted = false`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var (
		lead         domain.Lead
		source       string
		status       string
		customFields []byte
	)
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Email, &lead.FirstName, &lead.LastName,
		&lead.CompanyName, &lead.JobTitle, &lead.Phone,
		&source, &lead.SourceURL, &lead.Notes, &status, &lead.Score, &customFields,
		&lead.ContactAttempts, &lead.LastContactedAt, &lead.NextFollowUpAt,
		&lead.IsDeleted, &lead.CreatedBy, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Source = domain.Source(source)
	lead.Status = domain.Status(status)

	lead.CustomFields = domain.CustomFields{}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &lead.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom_fields: %w", err)
		}
	}
	return &lead, nil
}

func encodeCustomFields(cf domain.CustomFields) ([]byte, error) {
	if cf == nil {
		cf = domain.CustomFields{}
	}
	return json.Marshal(cf)
}

func (r *Repository) Create(ctx context.Context, lead *domain.Lead) error {
	customFields, err := encodeCustomFields(lead.CustomFields)
	if err != nil {
		return fmt.Errorf("encode custom_fields: %w", err)
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			id, tenant_id, email, first_name, last_name, company_name, job_title, phone,
			source, source_url, notes, status, score, custom_fields, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`,
		lead.ID, lead.TenantID, lead.Email, lead.FirstName, lead.LastName,
		lead.CompanyName, lead.JobTitle, lead.Phone,
		string(lead.Source), lead.SourceURL, lead.Notes, string(lead.Status), lead.Score,
		customFields, lead.CreatedBy,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, getLeadByIDQuery, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return lead, err
}

// FindByEmail looks up a lead by normalized email. With includeDeleted it
// also returns soft-deleted rows, which dedup needs for reactivation.
func (r *Repository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string, includeDeleted bool) (*domain.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND email = $2`
	if !includeDeleted {
		query += ` AND is_deleted = false`
	}
	query += `
		ORDER BY created_at DESC
		LIMIT 1`

	lead, err := scanLead(r.pool.QueryRow(ctx, query, tenantID, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return lead, err
}

func (r *Repository) Update(ctx context.Context, lead *domain.Lead) error {
	customFields, err := encodeCustomFields(lead.CustomFields)
	if err != nil {
		return fmt.Errorf("encode custom_fields: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateLeadQuery,
		lead.ID, lead.TenantID,
		lead.Email, lead.FirstName, lead.LastName, lead.CompanyName,
		lead.JobTitle, lead.Phone, string(lead.Source), lead.SourceURL, lead.Notes,
		string(lead.Status), lead.Score, customFields,
		lead.ContactAttempts, lead.LastContactedAt, lead.NextFollowUpAt,
		lead.IsDeleted,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flips the delete flag. The row stays for audit and reactivation.
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, softDeleteLeadQuery, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of leads matching the filter plus the total count.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter *domain.Filter, page, pageSize int) ([]domain.Lead, int, error) {
	where, args := buildFilterWhere(tenantID, filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, where, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

// ListAllByFilter returns every matching lead without pagination, in stable
// creation order. Campaign targeting iterates this set, so the ordering must
// be deterministic.
func (r *Repository) ListAllByFilter(ctx context.Context, tenantID uuid.UUID, filter *domain.Filter) ([]domain.Lead, error) {
	where, args := buildFilterWhere(tenantID, filter)

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE `+where+`
		ORDER BY created_at ASC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}
