package repository

import (
	"fmt"
	"strings"

	"outreach_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// buildFilterWhere composes the WHERE clause for lead queries: tenant scoping
// and the not-deleted rule always apply, every supplied predicate is ANDed on
// top. Returns the clause (without the WHERE keyword) and its ordered args.
func buildFilterWhere(tenantID uuid.UUID, f *domain.Filter) (string, []any) {
	clauses := []string{"tenant_id = $1", "is_deleted = false"}
	args := []any{tenantID}

	next := func() int { return len(args) + 1 }

	if f != nil {
		if f.Status != nil {
			clauses = append(clauses, fmt.Sprintf("status = $%d", next()))
			args = append(args, string(*f.Status))
		}
		if f.Source != nil {
			clauses = append(clauses, fmt.Sprintf("source = $%d", next()))
			args = append(args, string(*f.Source))
		}
		if f.CompanyName != nil {
			clauses = append(clauses, fmt.Sprintf("company_name ILIKE $%d", next()))
			args = append(args, "%"+*f.CompanyName+"%")
		}
		if f.MinScore != nil {
			clauses = append(clauses, fmt.Sprintf("score >= $%d", next()))
			args = append(args, *f.MinScore)
		}
		if f.MaxScore != nil {
			clauses = append(clauses, fmt.Sprintf("score <= $%d", next()))
			args = append(args, *f.MaxScore)
		}
		if f.CreatedAfter != nil {
			clauses = append(clauses, fmt.Sprintf("created_at >= $%d", next()))
			args = append(args, *f.CreatedAfter)
		}
		if f.CreatedBefore != nil {
			clauses = append(clauses, fmt.Sprintf("created_at <= $%d", next()))
			args = append(args, *f.CreatedBefore)
		}
		if f.Search != nil {
			n := next()
			clauses = append(clauses, fmt.Sprintf(
				"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company_name ILIKE $%d)",
				n, n, n, n))
			args = append(args, "%"+*f.Search+"%")
		}
	}

	return strings.Join(clauses, " AND "), args
}
