package repository

import (
	"strings"
	"testing"
)

func TestLeadColumnsIncludeAuditFields(t *testing.T) {
	for _, column := range []string{"tenant_id", "is_deleted", "custom_fields", "created_by"} {
		if !strings.Contains(leadColumns, column) {
			t.Errorf("lead column list missing %q", column)
		}
	}
}

func TestQueriesAreTenantScoped(t *testing.T) {
	queries := map[string]string{
		"getLeadByIDQuery":    getLeadByIDQuery,
		"updateLeadQuery":     updateLeadQuery,
		"softDeleteLeadQuery": softDeleteLeadQuery,
	}
	for name, query := range queries {
		if !strings.Contains(query, "tenant_id = $2") {
			t.Errorf("%s does not scope by tenant", name)
		}
	}
}

func TestReadAndDeleteSkipDeletedRows(t *testing.T) {
	queries := map[string]string{
		"getLeadByIDQuery":    getLeadByIDQuery,
		"softDeleteLeadQuery": softDeleteLeadQuery,
	}
	for name, query := range queries {
		if !strings.Contains(query, "is_deleted = false") {
			t.Errorf("%s does not exclude deleted rows", name)
		}
	}
}
