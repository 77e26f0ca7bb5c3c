package service

import (
	"context"
	"fmt"
	"time"

	"outreach_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// GenerationQuota limits how many generation calls a tenant may spend per
// day, tracked in redis. A nil quota, missing client, or non-positive limit
// means unlimited.
type GenerationQuota struct {
	client redis.UniversalClient
	limit  int
}

// NewGenerationQuota creates a daily generation quota.
func NewGenerationQuota(client redis.UniversalClient, dailyLimit int) *GenerationQuota {
	return &GenerationQuota{client: client, limit: dailyLimit}
}

// Reserve claims n generation calls for the tenant's current day. When the
// claim would exceed the daily limit, it is rolled back and the whole batch
// is rejected before any upstream call.
func (q *GenerationQuota) Reserve(ctx context.Context, tenantID uuid.UUID, n int) error {
	if q == nil || q.client == nil || q.limit <= 0 || n <= 0 {
		return nil
	}

	key := quotaKey(tenantID, time.Now().UTC())

	total, err := q.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return fmt.Errorf("generation quota: %w", err)
	}
	if total == int64(n) {
		// First claim of the day; the counter dies with the day.
		q.client.Expire(ctx, key, 24*time.Hour)
	}

	if total > int64(q.limit) {
		q.client.DecrBy(ctx, key, int64(n))
		return apperr.Validation(fmt.Sprintf("daily generation quota of %d exceeded", q.limit))
	}
	return nil
}

func quotaKey(tenantID uuid.UUID, day time.Time) string {
	return "genquota:" + tenantID.String() + ":" + day.Format("2006-01-02")
}
