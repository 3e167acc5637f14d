package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

// GradeSummaryRepository stores denormalized grade snapshots in Redis.
// Availability is best-effort by design; callers fall back to the
// enrollment final_grade column when this store is down.
type GradeSummaryRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGradeSummaryRepository constructs a summary repository. A zero TTL
// keeps snapshots until the next overwrite.
func NewGradeSummaryRepository(client *redis.Client, ttl time.Duration) *GradeSummaryRepository {
	return &GradeSummaryRepository{client: client, ttl: ttl}
}

func summaryKey(enrollmentID string) string {
	return fmt.Sprintf("grade_summary:%s", enrollmentID)
}

// Upsert writes the snapshot. Last write wins.
func (r *GradeSummaryRepository) Upsert(ctx context.Context, summary models.GradeSummary) error {
	if r.client == nil {
		return appErrors.Clone(appErrors.ErrRecalcUnavailable, "summary store not configured")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal grade summary: %w", err)
	}
	if err := r.client.Set(ctx, summaryKey(summary.EnrollmentID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store grade summary: %w", err)
	}
	return nil
}

// Fetch returns the stored snapshot for an enrollment.
func (r *GradeSummaryRepository) Fetch(ctx context.Context, enrollmentID string) (*models.GradeSummary, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, summaryKey(enrollmentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("fetch grade summary: %w", err)
	}
	var summary models.GradeSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal grade summary: %w", err)
	}
	return &summary, nil
}
