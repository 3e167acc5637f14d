package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulearn-id/lms-api/internal/models"
)

// GradeItemRepository handles catalog item persistence.
type GradeItemRepository struct {
	db *sqlx.DB
}

// NewGradeItemRepository creates a new grade item repository.
func NewGradeItemRepository(db *sqlx.DB) *GradeItemRepository {
	return &GradeItemRepository{db: db}
}

// BulkCreate inserts the full catalog in one transaction. A partial catalog
// breaks the density assumption downstream, so any failed insert rolls the
// whole provisioning back.
func (r *GradeItemRepository) BulkCreate(ctx context.Context, items []models.GradeItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].CreatedAt = now
		const query = `INSERT INTO grade_items (id, course_id, category, name, max_score, due_date, order_index, created_at)
            VALUES (:id, :course_id, :category, :name, :max_score, :due_date, :order_index, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, items[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk create grade item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade items: %w", err)
	}
	return nil
}

// FindByID returns a single catalog item.
func (r *GradeItemRepository) FindByID(ctx context.Context, id string) (*models.GradeItem, error) {
	const query = `SELECT id, course_id, category, name, max_score, due_date, order_index, created_at
        FROM grade_items WHERE id = $1`
	var item models.GradeItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByCourse returns the course catalog in provisioning order.
func (r *GradeItemRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error) {
	const query = `SELECT id, course_id, category, name, max_score, due_date, order_index, created_at
        FROM grade_items WHERE course_id = $1 ORDER BY order_index ASC`
	var items []models.GradeItem
	if err := r.db.SelectContext(ctx, &items, query, courseID); err != nil {
		return nil, fmt.Errorf("list grade items: %w", err)
	}
	return items, nil
}

// UpdateDueDate applies an administrative due date edit.
func (r *GradeItemRepository) UpdateDueDate(ctx context.Context, id string, dueDate *time.Time) error {
	const query = `UPDATE grade_items SET due_date = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, dueDate); err != nil {
		return fmt.Errorf("update grade item due date: %w", err)
	}
	return nil
}
