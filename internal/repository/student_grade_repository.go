package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulearn-id/lms-api/internal/models"
)

// StudentGradeRepository handles grade row persistence.
type StudentGradeRepository struct {
	db *sqlx.DB
}

// NewStudentGradeRepository creates a new student grade repository.
func NewStudentGradeRepository(db *sqlx.DB) *StudentGradeRepository {
	return &StudentGradeRepository{db: db}
}

const detailColumns = `sg.id, sg.enrollment_id, sg.grade_item_id, sg.score, sg.state, sg.submitted_at, sg.payload, sg.feedback, sg.created_at, sg.updated_at,
        gi.category, gi.name AS item_name, gi.max_score, gi.due_date, gi.order_index`

// FindByEnrollmentAndItem returns the grade row for an (enrollment, item) key.
func (r *StudentGradeRepository) FindByEnrollmentAndItem(ctx context.Context, enrollmentID, itemID string) (*models.StudentGradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_grades sg
        JOIN grade_items gi ON gi.id = sg.grade_item_id
        WHERE sg.enrollment_id = $1 AND sg.grade_item_id = $2`, detailColumns)
	var detail models.StudentGradeDetail
	if err := r.db.GetContext(ctx, &detail, query, enrollmentID, itemID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByEnrollment returns the dense grade rows joined with catalog items,
// in catalog order.
func (r *StudentGradeRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.StudentGradeDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_grades sg
        JOIN grade_items gi ON gi.id = sg.grade_item_id
        WHERE sg.enrollment_id = $1
        ORDER BY gi.order_index ASC`, detailColumns)
	var details []models.StudentGradeDetail
	if err := r.db.SelectContext(ctx, &details, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return details, nil
}

// UpsertSubmission records a submission payload. Re-submission overwrites
// the payload and timestamp; a previously graded score is preserved while
// the state drops back to SUBMITTED pending re-grading.
func (r *StudentGradeRepository) UpsertSubmission(ctx context.Context, grade *models.StudentGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO student_grades (id, enrollment_id, grade_item_id, score, state, submitted_at, payload, feedback, created_at, updated_at)
        VALUES (:id, :enrollment_id, :grade_item_id, :score, :state, :submitted_at, :payload, :feedback, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, grade_item_id)
        DO UPDATE SET payload = EXCLUDED.payload, submitted_at = EXCLUDED.submitted_at, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert submission: %w", err)
	}
	return nil
}

// UpsertGrade records an instructor grading event on the (enrollment, item)
// key: score, feedback, state GRADED. Last writer wins.
func (r *StudentGradeRepository) UpsertGrade(ctx context.Context, grade *models.StudentGrade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO student_grades (id, enrollment_id, grade_item_id, score, state, submitted_at, payload, feedback, created_at, updated_at)
        VALUES (:id, :enrollment_id, :grade_item_id, :score, :state, :submitted_at, :payload, :feedback, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, grade_item_id)
        DO UPDATE SET score = EXCLUDED.score, feedback = EXCLUDED.feedback, state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}
