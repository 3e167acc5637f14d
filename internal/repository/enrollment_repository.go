package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulearn-id/lms-api/internal/models"
)

// EnrollmentRepository handles enrollment persistence.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ExistsActive reports whether the student already holds an active
// enrollment for the course.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.EnrollmentStatusActive); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// CreateWithGrades inserts the enrollment and its placeholder grade rows in
// one transaction so the density invariant is never partially committed.
func (r *EnrollmentRepository) CreateWithGrades(ctx context.Context, enrollment *models.Enrollment, grades []models.StudentGrade) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const enrollQuery = `INSERT INTO enrollments (id, student_id, course_id, status, enrolled_at, final_grade)
        VALUES (:id, :student_id, :course_id, :status, :enrolled_at, :final_grade)`
	if _, err := tx.NamedExecContext(ctx, enrollQuery, enrollment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create enrollment: %w", err)
	}
	for i := range grades {
		if grades[i].ID == "" {
			grades[i].ID = uuid.NewString()
		}
		grades[i].EnrollmentID = enrollment.ID
		grades[i].CreatedAt = now
		grades[i].UpdatedAt = now
		const gradeQuery = `INSERT INTO student_grades (id, enrollment_id, grade_item_id, score, state, submitted_at, payload, feedback, created_at, updated_at)
            VALUES (:id, :enrollment_id, :grade_item_id, :score, :state, :submitted_at, :payload, :feedback, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, gradeQuery, grades[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create placeholder grade: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// FindByID returns a single enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, enrolled_at, final_grade FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndCourse returns the student's enrollment for a course.
func (r *EnrollmentRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, enrolled_at, final_grade
        FROM enrollments WHERE student_id = $1 AND course_id = $2 ORDER BY enrolled_at DESC LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListActiveByCourse returns all active enrollments for a course.
func (r *EnrollmentRepository) ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, status, enrolled_at, final_grade
        FROM enrollments WHERE course_id = $1 AND status = $2`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByStudent returns enrollments joined with course titles.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.status, e.enrolled_at, e.final_grade, c.title AS course_title
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE e.student_id = $1
        ORDER BY e.enrolled_at ASC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return details, nil
}

// UpdateFinalGrade refreshes the denormalized final grade cache field.
func (r *EnrollmentRepository) UpdateFinalGrade(ctx context.Context, id string, finalGrade float64) error {
	const query = `UPDATE enrollments SET final_grade = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalGrade); err != nil {
		return fmt.Errorf("update final grade: %w", err)
	}
	return nil
}

// UpdateStatus marks an enrollment dropped or reactivated.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}
