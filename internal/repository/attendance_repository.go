package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulearn-id/lms-api/internal/models"
)

// AttendanceRepository handles attendance record persistence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts an attendance record. Re-marking the same session for the
// same student overwrites the previous durations.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO attendance_records (id, student_id, course_id, session_id, duration_seconds, total_duration_seconds, date, created_at)
        VALUES (:id, :student_id, :course_id, :session_id, :duration_seconds, :total_duration_seconds, :date, :created_at)
        ON CONFLICT (student_id, course_id, session_id)
        DO UPDATE SET duration_seconds = EXCLUDED.duration_seconds, total_duration_seconds = EXCLUDED.total_duration_seconds, date = EXCLUDED.date`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// ListByStudentAndCourse returns attendance records ordered by date.
func (r *AttendanceRepository) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, course_id, session_id, duration_seconds, total_duration_seconds, date, created_at
        FROM attendance_records WHERE student_id = $1 AND course_id = $2 ORDER BY date ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}
