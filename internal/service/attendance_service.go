package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error)
}

// RecordAttendanceRequest describes one session attendance payload.
type RecordAttendanceRequest struct {
	StudentID            string    `json:"student_id" validate:"required"`
	CourseID             string    `json:"course_id" validate:"required"`
	SessionID            string    `json:"session_id" validate:"required"`
	DurationSeconds      int64     `json:"duration_seconds" validate:"min=0"`
	TotalDurationSeconds int64     `json:"total_duration_seconds" validate:"min=1"`
	Date                 time.Time `json:"date" validate:"required"`
}

// AttendanceService records session presence and summarizes attendance rates.
type AttendanceService struct {
	records     attendanceRepository
	enrollments enrollmentFinder
	recalc      gradeRecalculator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(records attendanceRepository, enrollments enrollmentFinder, recalc gradeRecalculator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{records: records, enrollments: enrollments, recalc: recalc, validator: validate, logger: logger}
}

// Record stores one session record. Re-marking a session overwrites its
// durations. Attendance feeds the weighted grade, so the final grade is
// recalculated best-effort after the write.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.DurationSeconds > req.TotalDurationSeconds {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration exceeds session length")
	}
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.ErrNotEnrolled
	}

	record := &models.AttendanceRecord{
		StudentID:            req.StudentID,
		CourseID:             req.CourseID,
		SessionID:            req.SessionID,
		DurationSeconds:      req.DurationSeconds,
		TotalDurationSeconds: req.TotalDurationSeconds,
		Date:                 req.Date,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	if s.recalc != nil {
		if _, err := s.recalc.RecalculateAndPersist(ctx, req.CourseID, req.StudentID); err != nil {
			s.logger.Warn("final grade recalculation failed",
				zap.String("course_id", req.CourseID),
				zap.String("student_id", req.StudentID),
				zap.Error(err))
		}
	}
	return record, nil
}

// List returns the raw session records for a student in a course.
func (s *AttendanceService) List(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	records, err := s.records.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Summary returns the aggregate attendance rate for a student in a course.
func (s *AttendanceService) Summary(ctx context.Context, studentID, courseID string) (*models.AttendanceSummary, error) {
	records, err := s.records.ListByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return &models.AttendanceSummary{
		StudentID:    studentID,
		CourseID:     courseID,
		SessionCount: len(records),
		Rate:         AttendanceRate(records),
	}, nil
}
