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

type enrollmentRepository interface {
	ExistsActive(ctx context.Context, studentID, courseID string) (bool, error)
	CreateWithGrades(ctx context.Context, enrollment *models.Enrollment, grades []models.StudentGrade) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type gradeItemLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error)
}

type studentGradeLister interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.StudentGradeDetail, error)
}

// InitializeEnrollmentRequest describes the enrollment payload.
type InitializeEnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// EnrollmentService registers students and materializes their grade rows.
type EnrollmentService struct {
	enrollments enrollmentRepository
	courses     courseReader
	items       gradeItemLister
	grades      studentGradeLister
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepository, courses courseReader, items gradeItemLister, grades studentGradeLister, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{enrollments: enrollments, courses: courses, items: items, grades: grades, validator: validate, logger: logger}
}

// Initialize creates the enrollment and one zero-valued grade row per
// catalog item in a single transaction. Duplicate active enrollment is an
// error, not an idempotent no-op. An empty catalog simply yields zero grade
// rows; provisioning may legitimately not have happened yet.
func (s *EnrollmentService) Initialize(ctx context.Context, req InitializeEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	exists, err := s.enrollments.ExistsActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	items, err := s.items.ListByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load catalog")
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: time.Now().UTC(),
	}
	placeholders := make([]models.StudentGrade, 0, len(items))
	for _, item := range items {
		placeholders = append(placeholders, models.StudentGrade{
			GradeItemID: item.ID,
			Score:       0,
			State:       models.StateNotSubmitted,
		})
	}
	if err := s.enrollments.CreateWithGrades(ctx, enrollment, placeholders); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to initialize enrollment")
	}
	s.logger.Info("enrollment initialized",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID),
		zap.Int("grade_rows", len(placeholders)))
	return enrollment, nil
}

// Grades returns the dense grade rows for an enrollment with the derived
// late flag populated.
func (s *EnrollmentService) Grades(ctx context.Context, enrollmentID string) ([]models.StudentGradeDetail, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	details, err := s.grades.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	for i := range details {
		details[i].IsLate = details[i].Late()
	}
	return details, nil
}

// Drop marks an enrollment dropped. Grade rows stay; they are only removed
// by cascading enrollment deletion.
func (s *EnrollmentService) Drop(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment not active")
	}
	if err := s.enrollments.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusDropped); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	return nil
}
