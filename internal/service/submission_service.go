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

type gradeItemFetcher interface {
	FindByID(ctx context.Context, id string) (*models.GradeItem, error)
}

type enrollmentFinder interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
}

type studentGradeRepository interface {
	FindByEnrollmentAndItem(ctx context.Context, enrollmentID, itemID string) (*models.StudentGradeDetail, error)
	UpsertSubmission(ctx context.Context, grade *models.StudentGrade) error
	UpsertGrade(ctx context.Context, grade *models.StudentGrade) error
}

type gradeRecalculator interface {
	RecalculateAndPersist(ctx context.Context, courseID, studentID string) (*models.RecalcResult, error)
}

// SubmitRequest describes a student submission payload.
type SubmitRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ItemID    string `json:"item_id" validate:"required"`
	Payload   string `json:"payload" validate:"required"`
}

// GradeRequest describes an instructor grading payload.
type GradeRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	ItemID    string  `json:"item_id" validate:"required"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
}

// SubmissionService drives the per-item grade row lifecycle:
// NOT_SUBMITTED -> SUBMITTED -> GRADED, with re-submission before the due
// date dropping a graded row back to SUBMITTED.
type SubmissionService struct {
	items       gradeItemFetcher
	enrollments enrollmentFinder
	grades      studentGradeRepository
	recalc      gradeRecalculator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(items gradeItemFetcher, enrollments enrollmentFinder, grades studentGradeRepository, recalc gradeRecalculator, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		items:       items,
		enrollments: enrollments,
		grades:      grades,
		recalc:      recalc,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit accepts a submission payload for a catalog item. The due date
// boundary is strict: a submission exactly at the due date is accepted,
// one past it is rejected. A re-submission overwrites the payload and
// resets a GRADED row to SUBMITTED while keeping the previous score until
// the instructor re-grades.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*models.StudentGradeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	item, enrollment, err := s.resolve(ctx, req.StudentID, req.ItemID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if item.DueDate != nil && now.After(*item.DueDate) {
		return nil, appErrors.ErrPastDueDate
	}

	payload := req.Payload
	submittedAt := now
	grade := &models.StudentGrade{
		EnrollmentID: enrollment.ID,
		GradeItemID:  item.ID,
		State:        models.StateSubmitted,
		SubmittedAt:  &submittedAt,
		Payload:      &payload,
	}
	if err := s.grades.UpsertSubmission(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	return s.detail(ctx, enrollment.ID, item.ID)
}

// Grade records an instructor score and feedback, marks the row GRADED and
// triggers the final grade recalculation. The recalculation is best-effort:
// its failure is logged and never fails the grading operation, since the
// next on-demand computation self-corrects.
func (s *SubmissionService) Grade(ctx context.Context, req GradeRequest) (*models.StudentGradeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if req.Score < 0 || req.Score > 100 {
		return nil, appErrors.ErrInvalidScore
	}
	item, enrollment, err := s.resolve(ctx, req.StudentID, req.ItemID)
	if err != nil {
		return nil, err
	}

	feedback := req.Feedback
	grade := &models.StudentGrade{
		EnrollmentID: enrollment.ID,
		GradeItemID:  item.ID,
		Score:        req.Score,
		State:        models.StateGraded,
		Feedback:     &feedback,
	}
	if err := s.grades.UpsertGrade(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	if s.recalc != nil {
		if _, err := s.recalc.RecalculateAndPersist(ctx, item.CourseID, req.StudentID); err != nil {
			s.logger.Warn("final grade recalculation failed",
				zap.String("course_id", item.CourseID),
				zap.String("student_id", req.StudentID),
				zap.Error(err))
		}
	}
	return s.detail(ctx, enrollment.ID, item.ID)
}

func (s *SubmissionService) resolve(ctx context.Context, studentID, itemID string) (*models.GradeItem, *models.Enrollment, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.ErrItemNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade item")
	}
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, item.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.ErrNotEnrolled
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, nil, appErrors.ErrNotEnrolled
	}
	return item, enrollment, nil
}

func (s *SubmissionService) detail(ctx context.Context, enrollmentID, itemID string) (*models.StudentGradeDetail, error) {
	detail, err := s.grades.FindByEnrollmentAndItem(ctx, enrollmentID, itemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade row")
	}
	detail.IsLate = detail.Late()
	return detail, nil
}
