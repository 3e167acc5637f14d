package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
	"github.com/edulearn-id/lms-api/pkg/jobs"
)

type finalGradeEnrollments interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	UpdateFinalGrade(ctx context.Context, id string, finalGrade float64) error
}

type attendanceLister interface {
	ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error)
}

type gradeSummaryStore interface {
	Upsert(ctx context.Context, summary models.GradeSummary) error
	Fetch(ctx context.Context, enrollmentID string) (*models.GradeSummary, error)
}

type recalcJobPayload struct {
	CourseID  string
	StudentID string
}

// RecalcService recomputes and persists the denormalized final grade for an
// enrollment. All write paths are best-effort: a failed write never rolls
// back the grading event that triggered it, and redundant calls with
// unchanged data produce identical snapshots (last write wins).
type RecalcService struct {
	courses     courseReader
	enrollments finalGradeEnrollments
	grades      studentGradeLister
	attendance  attendanceLister
	summaries   gradeSummaryStore
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	queue       *jobs.Queue[recalcJobPayload]
}

// NewRecalcService constructs RecalcService.
func NewRecalcService(courses courseReader, enrollments finalGradeEnrollments, grades studentGradeLister, attendance attendanceLister, summaries gradeSummaryStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RecalcService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalcService{
		courses:     courses,
		enrollments: enrollments,
		grades:      grades,
		attendance:  attendance,
		summaries:   summaries,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// StartQueue spins up the worker pool used for course-wide recalculation.
func (s *RecalcService) StartQueue(ctx context.Context, cfg jobs.QueueConfig) {
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}
	s.queue = jobs.NewQueue("grade-recalc", s.processJob, cfg)
	s.queue.Start(ctx)
}

// StopQueue drains the recalculation workers.
func (s *RecalcService) StopQueue() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// RecalculateAndPersist loads the enrollment's raw records, recomputes the
// grade and writes the snapshot: summary store plus the enrollment cache
// field on the happy path, cache field only when the summary store is
// unavailable. Neither write failing is fatal; the outcome reports which
// path stuck.
func (s *RecalcService) RecalculateAndPersist(ctx context.Context, courseID, studentID string) (*models.RecalcResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	result, err := s.compute(ctx, *course, enrollment)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	outcome := models.RecalcPersisted
	summary := models.GradeSummary{
		EnrollmentID:       enrollment.ID,
		StudentID:          studentID,
		CourseID:           courseID,
		WeightedTotal:      result.WeightedTotal,
		ProgressPercentage: result.ProgressPercentage,
		CalculatedAt:       now,
	}
	if err := s.summaries.Upsert(ctx, summary); err != nil {
		s.logger.Warn("summary store unavailable, falling back to enrollment cache",
			zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		outcome = models.RecalcFallback
		if err := s.enrollments.UpdateFinalGrade(ctx, enrollment.ID, result.WeightedTotal); err != nil {
			outcome = models.RecalcUnavailable
			s.logger.Error("final grade recalculation unavailable",
				zap.String("code", appErrors.ErrRecalcUnavailable.Code),
				zap.String("enrollment_id", enrollment.ID), zap.Error(err))
		}
	} else if err := s.enrollments.UpdateFinalGrade(ctx, enrollment.ID, result.WeightedTotal); err != nil {
		s.logger.Warn("enrollment final grade cache refresh failed",
			zap.String("enrollment_id", enrollment.ID), zap.Error(err))
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("report:%s:*", studentID))
	}
	s.metrics.RecordRecalculation(outcome)

	return &models.RecalcResult{
		EnrollmentID: enrollment.ID,
		Result:       result,
		Outcome:      outcome,
		CalculatedAt: now,
	}, nil
}

// EnqueueCourseRecalculation schedules a recalculation job for every active
// enrollment in the course and returns the number of jobs enqueued.
func (s *RecalcService) EnqueueCourseRecalculation(ctx context.Context, courseID string) (int, error) {
	if s.queue == nil {
		return 0, appErrors.Clone(appErrors.ErrRecalcUnavailable, "recalculation queue not running")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	enrollments, err := s.enrollments.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	enqueued := 0
	for _, enrollment := range enrollments {
		job := jobs.Job[recalcJobPayload]{
			ID:      uuid.NewString(),
			Payload: recalcJobPayload{CourseID: courseID, StudentID: enrollment.StudentID},
		}
		if err := s.queue.Enqueue(job); err != nil {
			return enqueued, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue recalculation")
		}
		enqueued++
	}
	return enqueued, nil
}

// Summary returns the stored snapshot for an enrollment, recomputing it
// when the summary store has no entry.
func (s *RecalcService) Summary(ctx context.Context, courseID, studentID string) (*models.GradeSummary, error) {
	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	summary, err := s.summaries.Fetch(ctx, enrollment.ID)
	if err == nil {
		return summary, nil
	}

	result, err := s.RecalculateAndPersist(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	return &models.GradeSummary{
		EnrollmentID:       result.EnrollmentID,
		StudentID:          studentID,
		CourseID:           courseID,
		WeightedTotal:      result.Result.WeightedTotal,
		ProgressPercentage: result.Result.ProgressPercentage,
		CalculatedAt:       result.CalculatedAt,
	}, nil
}

func (s *RecalcService) compute(ctx context.Context, course models.Course, enrollment *models.Enrollment) (models.GradeResult, error) {
	details, err := s.grades.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return models.GradeResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	records, err := s.attendance.ListByStudentAndCourse(ctx, enrollment.StudentID, enrollment.CourseID)
	if err != nil {
		return models.GradeResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	assignments, exams := SplitByCategory(details)
	return ComputeGrade(course, records, assignments, exams), nil
}

func (s *RecalcService) processJob(ctx context.Context, job jobs.Job[recalcJobPayload]) error {
	_, err := s.RecalculateAndPersist(ctx, job.Payload.CourseID, job.Payload.StudentID)
	return err
}
