package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

type catalogProvisioner interface {
	Provision(ctx context.Context, course *models.Course) ([]models.GradeItem, error)
}

// CreateCourseRequest describes course configuration payload.
type CreateCourseRequest struct {
	Title            string `json:"title" validate:"required"`
	AttendanceWeight int    `json:"attendance_weight" validate:"min=0,max=100"`
	AssignmentWeight int    `json:"assignment_weight" validate:"min=0,max=100"`
	ExamWeight       int    `json:"exam_weight" validate:"min=0,max=100"`
	WeeksCount       int    `json:"weeks_count" validate:"min=0"`
	AssignmentCount  int    `json:"assignment_count" validate:"min=0"`
	ExamCount        int    `json:"exam_count" validate:"min=0"`
}

// CourseService orchestrates course configuration.
type CourseService struct {
	courses   courseRepository
	catalog   catalogProvisioner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepository, catalog catalogProvisioner, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, catalog: catalog, validator: validate, logger: logger}
}

// Create validates the category weights, persists the course and provisions
// its grade item catalog. Weight validity is enforced here and nowhere else.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Title:            req.Title,
		AttendanceWeight: req.AttendanceWeight,
		AssignmentWeight: req.AssignmentWeight,
		ExamWeight:       req.ExamWeight,
		WeeksCount:       req.WeeksCount,
		AssignmentCount:  req.AssignmentCount,
		ExamCount:        req.ExamCount,
	}
	if !course.WeightsValid() {
		return nil, appErrors.ErrInvalidWeights
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	if _, err := s.catalog.Provision(ctx, course); err != nil {
		// The course row stays; an empty catalog is a legal state that
		// enrollment initialization tolerates.
		s.logger.Error("catalog provisioning failed", zap.String("course_id", course.ID), zap.Error(err))
		return nil, err
	}
	return course, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
