package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type gradeItemRepository interface {
	BulkCreate(ctx context.Context, items []models.GradeItem) error
	FindByID(ctx context.Context, id string) (*models.GradeItem, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error)
}

// examNamePreferences holds human names assigned to exam items in order;
// items beyond the list fall back to "Exam i".
var examNamePreferences = []string{"Midterm", "Final", "Quiz 1", "Quiz 2"}

const defaultMaxScore = 100

// CatalogService provisions the gradable item catalog for a course.
type CatalogService struct {
	items  gradeItemRepository
	logger *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(items gradeItemRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{items: items, logger: logger}
}

// Provision creates one attendance item per week, then the assignment
// block, then the exam block, in a single all-or-nothing insert. A partial
// catalog would break the density invariant every computation relies on.
func (s *CatalogService) Provision(ctx context.Context, course *models.Course) ([]models.GradeItem, error) {
	items := BuildCatalog(course)
	if len(items) == 0 {
		return nil, nil
	}
	if err := s.items.BulkCreate(ctx, items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision catalog")
	}
	s.logger.Info("catalog provisioned",
		zap.String("course_id", course.ID),
		zap.Int("items", len(items)))
	return items, nil
}

// ListByCourse returns the catalog in provisioning order.
func (s *CatalogService) ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error) {
	items, err := s.items.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list catalog")
	}
	return items, nil
}

// BuildCatalog assembles the catalog items for a course without persisting
// them. Ordering runs attendance first, then assignments, then exams.
func BuildCatalog(course *models.Course) []models.GradeItem {
	items := make([]models.GradeItem, 0, course.ExpectedItemCount())
	order := 1
	for week := 1; week <= course.WeeksCount; week++ {
		items = append(items, models.GradeItem{
			CourseID:   course.ID,
			Category:   models.CategoryAttendance,
			Name:       fmt.Sprintf("Week %d Attendance", week),
			MaxScore:   defaultMaxScore,
			OrderIndex: order,
		})
		order++
	}
	for i := 1; i <= course.AssignmentCount; i++ {
		items = append(items, models.GradeItem{
			CourseID:   course.ID,
			Category:   models.CategoryAssignment,
			Name:       fmt.Sprintf("Assignment %d", i),
			MaxScore:   defaultMaxScore,
			OrderIndex: order,
		})
		order++
	}
	for i := 1; i <= course.ExamCount; i++ {
		items = append(items, models.GradeItem{
			CourseID:   course.ID,
			Category:   models.CategoryExam,
			Name:       examName(i),
			MaxScore:   defaultMaxScore,
			OrderIndex: order,
		})
		order++
	}
	return items
}

func examName(i int) string {
	if i <= len(examNamePreferences) {
		return examNamePreferences[i-1]
	}
	return fmt.Sprintf("Exam %d", i)
}
