package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.Course
	created *models.Course
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "new-course"
	}
	if m.courses == nil {
		m.courses = make(map[string]models.Course)
	}
	m.courses[course.ID] = *course
	m.created = course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, c)
	}
	return list, len(list), nil
}

type mockProvisioner struct {
	calls int
	err   error
}

func (m *mockProvisioner) Provision(ctx context.Context, course *models.Course) ([]models.GradeItem, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return BuildCatalog(course), nil
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	catalog := &mockProvisioner{}
	svc := NewCourseService(repo, catalog, validator.New(), zap.NewNop())

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Title:            "Algebra",
		AttendanceWeight: 20,
		AssignmentWeight: 50,
		ExamWeight:       30,
		WeeksCount:       2,
		AssignmentCount:  1,
		ExamCount:        1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, 1, catalog.calls)
}

func TestCourseServiceCreateInvalidWeights(t *testing.T) {
	repo := &mockCourseRepo{}
	catalog := &mockProvisioner{}
	svc := NewCourseService(repo, catalog, validator.New(), zap.NewNop())

	for _, weights := range [][3]int{{30, 30, 30}, {40, 40, 40}, {100, 1, 0}} {
		_, err := svc.Create(context.Background(), CreateCourseRequest{
			Title:            "Algebra",
			AttendanceWeight: weights[0],
			AssignmentWeight: weights[1],
			ExamWeight:       weights[2],
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErr.Code)
	}
	assert.Nil(t, repo.created)
	assert.Zero(t, catalog.calls)
}

func TestCourseServiceCreateProvisionFailure(t *testing.T) {
	repo := &mockCourseRepo{}
	catalog := &mockProvisioner{err: errors.New("insert failed")}
	svc := NewCourseService(repo, catalog, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Title:            "Algebra",
		AttendanceWeight: 20,
		AssignmentWeight: 50,
		ExamWeight:       30,
		WeeksCount:       1,
	})
	require.Error(t, err)
	// The course row survives; its catalog can be provisioned later.
	assert.NotNil(t, repo.created)
}

func TestCourseServiceGetMissing(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, &mockProvisioner{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceList(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]models.Course{"c1": {ID: "c1"}, "c2": {ID: "c2"}}}
	svc := NewCourseService(repo, &mockProvisioner{}, validator.New(), zap.NewNop())

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
}
