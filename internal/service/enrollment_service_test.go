package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type mockEnrollRepo struct {
	enrollments map[string]models.Enrollment
	active      map[string]bool
	createdWith []models.StudentGrade
	status      map[string]models.EnrollmentStatus
}

func (m *mockEnrollRepo) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.active[studentID+courseID], nil
}

func (m *mockEnrollRepo) CreateWithGrades(ctx context.Context, enrollment *models.Enrollment, grades []models.StudentGrade) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.createdWith = grades
	return nil
}

func (m *mockEnrollRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	if e, ok := m.enrollments[id]; ok {
		e.Status = status
		m.enrollments[id] = e
	}
	return nil
}

type mockCourseLookup struct {
	courses map[string]models.Course
}

func (m *mockCourseLookup) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockItemLister struct {
	items []models.GradeItem
}

func (m *mockItemLister) ListByCourse(ctx context.Context, courseID string) ([]models.GradeItem, error) {
	return m.items, nil
}

type mockDetailLister struct {
	details []models.StudentGradeDetail
}

func (m *mockDetailLister) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.StudentGradeDetail, error) {
	return m.details, nil
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollRepo) {
	repo := &mockEnrollRepo{}
	courses := &mockCourseLookup{courses: map[string]models.Course{"c1": {ID: "c1", Title: "Algebra"}}}
	items := &mockItemLister{items: []models.GradeItem{
		{ID: "i1", CourseID: "c1", Category: models.CategoryAttendance},
		{ID: "i2", CourseID: "c1", Category: models.CategoryAssignment},
		{ID: "i3", CourseID: "c1", Category: models.CategoryExam},
	}}
	svc := NewEnrollmentService(repo, courses, items, &mockDetailLister{}, validator.New(), zap.NewNop())
	return svc, repo
}

func TestEnrollmentServiceInitialize(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	enrollment, err := svc.Initialize(context.Background(), InitializeEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)

	// One placeholder row per catalog item, all zero-valued.
	require.Len(t, repo.createdWith, 3)
	for _, grade := range repo.createdWith {
		assert.Equal(t, models.StateNotSubmitted, grade.State)
		assert.Zero(t, grade.Score)
	}
}

func TestEnrollmentServiceInitializeDuplicate(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.active = map[string]bool{"s1c1": true}

	_, err := svc.Initialize(context.Background(), InitializeEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Empty(t, repo.enrollments)
}

func TestEnrollmentServiceInitializeUnknownCourse(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.Initialize(context.Background(), InitializeEnrollmentRequest{StudentID: "s1", CourseID: "missing"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceInitializeEmptyCatalog(t *testing.T) {
	repo := &mockEnrollRepo{}
	courses := &mockCourseLookup{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	svc := NewEnrollmentService(repo, courses, &mockItemLister{}, &mockDetailLister{}, validator.New(), zap.NewNop())

	enrollment, err := svc.Initialize(context.Background(), InitializeEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Empty(t, repo.createdWith)
}

func TestEnrollmentServiceGradesLateFlag(t *testing.T) {
	due := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	late := due.Add(time.Hour)
	onTime := due.Add(-time.Hour)

	repo := &mockEnrollRepo{enrollments: map[string]models.Enrollment{"e1": {ID: "e1", Status: models.EnrollmentStatusActive}}}
	details := &mockDetailLister{details: []models.StudentGradeDetail{
		{StudentGrade: models.StudentGrade{ID: "g1", SubmittedAt: &late, State: models.StateSubmitted}, DueDate: &due},
		{StudentGrade: models.StudentGrade{ID: "g2", SubmittedAt: &onTime, State: models.StateSubmitted}, DueDate: &due},
		{StudentGrade: models.StudentGrade{ID: "g3"}},
	}}
	courses := &mockCourseLookup{courses: map[string]models.Course{"c1": {ID: "c1"}}}
	svc := NewEnrollmentService(repo, courses, &mockItemLister{}, details, validator.New(), zap.NewNop())

	rows, err := svc.Grades(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].IsLate)
	assert.False(t, rows[1].IsLate)
	assert.False(t, rows[2].IsLate)
}

func TestEnrollmentServiceDrop(t *testing.T) {
	svc, repo := newEnrollmentFixture()
	repo.enrollments = map[string]models.Enrollment{"e1": {ID: "e1", Status: models.EnrollmentStatusActive}}

	require.NoError(t, svc.Drop(context.Background(), "e1"))
	assert.Equal(t, models.EnrollmentStatusDropped, repo.status["e1"])

	err := svc.Drop(context.Background(), "e1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
