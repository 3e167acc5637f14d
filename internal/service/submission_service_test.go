package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
)

type mockItemFetcher struct {
	items map[string]models.GradeItem
}

func (m *mockItemFetcher) FindByID(ctx context.Context, id string) (*models.GradeItem, error) {
	if item, ok := m.items[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollFinder struct {
	enrollment *models.Enrollment
	err        error
}

func (m *mockEnrollFinder) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return m.enrollment, nil
}

type mockGradeStore struct {
	rows map[string]models.StudentGrade
}

func (m *mockGradeStore) key(enrollmentID, itemID string) string {
	return enrollmentID + "/" + itemID
}

func (m *mockGradeStore) FindByEnrollmentAndItem(ctx context.Context, enrollmentID, itemID string) (*models.StudentGradeDetail, error) {
	if row, ok := m.rows[m.key(enrollmentID, itemID)]; ok {
		return &models.StudentGradeDetail{StudentGrade: row}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeStore) UpsertSubmission(ctx context.Context, grade *models.StudentGrade) error {
	if m.rows == nil {
		m.rows = make(map[string]models.StudentGrade)
	}
	key := m.key(grade.EnrollmentID, grade.GradeItemID)
	row, ok := m.rows[key]
	if !ok {
		row = *grade
	} else {
		// The submission write never touches the score column.
		row.Payload = grade.Payload
		row.SubmittedAt = grade.SubmittedAt
		row.State = grade.State
	}
	m.rows[key] = row
	return nil
}

func (m *mockGradeStore) UpsertGrade(ctx context.Context, grade *models.StudentGrade) error {
	if m.rows == nil {
		m.rows = make(map[string]models.StudentGrade)
	}
	key := m.key(grade.EnrollmentID, grade.GradeItemID)
	row, ok := m.rows[key]
	if !ok {
		row = *grade
	} else {
		row.Score = grade.Score
		row.Feedback = grade.Feedback
		row.State = grade.State
	}
	m.rows[key] = row
	return nil
}

type mockRecalc struct {
	calls int
	err   error
}

func (m *mockRecalc) RecalculateAndPersist(ctx context.Context, courseID, studentID string) (*models.RecalcResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &models.RecalcResult{Outcome: models.RecalcPersisted}, nil
}

func newSubmissionFixture(due *time.Time, now time.Time) (*SubmissionService, *mockGradeStore, *mockRecalc) {
	items := &mockItemFetcher{items: map[string]models.GradeItem{
		"i1": {ID: "i1", CourseID: "c1", Category: models.CategoryAssignment, MaxScore: 100, DueDate: due},
	}}
	enrollments := &mockEnrollFinder{enrollment: &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}}
	store := &mockGradeStore{}
	recalc := &mockRecalc{}
	svc := NewSubmissionService(items, enrollments, store, recalc, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc, store, recalc
}

func TestSubmissionServiceSubmit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newSubmissionFixture(nil, now)

	detail, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "answer"})
	require.NoError(t, err)
	assert.Equal(t, models.StateSubmitted, detail.State)
	require.NotNil(t, detail.SubmittedAt)
	assert.Equal(t, now, *detail.SubmittedAt)
	assert.Len(t, store.rows, 1)
}

func TestSubmissionServiceSubmitDueDateBoundary(t *testing.T) {
	due := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	// Exactly at the due date is accepted.
	svc, _, _ := newSubmissionFixture(&due, due)
	_, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "x"})
	require.NoError(t, err)

	// One nanosecond past is rejected.
	svc, store, _ := newSubmissionFixture(&due, due.Add(time.Nanosecond))
	_, err = svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPastDueDate.Code, appErr.Code)
	assert.Empty(t, store.rows)
}

func TestSubmissionServiceSubmitUnknownItem(t *testing.T) {
	svc, _, _ := newSubmissionFixture(nil, time.Now())

	_, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "missing", Payload: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrItemNotFound.Code, appErr.Code)
}

func TestSubmissionServiceSubmitNotEnrolled(t *testing.T) {
	now := time.Now()
	svc, _, _ := newSubmissionFixture(nil, now)
	dropped := &mockEnrollFinder{enrollment: &models.Enrollment{ID: "e1", Status: models.EnrollmentStatusDropped}}
	svc.enrollments = dropped

	_, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "x"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErr.Code)
}

func TestSubmissionServiceGradeScoreBounds(t *testing.T) {
	now := time.Now()

	for _, score := range []float64{-1, 100.01, 250} {
		svc, _, recalc := newSubmissionFixture(nil, now)
		_, err := svc.Grade(context.Background(), GradeRequest{StudentID: "s1", ItemID: "i1", Score: score})
		require.Error(t, err, "score %v", score)
		appErr := appErrors.FromError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, appErrors.ErrInvalidScore.Code, appErr.Code)
		assert.Zero(t, recalc.calls)
	}

	for _, score := range []float64{0, 100} {
		svc, store, _ := newSubmissionFixture(nil, now)
		detail, err := svc.Grade(context.Background(), GradeRequest{StudentID: "s1", ItemID: "i1", Score: score})
		require.NoError(t, err, "score %v", score)
		assert.Equal(t, models.StateGraded, detail.State)
		assert.Equal(t, score, store.rows["e1/i1"].Score)
	}
}

func TestSubmissionServiceGradeTriggersRecalc(t *testing.T) {
	svc, _, recalc := newSubmissionFixture(nil, time.Now())

	_, err := svc.Grade(context.Background(), GradeRequest{StudentID: "s1", ItemID: "i1", Score: 88})
	require.NoError(t, err)
	assert.Equal(t, 1, recalc.calls)
}

func TestSubmissionServiceGradeSurvivesRecalcFailure(t *testing.T) {
	svc, store, recalc := newSubmissionFixture(nil, time.Now())
	recalc.err = errors.New("redis down")

	detail, err := svc.Grade(context.Background(), GradeRequest{StudentID: "s1", ItemID: "i1", Score: 88})
	require.NoError(t, err)
	assert.Equal(t, models.StateGraded, detail.State)
	assert.Equal(t, 88.0, store.rows["e1/i1"].Score)
}

func TestSubmissionServiceResubmitResetsGradedRow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, store, _ := newSubmissionFixture(nil, now)

	_, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "v1"})
	require.NoError(t, err)
	_, err = svc.Grade(context.Background(), GradeRequest{StudentID: "s1", ItemID: "i1", Score: 75, Feedback: "ok"})
	require.NoError(t, err)

	detail, err := svc.Submit(context.Background(), SubmitRequest{StudentID: "s1", ItemID: "i1", Payload: "v2"})
	require.NoError(t, err)
	// Back to SUBMITTED, previous score retained until re-graded.
	assert.Equal(t, models.StateSubmitted, detail.State)
	assert.Equal(t, 75.0, detail.Score)
	require.NotNil(t, detail.Payload)
	assert.Equal(t, "v2", *detail.Payload)

	// The stored row agrees with the returned view.
	row := store.rows["e1/i1"]
	assert.Equal(t, models.StateSubmitted, row.State)
	assert.Equal(t, 75.0, row.Score)
}
