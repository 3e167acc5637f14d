package service

import (
	"context"
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

type mockAttendanceRepo struct {
	records []models.AttendanceRecord
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	m.records = append(m.records, *record)
	return nil
}

func (m *mockAttendanceRepo) ListByStudentAndCourse(ctx context.Context, studentID, courseID string) ([]models.AttendanceRecord, error) {
	return m.records, nil
}

func newAttendanceFixture() (*AttendanceService, *mockAttendanceRepo, *mockRecalc) {
	repo := &mockAttendanceRepo{}
	enrollments := &mockEnrollFinder{enrollment: &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}}
	recalc := &mockRecalc{}
	svc := NewAttendanceService(repo, enrollments, recalc, validator.New(), zap.NewNop())
	return svc, repo, recalc
}

func TestAttendanceServiceRecord(t *testing.T) {
	svc, repo, recalc := newAttendanceFixture()

	record, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:            "s1",
		CourseID:             "c1",
		SessionID:            "sess-1",
		DurationSeconds:      1800,
		TotalDurationSeconds: 3600,
		Date:                 time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, repo.records, 1)
	assert.Equal(t, int64(1800), record.DurationSeconds)
	// Attendance changes the weighted grade, so a recalculation follows.
	assert.Equal(t, 1, recalc.calls)
}

func TestAttendanceServiceRecordDurationTooLong(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:            "s1",
		CourseID:             "c1",
		SessionID:            "sess-1",
		DurationSeconds:      4000,
		TotalDurationSeconds: 3600,
		Date:                 time.Now(),
	})
	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceRecordNotEnrolled(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	svc.enrollments = &mockEnrollFinder{}

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:            "s2",
		CourseID:             "c1",
		SessionID:            "sess-1",
		DurationSeconds:      1800,
		TotalDurationSeconds: 3600,
		Date:                 time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErr.Code)
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceRecordEnrollmentLookupFailure(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	svc.enrollments = &mockEnrollFinder{err: errors.New("connection refused")}

	_, err := svc.Record(context.Background(), RecordAttendanceRequest{
		StudentID:            "s1",
		CourseID:             "c1",
		SessionID:            "sess-1",
		DurationSeconds:      1800,
		TotalDurationSeconds: 3600,
		Date:                 time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	// A repository failure is not the same as not being enrolled.
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Empty(t, repo.records)
}

func TestAttendanceServiceList(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.records = []models.AttendanceRecord{
		{SessionID: "sess-1", DurationSeconds: 3600, TotalDurationSeconds: 3600},
		{SessionID: "sess-2", DurationSeconds: 0, TotalDurationSeconds: 3600},
	}

	records, err := svc.List(context.Background(), "s1", "c1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "sess-1", records[0].SessionID)
}

func TestAttendanceServiceSummary(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.records = []models.AttendanceRecord{
		{DurationSeconds: 3600, TotalDurationSeconds: 3600},
		{DurationSeconds: 0, TotalDurationSeconds: 3600},
	}

	summary, err := svc.Summary(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SessionCount)
	assert.Equal(t, 50.0, summary.Rate)
}
