package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/edulearn-id/lms-api/internal/models"
)

func TestStudentGradeRepositoryUpsertSubmission(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentGradeRepository(db)

	submittedAt := time.Now().UTC()
	payload := "answer"
	grade := &models.StudentGrade{
		EnrollmentID: "e1",
		GradeItemID:  "i1",
		State:        models.StateSubmitted,
		SubmittedAt:  &submittedAt,
		Payload:      &payload,
	}

	mock.ExpectExec("INSERT INTO student_grades").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertSubmission(context.Background(), grade))
	require.NotEmpty(t, grade.ID)
	require.False(t, grade.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentGradeRepositoryUpsertGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentGradeRepository(db)

	feedback := "good work"
	grade := &models.StudentGrade{
		EnrollmentID: "e1",
		GradeItemID:  "i1",
		Score:        88,
		State:        models.StateGraded,
		Feedback:     &feedback,
	}

	mock.ExpectExec("INSERT INTO student_grades").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertGrade(context.Background(), grade))
	require.NotEmpty(t, grade.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentGradeRepositoryListByEnrollment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "enrollment_id", "grade_item_id", "score", "state", "submitted_at", "payload", "feedback", "created_at", "updated_at",
		"category", "item_name", "max_score", "due_date", "order_index",
	}).
		AddRow("g1", "e1", "i1", 0.0, models.StateNotSubmitted, nil, nil, nil, now, now, models.CategoryAttendance, "Week 1 Attendance", 100.0, nil, 1).
		AddRow("g2", "e1", "i2", 88.0, models.StateGraded, now, "answer", "ok", now, now, models.CategoryAssignment, "Assignment 1", 100.0, now, 2)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE sg.enrollment_id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	details, err := repo.ListByEnrollment(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.Equal(t, models.CategoryAttendance, details[0].Category)
	require.Equal(t, 88.0, details[1].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}
