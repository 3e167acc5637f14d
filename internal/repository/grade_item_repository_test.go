package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/edulearn-id/lms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeItemRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeItemRepository(db)

	items := []models.GradeItem{
		{CourseID: "c1", Category: models.CategoryAttendance, Name: "Week 1 Attendance", MaxScore: 100, OrderIndex: 1},
		{CourseID: "c1", Category: models.CategoryExam, Name: "Midterm", MaxScore: 100, OrderIndex: 2},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grade_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grade_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.BulkCreate(context.Background(), items))
	require.NotEmpty(t, items[0].ID)
	require.NotEmpty(t, items[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeItemRepositoryBulkCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeItemRepository(db)

	items := []models.GradeItem{
		{CourseID: "c1", Name: "Week 1 Attendance"},
		{CourseID: "c1", Name: "Week 2 Attendance"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grade_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grade_items").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	require.Error(t, repo.BulkCreate(context.Background(), items))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeItemRepositoryBulkCreateEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeItemRepository(db)

	require.NoError(t, repo.BulkCreate(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeItemRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeItemRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "category", "name", "max_score", "due_date", "order_index", "created_at"}).
		AddRow("i1", "c1", models.CategoryAttendance, "Week 1 Attendance", 100.0, nil, 1, time.Now()).
		AddRow("i2", "c1", models.CategoryExam, "Midterm", 100.0, nil, 2, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_items WHERE course_id = $1 ORDER BY order_index ASC")).
		WithArgs("c1").
		WillReturnRows(rows)

	items, err := repo.ListByCourse(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Week 1 Attendance", items[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeItemRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_items WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
