package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash021/meal-sharing/internal/model"
)

var reviewCols = []string{"id", "meal_id", "title", "description", "stars", "created_date"}

func TestReviewInsert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	rev := &model.Review{MealID: 2, Title: "Great", Description: "Loved it", Stars: 5, CreatedDate: model.Today()}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO review (meal_id, title, description, stars, created_date)")).
		WithArgs(int64(2), "Great", "Loved it", 5, rev.CreatedDate).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(9, 2, "Great", "Loved it", 5, time.Now()))

	require.NoError(t, repo.Insert(context.Background(), rev))
	assert.Equal(t, int64(9), rev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewListAll(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + reviewColumns + " FROM review ORDER BY created_date DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows(reviewCols))

	list, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewUpdateStars(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	stars := 3
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE review SET stars = $1 WHERE id = $2 RETURNING " + reviewColumns)).
		WithArgs(3, int64(9)).
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow(9, 2, "Great", "Loved it", 3, time.Now()))

	rev, err := repo.Update(context.Background(), 9, model.ReviewPatch{Stars: &stars})
	require.NoError(t, err)
	assert.Equal(t, 3, rev.Stars)
}

func TestReviewDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM review WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, errors.Is(repo.Delete(context.Background(), 1), ErrNotFound))
}

func TestHealthTables(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHealthRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pg_catalog.pg_tables")).
		WillReturnRows(sqlmock.NewRows([]string{"schemaname", "tablename"}).
			AddRow("public", "meal").
			AddRow("public", "reservation"))

	tables, err := repo.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Table{{"public", "meal"}, {"public", "reservation"}}, tables)
}
