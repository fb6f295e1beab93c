package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash021/meal-sharing/internal/model"
)

var mealCols = []string{"id", "title", "description", "location", "when", "max_reservations", "price", "created_date", "image_url"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func soupRow(rows *sqlmock.Rows, id int64, price float64) *sqlmock.Rows {
	return rows.AddRow(id, "Soup", "Hot", "X",
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), 4, price,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil)
}

func TestMealListAppliesFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	maxPrice := 10.0
	available := true
	filter := model.MealFilter{
		MaxPrice:  &maxPrice,
		Title:     "so%up",
		Available: &available,
		SortKey:   model.SortByPrice,
		SortDesc:  true,
		Limit:     5,
	}

	want := "SELECT " + mealColumns + " FROM meal WHERE 1=1" +
		" AND price <= $1" +
		" AND title ILIKE '%' || $2 || '%'" +
		" AND meal.max_reservations > (SELECT COALESCE(SUM(r.number_of_guests), 0) FROM reservation r WHERE r.meal_id = meal.id)" +
		" ORDER BY price DESC, id ASC LIMIT $3"

	rows := soupRow(sqlmock.NewRows(mealCols), 2, 9.5)
	rows = soupRow(rows, 1, 7)
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs(10.0, `so\%up`, 5).
		WillReturnRows(rows)

	meals, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, int64(2), meals[0].ID)
	assert.Equal(t, 9.5, meals[0].Price)
	assert.Equal(t, "2025-01-01T10:00:00", meals[0].When.Format(model.DateTimeLayout))
	assert.Nil(t, meals[0].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMealListDateRangeAndScope(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	after, err := model.ParseDateTime("2025-01-01T00:00")
	require.NoError(t, err)
	unavailable := false

	want := "SELECT " + mealColumns + ` FROM meal WHERE 1=1 AND "when" > $1` +
		` AND "when" < LOCALTIMESTAMP` +
		" AND meal.max_reservations <= (SELECT COALESCE(SUM(r.number_of_guests), 0) FROM reservation r WHERE r.meal_id = meal.id)" +
		" ORDER BY id ASC"
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs(after).
		WillReturnRows(sqlmock.NewRows(mealCols))

	meals, err := repo.List(context.Background(), model.MealFilter{
		DateAfter: &after,
		Scope:     model.PastOnly,
		Available: &unavailable,
		SortKey:   "title",
	})
	require.NoError(t, err)
	assert.NotNil(t, meals)
	assert.Empty(t, meals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, " ORDER BY id ASC", orderClause("", false))
	assert.Equal(t, " ORDER BY id DESC", orderClause(model.SortByID, true))
	assert.Equal(t, ` ORDER BY "when" ASC, id ASC`, orderClause(model.SortByWhen, false))
	assert.Equal(t, " ORDER BY max_reservations DESC, id ASC", orderClause(model.SortByMaxReservations, true))
}

func TestMealGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM meal WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(mealCols))

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMealCreateScansReturningRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	when, _ := model.ParseDateTime("2025-01-01T10:00")
	created, _ := model.ParseDate("2025-01-01")
	m := &model.Meal{
		Title: "Soup", Description: "Hot", Location: "X",
		When: when, MaxReservations: 4, Price: 9.5, CreatedDate: created,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO meal")).
		WithArgs("Soup", "Hot", "X", when, 4, 9.5, created, nil).
		WillReturnRows(soupRow(sqlmock.NewRows(mealCols), 7, 9.5))

	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, "2025-01-01", m.CreatedDate.Format(model.DateLayout))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMealUpdateOnlyTouchesGivenColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	title := "Stew"
	price := 12.0
	want := "UPDATE meal SET title = $1, price = $2 WHERE id = $3 RETURNING " + mealColumns
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs("Stew", 12.0, int64(3)).
		WillReturnRows(sqlmock.NewRows(mealCols))

	_, err := repo.Update(context.Background(), 3, model.MealPatch{Title: &title, Price: &price})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMealDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM meal WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM meal WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.True(t, errors.Is(repo.Delete(context.Background(), 99), ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMealExists(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMealRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM meal WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_real\_ a\\b`, escapeLike(`100% _real_ a\b`))
}
