package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash021/meal-sharing/internal/model"
)

var reservationCols = []string{"id", "meal_id", "contact_name", "contact_phone_number", "contact_email", "number_of_guests", "created_date"}

func TestReservedGuestsSingleQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	ids := []int64{1, 2, 3}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE meal_id = ANY($1) GROUP BY meal_id")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"meal_id", "guests"}).
			AddRow(1, 3).
			AddRow(3, 9))

	got, err := repo.ReservedGuests(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 3, 3: 9}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservedGuestsNoIDsSkipsQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	got, err := repo.ReservedGuests(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationListByMeal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mealID := int64(4)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation WHERE meal_id = $1 ORDER BY id ASC")).
		WithArgs(mealID).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, 4, "Ann", "555", "ann@example.com", 2, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))

	list, err := repo.List(context.Background(), &mealID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ann@example.com", list[0].ContactEmail)
	assert.Equal(t, 2, list[0].NumberOfGuests)
}

func newReservation() *model.Reservation {
	return &model.Reservation{
		MealID:             1,
		ContactName:        "Ann",
		ContactPhoneNumber: "555",
		ContactEmail:       "ann@example.com",
		NumberOfGuests:     2,
		CreatedDate:        model.DateOf(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
	}
}

func TestCreateWithinCapacityRejectsOverbooking(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_reservations FROM meal WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max_reservations"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(number_of_guests), 0) FROM reservation WHERE meal_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.CreateWithinCapacity(context.Background(), newReservation())
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinCapacityCommits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)
	res := newReservation()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"max_reservations"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SUM(number_of_guests)")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reservation")).
		WithArgs(int64(1), "Ann", "555", "ann@example.com", 2, res.CreatedDate).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, 1, "Ann", "555", "ann@example.com", 2, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateWithinCapacity(context.Background(), res))
	assert.Equal(t, int64(11), res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithinCapacityMissingMeal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"max_reservations"}))
	mock.ExpectRollback()

	err := repo.CreateWithinCapacity(context.Background(), newReservation())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithinCapacityExcludesOwnGuests(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	guests := 4
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT meal_id, number_of_guests FROM reservation WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"meal_id", "number_of_guests"}).AddRow(1, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_reservations FROM meal WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"max_reservations"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(number_of_guests), 0) FROM reservation WHERE meal_id = $1 AND id <> $2")).
		WithArgs(int64(1), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reservation SET number_of_guests = $1 WHERE id = $2 RETURNING " + reservationColumns)).
		WithArgs(4, int64(11)).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, 1, "Ann", "555", "ann@example.com", 4, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
	mock.ExpectCommit()

	res, err := repo.UpdateWithinCapacity(context.Background(), 11, model.ReservationPatch{NumberOfGuests: &guests})
	require.NoError(t, err)
	assert.Equal(t, 4, res.NumberOfGuests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithinCapacityRejectsMoveToFullMeal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	target := int64(2)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"meal_id", "number_of_guests"}).AddRow(1, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_reservations FROM meal WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"max_reservations"}).AddRow(6))
	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $2")).
		WithArgs(int64(2), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(5))
	mock.ExpectRollback()

	_, err := repo.UpdateWithinCapacity(context.Background(), 11, model.ReservationPatch{MealID: &target})
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithinCapacityMissingReservation(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReservationRepository(db)

	guests := 1
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservation WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"meal_id", "number_of_guests"}))
	mock.ExpectRollback()

	_, err := repo.UpdateWithinCapacity(context.Background(), 5, model.ReservationPatch{NumberOfGuests: &guests})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
