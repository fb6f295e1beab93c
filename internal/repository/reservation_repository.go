package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mash021/meal-sharing/internal/model"
)

const reservationColumns = `id, meal_id, contact_name, contact_phone_number, contact_email, number_of_guests, created_date`

type ReservationRepository struct {
	DB *sqlx.DB
}

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{DB: db}
}

// List returns all reservations, or only those of mealID when it is non-nil.
func (r *ReservationRepository) List(ctx context.Context, mealID *int64) ([]model.Reservation, error) {
	query := "SELECT " + reservationColumns + " FROM reservation"
	args := []interface{}{}
	if mealID != nil {
		query += " WHERE meal_id = $1"
		args = append(args, *mealID)
	}
	query += " ORDER BY id ASC"

	list := []model.Reservation{}
	if err := r.DB.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, wrap("ReservationRepository.List", err)
	}
	return list, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.DB.GetContext(ctx, &res, "SELECT "+reservationColumns+" FROM reservation WHERE id = $1", id)
	if err != nil {
		return nil, wrap("ReservationRepository.GetByID", err)
	}
	return &res, nil
}

const insertReservation = `
	INSERT INTO reservation (meal_id, contact_name, contact_phone_number, contact_email, number_of_guests, created_date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + reservationColumns

func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	err := r.DB.QueryRowxContext(ctx, insertReservation,
		res.MealID, res.ContactName, res.ContactPhoneNumber, res.ContactEmail, res.NumberOfGuests, res.CreatedDate,
	).StructScan(res)
	if err != nil {
		return wrap("ReservationRepository.Create", err)
	}
	return nil
}

// CreateWithinCapacity inserts res only if the meal keeps at least zero free seats.
// The meal row stays locked until commit so concurrent bookings serialize.
func (r *ReservationRepository) CreateWithinCapacity(ctx context.Context, res *model.Reservation) (err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ReservationRepository.BeginTxx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	err = tx.GetContext(ctx, &capacity, `SELECT max_reservations FROM meal WHERE id = $1 FOR UPDATE`, res.MealID)
	if err != nil {
		return wrap("ReservationRepository lock meal", err)
	}

	var reserved int
	err = tx.GetContext(ctx, &reserved,
		`SELECT COALESCE(SUM(number_of_guests), 0) FROM reservation WHERE meal_id = $1`, res.MealID)
	if err != nil {
		return wrap("ReservationRepository sum guests", err)
	}
	if reserved+res.NumberOfGuests > capacity {
		err = fmt.Errorf("ReservationRepository: %d of %d seats taken: %w", reserved, capacity, ErrCapacityExceeded)
		return err
	}

	err = tx.QueryRowxContext(ctx, insertReservation,
		res.MealID, res.ContactName, res.ContactPhoneNumber, res.ContactEmail, res.NumberOfGuests, res.CreatedDate,
	).StructScan(res)
	if err != nil {
		return wrap("ReservationRepository insert", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ReservationRepository commit: %w", err)
	}
	return nil
}

func reservationSets(p model.ReservationPatch) setClause {
	var sets setClause
	if p.MealID != nil {
		sets.add("meal_id", *p.MealID)
	}
	if p.ContactName != nil {
		sets.add("contact_name", *p.ContactName)
	}
	if p.ContactPhoneNumber != nil {
		sets.add("contact_phone_number", *p.ContactPhoneNumber)
	}
	if p.ContactEmail != nil {
		sets.add("contact_email", *p.ContactEmail)
	}
	if p.NumberOfGuests != nil {
		sets.add("number_of_guests", *p.NumberOfGuests)
	}
	if p.CreatedDate != nil {
		sets.add("created_date", *p.CreatedDate)
	}
	return sets
}

func (r *ReservationRepository) Update(ctx context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error) {
	sets := reservationSets(p)
	if sets.empty() {
		return r.GetByID(ctx, id)
	}

	query, args := sets.build("reservation", reservationColumns, id)
	var res model.Reservation
	if err := r.DB.QueryRowxContext(ctx, query, args...).StructScan(&res); err != nil {
		return nil, wrap("ReservationRepository.Update", err)
	}
	return &res, nil
}

// UpdateWithinCapacity applies p only if the target meal keeps at least zero free seats,
// not counting the reservation's own current guests. The reservation row and the target
// meal row stay locked until commit.
func (r *ReservationRepository) UpdateWithinCapacity(ctx context.Context, id int64, p model.ReservationPatch) (_ *model.Reservation, err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.BeginTxx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current struct {
		MealID         int64 `db:"meal_id"`
		NumberOfGuests int   `db:"number_of_guests"`
	}
	err = tx.GetContext(ctx, &current,
		`SELECT meal_id, number_of_guests FROM reservation WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, wrap("ReservationRepository lock reservation", err)
	}

	mealID, guests := current.MealID, current.NumberOfGuests
	if p.MealID != nil {
		mealID = *p.MealID
	}
	if p.NumberOfGuests != nil {
		guests = *p.NumberOfGuests
	}

	var capacity int
	err = tx.GetContext(ctx, &capacity, `SELECT max_reservations FROM meal WHERE id = $1 FOR UPDATE`, mealID)
	if err != nil {
		return nil, wrap("ReservationRepository lock meal", err)
	}

	var reserved int
	err = tx.GetContext(ctx, &reserved,
		`SELECT COALESCE(SUM(number_of_guests), 0) FROM reservation WHERE meal_id = $1 AND id <> $2`, mealID, id)
	if err != nil {
		return nil, wrap("ReservationRepository sum guests", err)
	}
	if reserved+guests > capacity {
		err = fmt.Errorf("ReservationRepository: %d of %d seats taken: %w", reserved, capacity, ErrCapacityExceeded)
		return nil, err
	}

	var res model.Reservation
	sets := reservationSets(p)
	if sets.empty() {
		err = tx.GetContext(ctx, &res, `SELECT `+reservationColumns+` FROM reservation WHERE id = $1`, id)
	} else {
		query, args := sets.build("reservation", reservationColumns, id)
		err = tx.QueryRowxContext(ctx, query, args...).StructScan(&res)
	}
	if err != nil {
		return nil, wrap("ReservationRepository update", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("ReservationRepository commit: %w", err)
	}
	return &res, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reservation WHERE id = $1`, id)
	if err != nil {
		return wrap("ReservationRepository.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("ReservationRepository.Delete", err)
	}
	if n == 0 {
		return wrap("ReservationRepository.Delete", ErrNotFound)
	}
	return nil
}

// ReservedGuests sums number_of_guests per meal for all mealIDs in a single query.
// Meals without reservations are absent from the result.
func (r *ReservationRepository) ReservedGuests(ctx context.Context, mealIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(mealIDs))
	if len(mealIDs) == 0 {
		return out, nil
	}

	const q = `
		SELECT meal_id, COALESCE(SUM(number_of_guests), 0) AS guests
		FROM reservation
		WHERE meal_id = ANY($1)
		GROUP BY meal_id
	`
	var rows []struct {
		MealID int64 `db:"meal_id"`
		Guests int   `db:"guests"`
	}
	if err := r.DB.SelectContext(ctx, &rows, q, pq.Array(mealIDs)); err != nil {
		return nil, wrap("ReservationRepository.ReservedGuests", err)
	}
	for _, row := range rows {
		out[row.MealID] = row.Guests
	}
	return out, nil
}
