package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mash021/meal-sharing/internal/model"
)

const mealColumns = `id, title, description, location, "when", max_reservations, price, created_date, image_url`

var mealSortColumns = map[model.SortKey]string{
	model.SortByID:              "id",
	model.SortByWhen:            `"when"`,
	model.SortByMaxReservations: "max_reservations",
	model.SortByPrice:           "price",
}

type MealRepository struct {
	DB *sqlx.DB
}

func NewMealRepository(db *sqlx.DB) *MealRepository {
	return &MealRepository{DB: db}
}

// List returns the meals matching f. Unknown sort keys fall back to id order.
func (r *MealRepository) List(ctx context.Context, f model.MealFilter) ([]model.Meal, error) {
	query := "SELECT " + mealColumns + " FROM meal WHERE 1=1"
	args := []interface{}{}
	idx := 1

	if f.MaxPrice != nil {
		query += fmt.Sprintf(" AND price <= $%d", idx)
		args = append(args, *f.MaxPrice)
		idx++
	}
	if f.Title != "" {
		query += fmt.Sprintf(" AND title ILIKE '%%' || $%d || '%%'", idx)
		args = append(args, escapeLike(f.Title))
		idx++
	}
	if f.DateAfter != nil {
		query += fmt.Sprintf(` AND "when" > $%d`, idx)
		args = append(args, *f.DateAfter)
		idx++
	}
	if f.DateBefore != nil {
		query += fmt.Sprintf(` AND "when" < $%d`, idx)
		args = append(args, *f.DateBefore)
		idx++
	}
	switch f.Scope {
	case model.FutureOnly:
		query += ` AND "when" > LOCALTIMESTAMP`
	case model.PastOnly:
		query += ` AND "when" < LOCALTIMESTAMP`
	}
	if f.Available != nil {
		op := ">"
		if !*f.Available {
			op = "<="
		}
		query += " AND meal.max_reservations " + op +
			" (SELECT COALESCE(SUM(r.number_of_guests), 0) FROM reservation r WHERE r.meal_id = meal.id)"
	}

	query += orderClause(f.SortKey, f.SortDesc)

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, f.Limit)
	}

	meals := []model.Meal{}
	if err := r.DB.SelectContext(ctx, &meals, query, args...); err != nil {
		return nil, wrap("MealRepository.List", err)
	}
	return meals, nil
}

func orderClause(key model.SortKey, desc bool) string {
	col, ok := mealSortColumns[key]
	if !ok {
		return " ORDER BY id ASC"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	if key == model.SortByID {
		return " ORDER BY id " + dir
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", col, dir)
}

func (r *MealRepository) GetByID(ctx context.Context, id int64) (*model.Meal, error) {
	var m model.Meal
	err := r.DB.GetContext(ctx, &m, "SELECT "+mealColumns+" FROM meal WHERE id = $1", id)
	if err != nil {
		return nil, wrap("MealRepository.GetByID", err)
	}
	return &m, nil
}

// Create inserts m and overwrites it with the stored row, generated id included.
func (r *MealRepository) Create(ctx context.Context, m *model.Meal) error {
	const q = `
		INSERT INTO meal (title, description, location, "when", max_reservations, price, created_date, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + mealColumns
	err := r.DB.QueryRowxContext(ctx, q,
		m.Title, m.Description, m.Location, m.When, m.MaxReservations, m.Price, m.CreatedDate, m.ImageURL,
	).StructScan(m)
	if err != nil {
		return wrap("MealRepository.Create", err)
	}
	return nil
}

// Update applies the non-nil fields of p and returns the updated row.
func (r *MealRepository) Update(ctx context.Context, id int64, p model.MealPatch) (*model.Meal, error) {
	var sets setClause
	if p.Title != nil {
		sets.add("title", *p.Title)
	}
	if p.Description != nil {
		sets.add("description", *p.Description)
	}
	if p.Location != nil {
		sets.add("location", *p.Location)
	}
	if p.When != nil {
		sets.add(`"when"`, *p.When)
	}
	if p.MaxReservations != nil {
		sets.add("max_reservations", *p.MaxReservations)
	}
	if p.Price != nil {
		sets.add("price", *p.Price)
	}
	if p.CreatedDate != nil {
		sets.add("created_date", *p.CreatedDate)
	}
	if p.ImageURL != nil {
		sets.add("image_url", *p.ImageURL)
	}
	if sets.empty() {
		return r.GetByID(ctx, id)
	}

	query, args := sets.build("meal", mealColumns, id)
	var m model.Meal
	if err := r.DB.QueryRowxContext(ctx, query, args...).StructScan(&m); err != nil {
		return nil, wrap("MealRepository.Update", err)
	}
	return &m, nil
}

func (r *MealRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM meal WHERE id = $1`, id)
	if err != nil {
		return wrap("MealRepository.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("MealRepository.Delete", err)
	}
	if n == 0 {
		return wrap("MealRepository.Delete", ErrNotFound)
	}
	return nil
}

func (r *MealRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int
	const q = `SELECT COUNT(1) FROM meal WHERE id = $1`
	if err := r.DB.GetContext(ctx, &count, q, id); err != nil {
		return false, fmt.Errorf("MealRepository.Exists: %w", err)
	}
	return count > 0, nil
}
