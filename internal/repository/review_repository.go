package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mash021/meal-sharing/internal/model"
)

const reviewColumns = `id, meal_id, title, description, stars, created_date`

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// List returns all reviews, or the reviews of mealID when it is non-nil, newest first.
func (r *ReviewRepository) List(ctx context.Context, mealID *int64) ([]model.Review, error) {
	query := "SELECT " + reviewColumns + " FROM review"
	args := []interface{}{}
	if mealID != nil {
		query += " WHERE meal_id = $1"
		args = append(args, *mealID)
	}
	query += " ORDER BY created_date DESC, id DESC"

	reviews := []model.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, wrap("ReviewRepository.List", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	var rev model.Review
	err := r.db.GetContext(ctx, &rev, "SELECT "+reviewColumns+" FROM review WHERE id = $1", id)
	if err != nil {
		return nil, wrap("ReviewRepository.GetByID", err)
	}
	return &rev, nil
}

// Insert saves a new review and fills in its generated id.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) error {
	const q = `
		INSERT INTO review (meal_id, title, description, stars, created_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reviewColumns
	err := r.db.QueryRowxContext(ctx, q,
		review.MealID, review.Title, review.Description, review.Stars, review.CreatedDate,
	).StructScan(review)
	if err != nil {
		return wrap("ReviewRepository.Insert", err)
	}
	return nil
}

func (r *ReviewRepository) Update(ctx context.Context, id int64, p model.ReviewPatch) (*model.Review, error) {
	var sets setClause
	if p.MealID != nil {
		sets.add("meal_id", *p.MealID)
	}
	if p.Title != nil {
		sets.add("title", *p.Title)
	}
	if p.Description != nil {
		sets.add("description", *p.Description)
	}
	if p.Stars != nil {
		sets.add("stars", *p.Stars)
	}
	if p.CreatedDate != nil {
		sets.add("created_date", *p.CreatedDate)
	}
	if sets.empty() {
		return r.GetByID(ctx, id)
	}

	query, args := sets.build("review", reviewColumns, id)
	var rev model.Review
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&rev); err != nil {
		return nil, wrap("ReviewRepository.Update", err)
	}
	return &rev, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM review WHERE id = $1`, id)
	if err != nil {
		return wrap("ReviewRepository.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("ReviewRepository.Delete", err)
	}
	if n == 0 {
		return wrap("ReviewRepository.Delete", ErrNotFound)
	}
	return nil
}
