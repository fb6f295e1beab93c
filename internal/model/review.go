package model

// Review represents a guest's review of a meal.
type Review struct {
	ID          int64  `db:"id" json:"id"`
	MealID      int64  `db:"meal_id" json:"meal_id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Stars       int    `db:"stars" json:"stars"`
	CreatedDate Date   `db:"created_date" json:"created_date"`
}

// ReviewPatch carries the fields of a partial review update.
type ReviewPatch struct {
	MealID      *int64
	Title       *string
	Description *string
	Stars       *int
	CreatedDate *Date
}

func (p ReviewPatch) Empty() bool {
	return p.MealID == nil && p.Title == nil && p.Description == nil && p.Stars == nil && p.CreatedDate == nil
}
