package model

// Meal is a hosted meal guests can reserve seats for.
type Meal struct {
	ID              int64    `db:"id" json:"id"`
	Title           string   `db:"title" json:"title"`
	Description     string   `db:"description" json:"description"`
	Location        string   `db:"location" json:"location"`
	When            DateTime `db:"when" json:"when"`
	MaxReservations int      `db:"max_reservations" json:"max_reservations"`
	Price           float64  `db:"price" json:"price"`
	CreatedDate     Date     `db:"created_date" json:"created_date"`
	ImageURL        *string  `db:"image_url" json:"image_url,omitempty"`
}

// MealPatch carries the fields of a partial meal update; nil means unchanged.
type MealPatch struct {
	Title           *string
	Description     *string
	Location        *string
	When            *DateTime
	MaxReservations *int
	Price           *float64
	CreatedDate     *Date
	ImageURL        *string
}

// Empty reports whether the patch changes nothing.
func (p MealPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.When == nil &&
		p.MaxReservations == nil && p.Price == nil && p.CreatedDate == nil && p.ImageURL == nil
}

// MealAvailability is a meal together with its booked and remaining seats.
type MealAvailability struct {
	Meal
	ReservedGuests int  `json:"reserved_guests"`
	AvailableSpots int  `json:"available_spots"`
	FullyBooked    bool `json:"fully_booked"`
}

// MealRating summarises the reviews of one meal.
type MealRating struct {
	MealID       int64   `json:"meal_id"`
	ReviewCount  int     `json:"review_count"`
	AverageStars float64 `json:"average_stars"`
}
