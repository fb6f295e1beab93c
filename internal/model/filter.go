package model

import "strings"

// SortKey names a column meals may be ordered by.
type SortKey string

const (
	SortByID              SortKey = "id"
	SortByWhen            SortKey = "when"
	SortByMaxReservations SortKey = "max_reservations"
	SortByPrice           SortKey = "price"
)

// ParseSortKey maps a client supplied sort key onto the allow-list.
// "date" is accepted as an alias of "when". Ordering by id is internal only.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "when", "date":
		return SortByWhen, true
	case "max_reservations":
		return SortByMaxReservations, true
	case "price":
		return SortByPrice, true
	}
	return "", false
}

// TimeScope restricts meals relative to the database clock.
type TimeScope int

const (
	AnyTime TimeScope = iota
	FutureOnly
	PastOnly
)

// MealFilter holds the optional criteria of a meal listing. Zero values mean "no filter".
type MealFilter struct {
	MaxPrice   *float64
	Title      string
	DateAfter  *DateTime
	DateBefore *DateTime
	// Available selects meals with (true) or without (false) free seats.
	Available *bool
	Scope     TimeScope
	SortKey   SortKey
	SortDesc  bool
	Limit     int
}
