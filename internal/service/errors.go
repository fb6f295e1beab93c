package service

import "errors"

// ErrMealNotFound is returned when a reservation or review references a meal that does not exist.
var ErrMealNotFound = errors.New("meal_id does not reference an existing meal")
