package service

import "github.com/mash021/meal-sharing/internal/model"

// AvailabilityOf computes the remaining seats of m given the guests already booked.
// Overbooked meals yield a negative AvailableSpots and count as fully booked.
func AvailabilityOf(m model.Meal, reservedGuests int) model.MealAvailability {
	spots := m.MaxReservations - reservedGuests
	return model.MealAvailability{
		Meal:           m,
		ReservedGuests: reservedGuests,
		AvailableSpots: spots,
		FullyBooked:    spots <= 0,
	}
}

// ComputeAvailability pairs every meal with its booked guests from reserved.
// Meals missing from reserved have no reservations.
func ComputeAvailability(meals []model.Meal, reserved map[int64]int) []model.MealAvailability {
	out := make([]model.MealAvailability, 0, len(meals))
	for _, m := range meals {
		out = append(out, AvailabilityOf(m, reserved[m.ID]))
	}
	return out
}

// AverageStars is the plain mean of the stars of reviews, 0 when there are none.
func AverageStars(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Stars
	}
	return float64(total) / float64(len(reviews))
}

func mealIDs(meals []model.Meal) []int64 {
	ids := make([]int64, 0, len(meals))
	for _, m := range meals {
		ids = append(ids, m.ID)
	}
	return ids
}
