package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mash021/meal-sharing/internal/model"
)

func TestComputeAvailability(t *testing.T) {
	meals := []model.Meal{
		{ID: 1, MaxReservations: 10},
		{ID: 2, MaxReservations: 4},
		{ID: 3, MaxReservations: 2},
	}
	reserved := map[int64]int{1: 3, 3: 5}

	got := ComputeAvailability(meals, reserved)

	assert.Len(t, got, 3)
	assert.Equal(t, 7, got[0].AvailableSpots)
	assert.False(t, got[0].FullyBooked)

	// no reservations: every seat is free
	assert.Equal(t, 0, got[1].ReservedGuests)
	assert.Equal(t, 4, got[1].AvailableSpots)

	// already overbooked
	assert.Equal(t, -3, got[2].AvailableSpots)
	assert.True(t, got[2].FullyBooked)
}

func TestAvailabilityOfExactlyFull(t *testing.T) {
	a := AvailabilityOf(model.Meal{ID: 1, MaxReservations: 4}, 4)
	assert.Equal(t, 0, a.AvailableSpots)
	assert.True(t, a.FullyBooked)
}

func TestAverageStars(t *testing.T) {
	assert.Equal(t, 0.0, AverageStars(nil))
	assert.Equal(t, 4.0, AverageStars([]model.Review{{Stars: 5}, {Stars: 3}}))
	assert.InDelta(t, 3.6667, AverageStars([]model.Review{{Stars: 5}, {Stars: 5}, {Stars: 1}}), 0.0001)
}
