package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mash021/meal-sharing/internal/cache"
	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/repository"
)

// MealStore is the persistence the meal service needs.
type MealStore interface {
	List(ctx context.Context, f model.MealFilter) ([]model.Meal, error)
	GetByID(ctx context.Context, id int64) (*model.Meal, error)
	Create(ctx context.Context, m *model.Meal) error
	Update(ctx context.Context, id int64, p model.MealPatch) (*model.Meal, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

// GuestCounter sums booked guests per meal.
type GuestCounter interface {
	ReservedGuests(ctx context.Context, mealIDs []int64) (map[int64]int, error)
}

// MealService contains business logic for meals and their availability.
type MealService struct {
	meals  MealStore
	guests GuestCounter
	cache  cache.Cache
	log    logrus.FieldLogger
}

func NewMealService(meals MealStore, guests GuestCounter, c cache.Cache, log logrus.FieldLogger) *MealService {
	if c == nil {
		c = cache.Noop{}
	}
	return &MealService{meals: meals, guests: guests, cache: c, log: log}
}

func (s *MealService) List(ctx context.Context, f model.MealFilter) ([]model.Meal, error) {
	meals, err := s.meals.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("MealService.List: %w", err)
	}
	return meals, nil
}

func (s *MealService) Get(ctx context.Context, id int64) (*model.Meal, error) {
	m, err := s.meals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MealService.Get: %w", err)
	}
	return m, nil
}

// Create stores m, defaulting created_date to today.
func (s *MealService) Create(ctx context.Context, m *model.Meal) error {
	if m.CreatedDate.IsZero() {
		m.CreatedDate = model.Today()
	}
	if err := s.meals.Create(ctx, m); err != nil {
		return fmt.Errorf("MealService.Create: %w", err)
	}
	s.log.WithField("meal_id", m.ID).Info("meal created")
	return nil
}

func (s *MealService) Update(ctx context.Context, id int64, p model.MealPatch) (*model.Meal, error) {
	m, err := s.meals.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("MealService.Update: %w", err)
	}
	return m, nil
}

// Delete removes the meal; its reservations and reviews go with it.
func (s *MealService) Delete(ctx context.Context, id int64) error {
	if err := s.meals.Delete(ctx, id); err != nil {
		return fmt.Errorf("MealService.Delete: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.RatingKey(id)); err != nil {
		s.log.WithError(err).Warn("rating cache invalidation failed")
	}
	s.log.WithField("meal_id", id).Info("meal deleted")
	return nil
}

// Availability lists the meals matching f with their remaining seats,
// using one aggregate query for the whole batch.
func (s *MealService) Availability(ctx context.Context, f model.MealFilter) ([]model.MealAvailability, error) {
	meals, err := s.meals.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("MealService.Availability: %w", err)
	}
	reserved, err := s.guests.ReservedGuests(ctx, mealIDs(meals))
	if err != nil {
		return nil, fmt.Errorf("MealService.Availability: %w", err)
	}
	return ComputeAvailability(meals, reserved), nil
}

func (s *MealService) AvailabilityOf(ctx context.Context, id int64) (*model.MealAvailability, error) {
	m, err := s.meals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MealService.AvailabilityOf: %w", err)
	}
	reserved, err := s.guests.ReservedGuests(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("MealService.AvailabilityOf: %w", err)
	}
	a := AvailabilityOf(*m, reserved[id])
	return &a, nil
}

func (s *MealService) Future(ctx context.Context) ([]model.Meal, error) {
	return s.List(ctx, model.MealFilter{Scope: model.FutureOnly})
}

func (s *MealService) Past(ctx context.Context) ([]model.Meal, error) {
	return s.List(ctx, model.MealFilter{Scope: model.PastOnly})
}

func (s *MealService) AllByID(ctx context.Context) ([]model.Meal, error) {
	return s.List(ctx, model.MealFilter{SortKey: model.SortByID})
}

// First returns the meal with the lowest id.
func (s *MealService) First(ctx context.Context) (*model.Meal, error) {
	return s.edge(ctx, false)
}

// Last returns the meal with the highest id.
func (s *MealService) Last(ctx context.Context) (*model.Meal, error) {
	return s.edge(ctx, true)
}

func (s *MealService) edge(ctx context.Context, desc bool) (*model.Meal, error) {
	meals, err := s.meals.List(ctx, model.MealFilter{SortKey: model.SortByID, SortDesc: desc, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("MealService.edge: %w", err)
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("MealService.edge: %w", repository.ErrNotFound)
	}
	return &meals[0], nil
}
