package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mash021/meal-sharing/internal/metrics"
	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/repository"
)

// ReservationStore is the persistence the reservation service needs.
type ReservationStore interface {
	List(ctx context.Context, mealID *int64) ([]model.Reservation, error)
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	Create(ctx context.Context, res *model.Reservation) error
	CreateWithinCapacity(ctx context.Context, res *model.Reservation) error
	Update(ctx context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error)
	UpdateWithinCapacity(ctx context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

// MealChecker reports whether a meal exists.
type MealChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ReservationService contains business logic for reservations.
type ReservationService struct {
	reservations    ReservationStore
	meals           MealChecker
	enforceCapacity bool
	log             logrus.FieldLogger
}

// NewReservationService builds the service. With enforceCapacity set, a booking that
// would exceed the meal's max_reservations is refused with repository.ErrCapacityExceeded.
func NewReservationService(rs ReservationStore, meals MealChecker, enforceCapacity bool, log logrus.FieldLogger) *ReservationService {
	return &ReservationService{reservations: rs, meals: meals, enforceCapacity: enforceCapacity, log: log}
}

func (s *ReservationService) List(ctx context.Context, mealID *int64) ([]model.Reservation, error) {
	list, err := s.reservations.List(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("ReservationService.List: %w", err)
	}
	return list, nil
}

func (s *ReservationService) Get(ctx context.Context, id int64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ReservationService.Get: %w", err)
	}
	return res, nil
}

// Create verifies the meal exists and stores the reservation.
func (s *ReservationService) Create(ctx context.Context, res *model.Reservation) error {
	if err := s.checkMeal(ctx, res.MealID); err != nil {
		return fmt.Errorf("ReservationService.Create: %w", err)
	}
	if res.CreatedDate.IsZero() {
		res.CreatedDate = model.Today()
	}

	var err error
	if s.enforceCapacity {
		err = s.reservations.CreateWithinCapacity(ctx, res)
	} else {
		err = s.reservations.Create(ctx, res)
	}
	switch {
	case errors.Is(err, repository.ErrCapacityExceeded):
		metrics.RecordCapacityRejection()
		s.log.WithField("meal_id", res.MealID).Info("reservation refused: meal is full")
		return fmt.Errorf("ReservationService.Create: %w", err)
	case errors.Is(err, repository.ErrNotFound):
		// the meal vanished between the existence check and the locked read
		return fmt.Errorf("ReservationService.Create: %w", ErrMealNotFound)
	case err != nil:
		return fmt.Errorf("ReservationService.Create: %w", err)
	}

	metrics.RecordReservation(res.NumberOfGuests)
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "meal_id": res.MealID}).Info("reservation created")
	return nil
}

// Update applies p to an existing reservation. A missing reservation wins over a bad meal_id.
// With capacity enforced, a change of guests or meal is checked against the target meal.
func (s *ReservationService) Update(ctx context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error) {
	if _, err := s.reservations.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("ReservationService.Update: %w", err)
	}
	if p.MealID != nil {
		if err := s.checkMeal(ctx, *p.MealID); err != nil {
			return nil, fmt.Errorf("ReservationService.Update: %w", err)
		}
	}

	var (
		res *model.Reservation
		err error
	)
	if s.enforceCapacity && (p.MealID != nil || p.NumberOfGuests != nil) {
		res, err = s.reservations.UpdateWithinCapacity(ctx, id, p)
	} else {
		res, err = s.reservations.Update(ctx, id, p)
	}
	if errors.Is(err, repository.ErrCapacityExceeded) {
		metrics.RecordCapacityRejection()
		s.log.WithField("reservation_id", id).Info("reservation update refused: meal is full")
	}
	if err != nil {
		return nil, fmt.Errorf("ReservationService.Update: %w", err)
	}
	return res, nil
}

func (s *ReservationService) Delete(ctx context.Context, id int64) error {
	if err := s.reservations.Delete(ctx, id); err != nil {
		return fmt.Errorf("ReservationService.Delete: %w", err)
	}
	return nil
}

func (s *ReservationService) checkMeal(ctx context.Context, mealID int64) error {
	exists, err := s.meals.Exists(ctx, mealID)
	if err != nil {
		return fmt.Errorf("checking meal exists: %w", err)
	}
	if !exists {
		return ErrMealNotFound
	}
	return nil
}
