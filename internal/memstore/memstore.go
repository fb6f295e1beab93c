// Package memstore is an in-memory implementation of the meal, reservation and review
// stores, used by tests and by `serve` when STORAGE=memory.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/repository"
)

// Store holds all three tables behind one lock.
type Store struct {
	mu sync.Mutex

	meals        map[int64]model.Meal
	reservations map[int64]model.Reservation
	reviews      map[int64]model.Review
	nextID       map[string]int64

	// ErrorOnNextCall is returned (once) by the next store call, to exercise error paths.
	ErrorOnNextCall error
}

func New() *Store {
	return &Store{
		meals:        make(map[int64]model.Meal),
		reservations: make(map[int64]model.Reservation),
		reviews:      make(map[int64]model.Review),
		nextID:       make(map[string]int64),
	}
}

// Meals returns the meal view of s.
func (s *Store) Meals() *Meals { return &Meals{s} }

// Reservations returns the reservation view of s.
func (s *Store) Reservations() *Reservations { return &Reservations{s} }

// Reviews returns the review view of s.
func (s *Store) Reviews() *Reviews { return &Reviews{s} }

// checkError returns and clears any injected error. Callers hold mu.
func (s *Store) checkError() error {
	if s.ErrorOnNextCall != nil {
		err := s.ErrorOnNextCall
		s.ErrorOnNextCall = nil
		return err
	}
	return nil
}

func (s *Store) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *Store) reservedGuests(mealID int64) int {
	total := 0
	for _, r := range s.reservations {
		if r.MealID == mealID {
			total += r.NumberOfGuests
		}
	}
	return total
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

// cloneMeal copies m so that no pointer field is shared with the caller.
func cloneMeal(m model.Meal) model.Meal {
	if m.ImageURL != nil {
		url := *m.ImageURL
		m.ImageURL = &url
	}
	return m
}

// localNow is the wall clock expressed the way "when" columns are stored.
func localNow() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
}

// Meals implements the meal store and the guest counter.
type Meals struct{ s *Store }

func (m *Meals) List(_ context.Context, f model.MealFilter) ([]model.Meal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return nil, err
	}

	now := localNow()
	title := strings.ToLower(f.Title)
	out := []model.Meal{}
	for _, meal := range m.s.meals {
		if f.MaxPrice != nil && meal.Price > *f.MaxPrice {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(meal.Title), title) {
			continue
		}
		if f.DateAfter != nil && !meal.When.After(f.DateAfter.Time) {
			continue
		}
		if f.DateBefore != nil && !meal.When.Before(f.DateBefore.Time) {
			continue
		}
		if f.Scope == model.FutureOnly && !meal.When.After(now) {
			continue
		}
		if f.Scope == model.PastOnly && !meal.When.Before(now) {
			continue
		}
		if f.Available != nil {
			free := meal.MaxReservations > m.s.reservedGuests(meal.ID)
			if free != *f.Available {
				continue
			}
		}
		out = append(out, cloneMeal(meal))
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], f.SortKey, f.SortDesc) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// less orders like the SQL repository: the sort column first, then id ascending.
func less(a, b model.Meal, key model.SortKey, desc bool) bool {
	var cmp int
	switch key {
	case model.SortByWhen:
		cmp = a.When.Compare(b.When.Time)
	case model.SortByMaxReservations:
		cmp = a.MaxReservations - b.MaxReservations
	case model.SortByPrice:
		switch {
		case a.Price < b.Price:
			cmp = -1
		case a.Price > b.Price:
			cmp = 1
		}
	case model.SortByID:
		if desc {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	}
	if cmp != 0 {
		if desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.ID < b.ID
}

func (m *Meals) GetByID(_ context.Context, id int64) (*model.Meal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return nil, err
	}
	meal, ok := m.s.meals[id]
	if !ok {
		return nil, notFound("memstore.Meals.GetByID")
	}
	meal = cloneMeal(meal)
	return &meal, nil
}

func (m *Meals) Create(_ context.Context, meal *model.Meal) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return err
	}
	meal.ID = m.s.id("meal")
	m.s.meals[meal.ID] = cloneMeal(*meal)
	return nil
}

func (m *Meals) Update(_ context.Context, id int64, p model.MealPatch) (*model.Meal, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return nil, err
	}
	meal, ok := m.s.meals[id]
	if !ok {
		return nil, notFound("memstore.Meals.Update")
	}
	if p.Title != nil {
		meal.Title = *p.Title
	}
	if p.Description != nil {
		meal.Description = *p.Description
	}
	if p.Location != nil {
		meal.Location = *p.Location
	}
	if p.When != nil {
		meal.When = *p.When
	}
	if p.MaxReservations != nil {
		meal.MaxReservations = *p.MaxReservations
	}
	if p.Price != nil {
		meal.Price = *p.Price
	}
	if p.CreatedDate != nil {
		meal.CreatedDate = *p.CreatedDate
	}
	if p.ImageURL != nil {
		url := *p.ImageURL
		meal.ImageURL = &url
	}
	m.s.meals[id] = meal
	meal = cloneMeal(meal)
	return &meal, nil
}

// Delete removes the meal together with its reservations and reviews.
func (m *Meals) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return err
	}
	if _, ok := m.s.meals[id]; !ok {
		return notFound("memstore.Meals.Delete")
	}
	delete(m.s.meals, id)
	for rid, r := range m.s.reservations {
		if r.MealID == id {
			delete(m.s.reservations, rid)
		}
	}
	for rid, r := range m.s.reviews {
		if r.MealID == id {
			delete(m.s.reviews, rid)
		}
	}
	return nil
}

func (m *Meals) Exists(_ context.Context, id int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return false, err
	}
	_, ok := m.s.meals[id]
	return ok, nil
}

func (m *Meals) ReservedGuests(_ context.Context, mealIDs []int64) (map[int64]int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.checkError(); err != nil {
		return nil, err
	}
	wanted := make(map[int64]bool, len(mealIDs))
	for _, id := range mealIDs {
		wanted[id] = true
	}
	out := make(map[int64]int, len(mealIDs))
	for _, r := range m.s.reservations {
		if wanted[r.MealID] {
			out[r.MealID] += r.NumberOfGuests
		}
	}
	return out, nil
}

// Reservations implements the reservation store.
type Reservations struct{ s *Store }

func (r *Reservations) List(_ context.Context, mealID *int64) ([]model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	out := []model.Reservation{}
	for _, res := range r.s.reservations {
		if mealID == nil || res.MealID == *mealID {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Reservations) GetByID(_ context.Context, id int64) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, notFound("memstore.Reservations.GetByID")
	}
	return &res, nil
}

func (r *Reservations) Create(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return err
	}
	r.insert(res)
	return nil
}

func (r *Reservations) CreateWithinCapacity(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return err
	}
	meal, ok := r.s.meals[res.MealID]
	if !ok {
		return notFound("memstore.Reservations.CreateWithinCapacity")
	}
	reserved := r.s.reservedGuests(res.MealID)
	if reserved+res.NumberOfGuests > meal.MaxReservations {
		return fmt.Errorf("memstore: %d of %d seats taken: %w", reserved, meal.MaxReservations, repository.ErrCapacityExceeded)
	}
	r.insert(res)
	return nil
}

func (r *Reservations) insert(res *model.Reservation) {
	res.ID = r.s.id("reservation")
	r.s.reservations[res.ID] = *res
}

func (r *Reservations) Update(_ context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, notFound("memstore.Reservations.Update")
	}
	applyReservationPatch(&res, p)
	r.s.reservations[id] = res
	return &res, nil
}

// UpdateWithinCapacity applies p only if the target meal still has room once
// the reservation's own current guests are left out of the count.
func (r *Reservations) UpdateWithinCapacity(_ context.Context, id int64, p model.ReservationPatch) (*model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	current, ok := r.s.reservations[id]
	if !ok {
		return nil, notFound("memstore.Reservations.UpdateWithinCapacity")
	}
	res := current
	applyReservationPatch(&res, p)

	meal, ok := r.s.meals[res.MealID]
	if !ok {
		return nil, notFound("memstore.Reservations.UpdateWithinCapacity")
	}
	reserved := r.s.reservedGuests(res.MealID)
	if current.MealID == res.MealID {
		reserved -= current.NumberOfGuests
	}
	if reserved+res.NumberOfGuests > meal.MaxReservations {
		return nil, fmt.Errorf("memstore: %d of %d seats taken: %w", reserved, meal.MaxReservations, repository.ErrCapacityExceeded)
	}
	r.s.reservations[id] = res
	return &res, nil
}

func applyReservationPatch(res *model.Reservation, p model.ReservationPatch) {
	if p.MealID != nil {
		res.MealID = *p.MealID
	}
	if p.ContactName != nil {
		res.ContactName = *p.ContactName
	}
	if p.ContactPhoneNumber != nil {
		res.ContactPhoneNumber = *p.ContactPhoneNumber
	}
	if p.ContactEmail != nil {
		res.ContactEmail = *p.ContactEmail
	}
	if p.NumberOfGuests != nil {
		res.NumberOfGuests = *p.NumberOfGuests
	}
	if p.CreatedDate != nil {
		res.CreatedDate = *p.CreatedDate
	}
}

func (r *Reservations) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return err
	}
	if _, ok := r.s.reservations[id]; !ok {
		return notFound("memstore.Reservations.Delete")
	}
	delete(r.s.reservations, id)
	return nil
}

// Reviews implements the review store.
type Reviews struct{ s *Store }

// List orders newest first, like the SQL repository.
func (r *Reviews) List(_ context.Context, mealID *int64) ([]model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	out := []model.Review{}
	for _, rev := range r.s.reviews {
		if mealID == nil || rev.MealID == *mealID {
			out = append(out, rev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedDate.Equal(out[j].CreatedDate.Time) {
			return out[i].CreatedDate.After(out[j].CreatedDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Reviews) GetByID(_ context.Context, id int64) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	rev, ok := r.s.reviews[id]
	if !ok {
		return nil, notFound("memstore.Reviews.GetByID")
	}
	return &rev, nil
}

func (r *Reviews) Insert(_ context.Context, rev *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return err
	}
	rev.ID = r.s.id("review")
	r.s.reviews[rev.ID] = *rev
	return nil
}

func (r *Reviews) Update(_ context.Context, id int64, p model.ReviewPatch) (*model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return nil, err
	}
	rev, ok := r.s.reviews[id]
	if !ok {
		return nil, notFound("memstore.Reviews.Update")
	}
	if p.MealID != nil {
		rev.MealID = *p.MealID
	}
	if p.Title != nil {
		rev.Title = *p.Title
	}
	if p.Description != nil {
		rev.Description = *p.Description
	}
	if p.Stars != nil {
		rev.Stars = *p.Stars
	}
	if p.CreatedDate != nil {
		rev.CreatedDate = *p.CreatedDate
	}
	r.s.reviews[id] = rev
	return &rev, nil
}

func (r *Reviews) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkError(); err != nil {
		return err
	}
	if _, ok := r.s.reviews[id]; !ok {
		return notFound("memstore.Reviews.Delete")
	}
	delete(r.s.reviews, id)
	return nil
}

// Tables lists the in-memory tables in the shape of pg_catalog.pg_tables.
func (s *Store) Tables(_ context.Context) ([]repository.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkError(); err != nil {
		return nil, err
	}
	return []repository.Table{
		{Schema: "memory", Name: "meal"},
		{Schema: "memory", Name: "reservation"},
		{Schema: "memory", Name: "review"},
	}, nil
}
