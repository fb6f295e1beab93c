package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mash021/meal-sharing/internal/cache"
	"github.com/mash021/meal-sharing/internal/metrics"
	"github.com/mash021/meal-sharing/internal/model"
	"github.com/mash021/meal-sharing/internal/repository"
)

// ReviewStore is the persistence the review service needs.
type ReviewStore interface {
	List(ctx context.Context, mealID *int64) ([]model.Review, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	Insert(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, id int64, p model.ReviewPatch) (*model.Review, error)
	Delete(ctx context.Context, id int64) error
}

// ReviewService contains business logic for reviews.
type ReviewService struct {
	reviewRepo ReviewStore
	meals      MealChecker
	cache      cache.Cache
	ttl        time.Duration
	log        logrus.FieldLogger
}

// NewReviewService constructs a ReviewService. Ratings are cached in c for ttl.
func NewReviewService(rr ReviewStore, meals MealChecker, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *ReviewService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ReviewService{reviewRepo: rr, meals: meals, cache: c, ttl: ttl, log: log}
}

func (s *ReviewService) List(ctx context.Context) ([]model.Review, error) {
	reviews, err := s.reviewRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.List: %w", err)
	}
	return reviews, nil
}

// ListForMeal returns the reviews of an existing meal; a missing meal is repository.ErrNotFound.
func (s *ReviewService) ListForMeal(ctx context.Context, mealID int64) ([]model.Review, error) {
	exists, err := s.meals.Exists(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.ListForMeal: checking meal exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("ReviewService.ListForMeal: meal %d: %w", mealID, repository.ErrNotFound)
	}
	reviews, err := s.reviewRepo.List(ctx, &mealID)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.ListForMeal: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*model.Review, error) {
	rev, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.Get: %w", err)
	}
	return rev, nil
}

// Create checks that the meal exists, inserts the review and drops the cached rating.
func (s *ReviewService) Create(ctx context.Context, rev *model.Review) error {
	if err := s.checkMeal(ctx, rev.MealID); err != nil {
		return fmt.Errorf("ReviewService.Create: %w", err)
	}
	if rev.CreatedDate.IsZero() {
		rev.CreatedDate = model.Today()
	}
	if err := s.reviewRepo.Insert(ctx, rev); err != nil {
		return fmt.Errorf("ReviewService.Create: insert: %w", err)
	}
	metrics.RecordReview(rev.Stars)
	s.invalidate(ctx, rev.MealID)
	return nil
}

func (s *ReviewService) Update(ctx context.Context, id int64, p model.ReviewPatch) (*model.Review, error) {
	current, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.Update: %w", err)
	}
	if p.MealID != nil {
		if err := s.checkMeal(ctx, *p.MealID); err != nil {
			return nil, fmt.Errorf("ReviewService.Update: %w", err)
		}
	}
	rev, err := s.reviewRepo.Update(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.Update: %w", err)
	}
	s.invalidate(ctx, current.MealID, rev.MealID)
	return rev, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	current, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ReviewService.Delete: %w", err)
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ReviewService.Delete: %w", err)
	}
	s.invalidate(ctx, current.MealID)
	return nil
}

// Rating returns the review count and mean stars of a meal, served from cache when possible.
func (s *ReviewService) Rating(ctx context.Context, mealID int64) (*model.MealRating, error) {
	key := cache.RatingKey(mealID)

	var cached model.MealRating
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("rating cache read failed")
	}
	if hit {
		return &cached, nil
	}

	reviews, err := s.ListForMeal(ctx, mealID)
	if err != nil {
		return nil, fmt.Errorf("ReviewService.Rating: %w", err)
	}
	rating := &model.MealRating{
		MealID:       mealID,
		ReviewCount:  len(reviews),
		AverageStars: AverageStars(reviews),
	}
	if err := s.cache.Set(ctx, key, rating, s.ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("rating cache write failed")
	}
	return rating, nil
}

func (s *ReviewService) invalidate(ctx context.Context, mealIDs ...int64) {
	keys := make([]string, 0, len(mealIDs))
	for _, id := range mealIDs {
		keys = append(keys, cache.RatingKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).Warn("rating cache invalidation failed")
	}
}

func (s *ReviewService) checkMeal(ctx context.Context, mealID int64) error {
	exists, err := s.meals.Exists(ctx, mealID)
	if err != nil {
		return fmt.Errorf("checking meal exists: %w", err)
	}
	if !exists {
		return ErrMealNotFound
	}
	return nil
}
