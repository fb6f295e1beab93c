// Package cache provides the read-through cache used for derived meal values.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores JSON-encodable values by key.
type Cache interface {
	// Get decodes the value stored under key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RatingKey is the key of the cached rating summary of a meal.
func RatingKey(mealID int64) string {
	return fmt.Sprintf("meal:%d:rating", mealID)
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error)         { return false, nil }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                       { return nil }
