package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider exposes helper methods to retrieve collection counts for basic
// diagnostics without leaking MongoDB internals to callers.
type StatsProvider struct {
	users countCollection
	meals countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the provided user and
// meal collections.
func NewStatsProvider(users, meals countCollection) *StatsProvider {
	return &StatsProvider{
		users: users,
		meals: meals,
	}
}

// CountUsers returns the number of documents in the users collection.
func (p *StatsProvider) CountUsers(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.users == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// CountMeals returns the number of meals logged since the given time. A zero
// since counts every meal.
func (p *StatsProvider) CountMeals(ctx context.Context, since time.Time) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.meals == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	filter := bson.M{}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": since}
	}

	count, err := p.meals.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count meals: %w", err)
	}

	return count, nil
}
