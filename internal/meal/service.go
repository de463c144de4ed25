// Package meal serves meal queries scoped to the caller's local day.
package meal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without a system zoneinfo database

	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/logging"
)

// DefaultTimezone is used when the caller does not name one.
const DefaultTimezone = "UTC"

type mealLister interface {
	ListBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Meal, error)
}

// Summary adds up the totals of a set of meals.
type Summary struct {
	Meals    int
	Calories float64
	Protein  float64
	Fat      float64
	Carbs    float64
}

// Service answers "what did I eat today" queries.
type Service struct {
	meals  mealLister
	logger *logrus.Entry
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(meals mealLister, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		meals:  meals,
		logger: logger,
		now:    time.Now,
	}
}

// Today returns the user's meals from the start to the end of the current day
// in timezone, newest first. An unknown timezone falls back to the UTC day.
func (s *Service) Today(ctx context.Context, userID, timezone string) ([]domain.Meal, error) {
	if s == nil || s.meals == nil {
		return nil, errors.New("meal service is not initialized")
	}

	start, end, err := DayRange(s.now(), timezone)
	if err != nil {
		s.logger.WithFields(logging.Fields{
			"event":    "timezone_fallback",
			"timezone": timezone,
			"user_id":  userID,
		}).WithError(err).Warn("unknown timezone, using UTC")
	}

	meals, err := s.meals.ListBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("today's meals: %w", err)
	}

	return meals, nil
}

// DayRange returns the first and last millisecond of now's calendar day in
// timezone. When the zone cannot be loaded the UTC day is returned along with
// the load error.
func DayRange(now time.Time, timezone string) (time.Time, time.Time, error) {
	name := strings.TrimSpace(timezone)
	if name == "" {
		name = DefaultTimezone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}

	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	return start, end, err
}

// Summarize totals meals.
func Summarize(meals []domain.Meal) Summary {
	summary := Summary{Meals: len(meals)}
	for _, m := range meals {
		summary.Calories += m.TotalCalories
		summary.Protein += m.TotalProtein
		summary.Fat += m.TotalFat
		summary.Carbs += m.TotalCarbs
	}
	return summary
}
