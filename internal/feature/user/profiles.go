package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meal_tracker_api/internal/domain"
)

type userReader interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// Response is the public view of a user. The Telegram id is never exposed.
type Response struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	PhotoURL         string    `json:"photoUrl"`
	TelegramUsername string    `json:"telegramUsername"`
	LanguageCode     string    `json:"languageCode,omitempty"`
	Role             string    `json:"role"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	CalorieTarget    *int      `json:"calorieTarget"`
}

// Profiles serves public user profiles.
type Profiles struct {
	users userReader
}

// NewProfiles constructs Profiles over a user reader.
func NewProfiles(users userReader) *Profiles {
	return &Profiles{users: users}
}

// Get returns the profile for id. Missing users yield an error wrapping
// domain.ErrNotFound.
func (p *Profiles) Get(ctx context.Context, id string) (Response, error) {
	if p == nil || p.users == nil {
		return Response{}, errors.New("profiles are not initialized")
	}

	u, err := p.users.GetByID(ctx, id)
	if err != nil {
		return Response{}, fmt.Errorf("load profile %s: %w", id, err)
	}

	return NewResponse(u), nil
}

// NewResponse maps a stored user to its public view.
func NewResponse(u domain.User) Response {
	return Response{
		ID:               u.ID,
		Name:             u.Name,
		PhotoURL:         u.PhotoURL,
		TelegramUsername: u.TelegramUsername,
		LanguageCode:     u.LanguageCode,
		Role:             u.Role,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		CalorieTarget:    u.CalorieTarget(),
	}
}
