// Package user provides user registration on login and profile reads.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/logging"
)

type userCollection interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// Profile is the identity data carried by a verified Telegram login.
type Profile struct {
	TelegramID int64
	FirstName  string
	LastName   string
	Username   string
	PhotoURL   string
}

// DisplayName joins first and last name. It is empty without a first name.
func (p Profile) DisplayName() string {
	if strings.TrimSpace(p.FirstName) == "" {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Registrar creates users on first login and refreshes their Telegram data on
// every subsequent one.
type Registrar struct {
	users  userCollection
	logger *logrus.Entry
	now    func() time.Time
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users userCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureUser upserts the user keyed by telegram_id and returns the stored
// record. created reports whether this call inserted it.
func (r *Registrar) EnsureUser(ctx context.Context, profile Profile) (domain.User, bool, error) {
	if r == nil || r.users == nil {
		return domain.User{}, false, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return domain.User{}, false, errors.New("context is required")
	}
	if profile.TelegramID <= 0 {
		return domain.User{}, false, errors.New("telegram id is required")
	}

	now := r.now().UTC().Truncate(time.Millisecond)
	set := bson.M{
		"name":              profile.DisplayName(),
		"telegram_username": profile.Username,
		"updated_at":        now,
		"last_login_at":     now,
	}
	newID := uuid.NewString()
	setOnInsert := bson.M{
		"_id":        newID,
		"role":       domain.RoleUser,
		"created_at": now,
	}
	if profile.PhotoURL != "" {
		set["photo_url"] = profile.PhotoURL
	} else {
		setOnInsert["photo_url"] = ""
	}

	result := r.users.FindOneAndUpdate(ctx,
		bson.M{"telegram_id": profile.TelegramID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result == nil {
		return domain.User{}, false, errors.New("ensure user returned no result")
	}
	if err := result.Err(); err != nil {
		return domain.User{}, false, fmt.Errorf("ensure user: %w", err)
	}

	var user domain.User
	if err := result.Decode(&user); err != nil {
		return domain.User{}, false, fmt.Errorf("decode user: %w", err)
	}

	// Only the inserting call sees its own generated id come back.
	created := user.ID == newID
	if created {
		r.logger.WithFields(logging.Fields{
			"event":       "user_registered",
			"user_id":     user.ID,
			"telegram_id": profile.TelegramID,
		}).Info("registered new user")
		return user, true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":       "user_login",
		"user_id":     user.ID,
		"telegram_id": profile.TelegramID,
	}).Debug("updated user on login")

	return user, false, nil
}
