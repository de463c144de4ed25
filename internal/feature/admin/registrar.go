// Package admin provides the startup helper that promotes the configured
// Telegram account to the ADMIN role.
package admin

import (
	"context"
	"errors"
	"fmt"
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
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar bootstraps the configured admin record.
type Registrar struct {
	users  userCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided users collection.
func NewRegistrar(users userCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
	}
}

// EnsureAdmin upserts the user with telegramID as ADMIN and demotes any other
// admins to USER. A user created here gets a fresh id and fills in the rest
// of their profile on first login.
func (r *Registrar) EnsureAdmin(ctx context.Context, telegramID int64) error {
	if r == nil || r.users == nil {
		return errors.New("admin registrar is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if telegramID <= 0 {
		return errors.New("admin telegram id is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	demoteResult, err := r.users.UpdateMany(ctx,
		bson.M{"role": domain.RoleAdmin, "telegram_id": bson.M{"$ne": telegramID}},
		bson.M{"$set": bson.M{
			"role":       domain.RoleUser,
			"updated_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("demote previous admins: %w", err)
	}

	upsertResult, err := r.users.UpdateOne(ctx,
		bson.M{"telegram_id": telegramID},
		bson.M{
			"$set": bson.M{
				"role":       domain.RoleAdmin,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":               uuid.NewString(),
				"name":              "",
				"telegram_username": "",
				"photo_url":         "",
				"created_at":        now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":          "admin_bootstrap",
		"telegram_id":    telegramID,
		"demoted_admins": modifiedCount(demoteResult),
		"matched_admin":  matchedCount(upsertResult),
		"upserted_admin": upsertedCount(upsertResult),
	}).Info("ensured admin user")

	return nil
}

func modifiedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.ModifiedCount
}

func matchedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.MatchedCount
}

func upsertedCount(result *mongo.UpdateResult) int64 {
	if result == nil {
		return 0
	}
	return result.UpsertedCount
}
