package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

type findOneCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

type mealCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type tokenCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// UserRepository reads users from MongoDB.
type UserRepository struct {
	collection findOneCollection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(collection findOneCollection) *UserRepository {
	return &UserRepository{collection: collection}
}

// GetByID fetches a user by internal id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	if r == nil || r.collection == nil {
		return User{}, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return User{}, errors.New("context is required")
	}
	if strings.TrimSpace(id) == "" {
		return User{}, errors.New("id is required")
	}

	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByTelegramID fetches a user by Telegram user id.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (User, error) {
	if r == nil || r.collection == nil {
		return User{}, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return User{}, errors.New("context is required")
	}
	if telegramID == 0 {
		return User{}, errors.New("telegram_id is required")
	}

	return r.findOne(ctx, bson.M{"telegram_id": telegramID})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (User, error) {
	result := r.collection.FindOne(ctx, filter)
	if result == nil {
		return User{}, errors.New("find user returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, fmt.Errorf("find user: %w", ErrNotFound)
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	var user User
	if err := result.Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}

	return user, nil
}

// MealRepository persists and queries meals in MongoDB.
type MealRepository struct {
	collection mealCollection
}

// NewMealRepository constructs a MealRepository.
func NewMealRepository(collection mealCollection) *MealRepository {
	return &MealRepository{collection: collection}
}

// ListBetween returns the user's meals with from <= timestamp <= to, newest
// first.
func (r *MealRepository) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Meal, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("meal repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user_id is required")
	}

	filter := bson.M{
		"user_id": userID,
		"timestamp": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find meals: %w", err)
	}
	defer cursor.Close(ctx)

	meals := make([]Meal, 0)
	if err := cursor.All(ctx, &meals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	for i := range meals {
		if meals[i].Items == nil {
			meals[i].Items = []MealItem{}
		}
	}

	return meals, nil
}

// RefreshTokenRepository stores hashed refresh-token records in MongoDB.
type RefreshTokenRepository struct {
	collection tokenCollection
}

// NewRefreshTokenRepository constructs a RefreshTokenRepository.
func NewRefreshTokenRepository(collection tokenCollection) *RefreshTokenRepository {
	return &RefreshTokenRepository{collection: collection}
}

// Save inserts a refresh-token record.
func (r *RefreshTokenRepository) Save(ctx context.Context, token RefreshToken) error {
	if r == nil || r.collection == nil {
		return errors.New("refresh token repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if token.TokenHash == "" {
		return errors.New("token_hash is required")
	}
	if token.UserID == "" {
		return errors.New("user_id is required")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.collection.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// Find returns the record for tokenHash or ErrNotFound.
func (r *RefreshTokenRepository) Find(ctx context.Context, tokenHash string) (RefreshToken, error) {
	if r == nil || r.collection == nil {
		return RefreshToken{}, errors.New("refresh token repository is not initialized")
	}
	if ctx == nil {
		return RefreshToken{}, errors.New("context is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"token_hash": tokenHash})
	if result == nil {
		return RefreshToken{}, errors.New("find refresh token returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return RefreshToken{}, fmt.Errorf("find refresh token: %w", ErrNotFound)
		}
		return RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}

	var token RefreshToken
	if err := result.Decode(&token); err != nil {
		return RefreshToken{}, fmt.Errorf("decode refresh token: %w", err)
	}

	return token, nil
}

// Consume deletes the record and reports whether this call removed it.
// Exactly one of several concurrent callers observes true.
func (r *RefreshTokenRepository) Consume(ctx context.Context, tokenHash string) (bool, error) {
	deleted, err := r.deleteOne(ctx, tokenHash)
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// Delete removes the record if present; a missing record is not an error.
func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.deleteOne(ctx, tokenHash)
	return err
}

func (r *RefreshTokenRepository) deleteOne(ctx context.Context, tokenHash string) (int64, error) {
	if r == nil || r.collection == nil {
		return 0, errors.New("refresh token repository is not initialized")
	}
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"token_hash": tokenHash})
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	if result == nil {
		return 0, nil
	}

	return result.DeletedCount, nil
}
