package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"meal_tracker_api/internal/domain"
)

const refreshTokenKeyPrefix = "refresh_token:"

// Redis hash fields of a refresh token record.
const (
	fieldUserID    = "user_id"
	fieldExpiresAt = "expires_at"
	fieldCreatedAt = "created_at"
)

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RedisPinger adapts a redis client for health checks.
type RedisPinger struct {
	client redis.UniversalClient
}

// NewRedisPinger wraps client.
func NewRedisPinger(client redis.UniversalClient) *RedisPinger {
	return &RedisPinger{client: client}
}

// Ping checks connectivity.
func (p *RedisPinger) Ping(ctx context.Context) error {
	if p == nil || p.client == nil {
		return errors.New("redis client is not initialized")
	}
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// RedisTokenStore keeps refresh token records as Redis hashes keyed by token
// hash. Keys expire at the record's absolute expiry.
type RedisTokenStore struct {
	client redis.UniversalClient
}

// NewRedisTokenStore constructs a RedisTokenStore.
func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// Save writes the record and sets its expiry in one transaction.
func (s *RedisTokenStore) Save(ctx context.Context, token domain.RefreshToken) error {
	if s == nil || s.client == nil {
		return errors.New("redis token store is not initialized")
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
		token.CreatedAt = time.Now().UTC()
	}

	key := refreshTokenKey(token.TokenHash)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, token.UserID,
			fieldExpiresAt, token.ExpiresAt.UnixMilli(),
			fieldCreatedAt, token.CreatedAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, key, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	return nil
}

// Find returns the record for tokenHash or domain.ErrNotFound.
func (s *RedisTokenStore) Find(ctx context.Context, tokenHash string) (domain.RefreshToken, error) {
	if s == nil || s.client == nil {
		return domain.RefreshToken{}, errors.New("redis token store is not initialized")
	}
	if ctx == nil {
		return domain.RefreshToken{}, errors.New("context is required")
	}

	values, err := s.client.HGetAll(ctx, refreshTokenKey(tokenHash)).Result()
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	if len(values) == 0 {
		return domain.RefreshToken{}, fmt.Errorf("find refresh token: %w", domain.ErrNotFound)
	}

	expiresAt, err := parseMillis(values[fieldExpiresAt])
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("decode refresh token expires_at: %w", err)
	}
	createdAt, err := parseMillis(values[fieldCreatedAt])
	if err != nil {
		return domain.RefreshToken{}, fmt.Errorf("decode refresh token created_at: %w", err)
	}

	return domain.RefreshToken{
		TokenHash: tokenHash,
		UserID:    values[fieldUserID],
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
	}, nil
}

// Consume deletes the record and reports whether this call removed it.
func (s *RedisTokenStore) Consume(ctx context.Context, tokenHash string) (bool, error) {
	deleted, err := s.del(ctx, tokenHash)
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}

// Delete removes the record if present.
func (s *RedisTokenStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.del(ctx, tokenHash)
	return err
}

func (s *RedisTokenStore) del(ctx context.Context, tokenHash string) (int64, error) {
	if s == nil || s.client == nil {
		return 0, errors.New("redis token store is not initialized")
	}
	if ctx == nil {
		return 0, errors.New("context is required")
	}

	deleted, err := s.client.Del(ctx, refreshTokenKey(tokenHash)).Result()
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}

	return deleted, nil
}

func refreshTokenKey(tokenHash string) string {
	return refreshTokenKeyPrefix + tokenHash
}

func parseMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
