package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/feature/user"
	"meal_tracker_api/internal/logging"
)

// TokenStore persists hashed refresh-token records.
type TokenStore interface {
	Save(ctx context.Context, token domain.RefreshToken) error
	Find(ctx context.Context, tokenHash string) (domain.RefreshToken, error)
	Consume(ctx context.Context, tokenHash string) (bool, error)
	Delete(ctx context.Context, tokenHash string) error
}

// UserRegistrar upserts users on login.
type UserRegistrar interface {
	EnsureUser(ctx context.Context, profile user.Profile) (domain.User, bool, error)
}

// UserFinder loads users by internal id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}

// Session is the outcome of a successful login or refresh.
type Session struct {
	UserID           string
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Service orchestrates login, refresh, logout and identity lookups. It holds no
// session state of its own; everything lives in the token store.
type Service struct {
	verifier  *Verifier
	issuer    *Issuer
	registrar UserRegistrar
	users     UserFinder
	tokens    TokenStore
	logger    *logrus.Entry
	now       func() time.Time
}

// NewService wires the auth dependencies.
func NewService(verifier *Verifier, issuer *Issuer, registrar UserRegistrar, users UserFinder, tokens TokenStore, logger *logrus.Entry) (*Service, error) {
	if verifier == nil || issuer == nil {
		return nil, errors.New("verifier and issuer are required")
	}
	if registrar == nil || users == nil || tokens == nil {
		return nil, errors.New("registrar, user finder and token store are required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Service{
		verifier:  verifier,
		issuer:    issuer,
		registrar: registrar,
		users:     users,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Login verifies the Telegram payload, upserts the user and opens a session.
func (s *Service) Login(ctx context.Context, cred Credential) (Session, error) {
	if err := s.verifier.Verify(cred); err != nil {
		s.logger.WithFields(logging.Fields{
			"event":       "login_rejected",
			"telegram_id": cred.ID,
			"reason":      err.Error(),
		}).Warn("telegram credential rejected")
		return Session{}, err
	}

	u, created, err := s.registrar.EnsureUser(ctx, user.Profile{
		TelegramID: cred.ID,
		FirstName:  cred.FirstName,
		LastName:   cred.LastName,
		Username:   cred.Username,
		PhotoURL:   cred.PhotoURL,
	})
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	session, err := s.open(ctx, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	s.logger.WithFields(logging.Fields{
		"event":       "login",
		"user_id":     u.ID,
		"telegram_id": cred.ID,
		"created":     created,
	}).Info("user logged in")

	return session, nil
}

// Refresh rotates a refresh token. The presented record is consumed before the
// new pair is stored, so a token can be rotated at most once.
func (s *Service) Refresh(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, ErrMissingToken
	}

	claims, err := s.issuer.ParseRefresh(raw)
	if err != nil {
		s.reject("invalid_signature", "", err)
		return Session{}, err
	}

	hash := HashToken(raw)
	record, err := s.tokens.Find(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.reject("unknown_token", claims.UserID, err)
			return Session{}, fmt.Errorf("%w: no stored record", ErrInvalidToken)
		}
		return Session{}, fmt.Errorf("refresh: %w", err)
	}

	if record.Expired(s.now()) {
		s.discard(ctx, hash, claims.UserID)
		s.reject("record_expired", claims.UserID, nil)
		return Session{}, ErrTokenExpired
	}

	if record.UserID != claims.UserID {
		s.discard(ctx, hash, claims.UserID)
		s.reject("user_mismatch", claims.UserID, nil)
		return Session{}, ErrUserMismatch
	}

	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.discard(ctx, hash, claims.UserID)
			s.reject("user_not_found", claims.UserID, nil)
			return Session{}, ErrUserNotFound
		}
		return Session{}, fmt.Errorf("refresh: %w", err)
	}

	consumed, err := s.tokens.Consume(ctx, hash)
	if err != nil {
		return Session{}, fmt.Errorf("refresh: %w", err)
	}
	if !consumed {
		s.reject("already_rotated", claims.UserID, nil)
		return Session{}, fmt.Errorf("%w: already rotated", ErrInvalidToken)
	}

	session, err := s.open(ctx, claims.UserID)
	if err != nil {
		return Session{}, fmt.Errorf("refresh: %w", err)
	}

	s.logger.WithFields(logging.Fields{
		"event":   "token_refreshed",
		"user_id": claims.UserID,
	}).Debug("rotated refresh token")

	return session, nil
}

// Logout deletes the record behind raw, if any. Store failures are logged and
// never returned.
func (s *Service) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}

	if err := s.tokens.Delete(ctx, HashToken(raw)); err != nil {
		s.logger.WithField("event", "logout_store_failed").WithError(err).Warn("failed to delete refresh token on logout")
		return
	}

	s.logger.WithField("event", "logout").Debug("refresh token revoked")
}

// Authenticate validates an access token and returns its claims.
func (s *Service) Authenticate(accessToken string) (Claims, error) {
	return s.issuer.ParseAccess(accessToken)
}

// Me resolves the user behind an access token.
func (s *Service) Me(ctx context.Context, accessToken string) (domain.User, error) {
	claims, err := s.Authenticate(accessToken)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("me: %w", err)
	}

	return u, nil
}

func (s *Service) open(ctx context.Context, userID string) (Session, error) {
	pair, err := s.issuer.Issue(userID)
	if err != nil {
		return Session{}, err
	}

	record := domain.RefreshToken{
		TokenHash: HashToken(pair.RefreshToken),
		UserID:    userID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return Session{}, err
	}

	return Session{
		UserID:           userID,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// discard removes a record that can no longer be honoured.
func (s *Service) discard(ctx context.Context, hash, userID string) {
	if err := s.tokens.Delete(ctx, hash); err != nil {
		s.logger.WithFields(logging.Fields{
			"event":   "refresh_discard_failed",
			"user_id": userID,
		}).WithError(err).Warn("failed to delete rejected refresh token")
	}
}

func (s *Service) reject(reason, userID string, err error) {
	entry := s.logger.WithFields(logging.Fields{
		"event":  "refresh_rejected",
		"reason": reason,
	})
	if userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("refresh token rejected")
}
