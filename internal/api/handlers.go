package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/auth"
	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/feature/user"
	"meal_tracker_api/internal/logging"
)

// AuthService is the session API the handlers drive.
type AuthService interface {
	Login(ctx context.Context, cred auth.Credential) (auth.Session, error)
	Refresh(ctx context.Context, raw string) (auth.Session, error)
	Logout(ctx context.Context, raw string)
	Authenticate(accessToken string) (auth.Claims, error)
	Me(ctx context.Context, accessToken string) (domain.User, error)
}

// ProfileService loads public user profiles.
type ProfileService interface {
	Get(ctx context.Context, id string) (user.Response, error)
}

// MealService answers today's-meals queries.
type MealService interface {
	Today(ctx context.Context, userID, timezone string) ([]domain.Meal, error)
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// MessageResponse is returned by logout.
type MessageResponse struct {
	Message string `json:"message"`
}

// Handler holds the HTTP handlers.
type Handler struct {
	auth     AuthService
	profiles ProfileService
	meals    MealService
	cookies  CookieWriter
	logger   *logrus.Entry
}

// NewHandler constructs a Handler.
func NewHandler(authService AuthService, profiles ProfileService, meals MealService, cookies CookieWriter, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Handler{
		auth:     authService,
		profiles: profiles,
		meals:    meals,
		cookies:  cookies,
		logger:   logger,
	}
}

// Login handles POST /auth/telegram.
func (h *Handler) Login(c *gin.Context) {
	var cred auth.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		respondError(c, h.logger, "login_failed", fmt.Errorf("%w: %v", auth.ErrInvalidCredential, err))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), cred)
	if err != nil {
		respondError(c, h.logger, "login_failed", err)
		return
	}

	h.cookies.Set(c.Writer, session.RefreshToken, session.RefreshExpiresAt)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: session.AccessToken})
}

// Refresh handles POST /auth/refresh. Any failure clears the cookie.
func (h *Handler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(RefreshCookieName)

	session, err := h.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.cookies.Clear(c.Writer)
		respondError(c, h.logger, "refresh_failed", err)
		return
	}

	h.cookies.Set(c.Writer, session.RefreshToken, session.RefreshExpiresAt)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: session.AccessToken})
}

// Logout handles POST /auth/logout. It always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(RefreshCookieName)

	h.auth.Logout(c.Request.Context(), raw)
	h.cookies.Clear(c.Writer)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		respondError(c, h.logger, "me_failed", err)
		return
	}

	u, err := h.auth.Me(c.Request.Context(), token)
	if err != nil {
		respondError(c, h.logger, "me_failed", err)
		return
	}

	c.Set(userIDKey, u.ID)
	c.JSON(http.StatusOK, u)
}

// CurrentProfile handles GET /users/me.
func (h *Handler) CurrentProfile(c *gin.Context) {
	h.writeProfile(c, c.GetString(userIDKey))
}

// Profile handles GET /users/:id.
func (h *Handler) Profile(c *gin.Context) {
	h.writeProfile(c, c.Param("id"))
}

func (h *Handler) writeProfile(c *gin.Context, id string) {
	profile, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "profile_failed", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// TodayMeals handles GET /meals/today?timezone=<IANA name>.
func (h *Handler) TodayMeals(c *gin.Context) {
	meals, err := h.meals.Today(c.Request.Context(), c.GetString(userIDKey), c.Query("timezone"))
	if err != nil {
		respondError(c, h.logger, "meals_today_failed", err)
		return
	}
	if meals == nil {
		meals = []domain.Meal{}
	}

	c.JSON(http.StatusOK, meals)
}
