package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/auth"
	"meal_tracker_api/internal/logging"
)

const (
	userIDKey    = "userID"
	requestIDKey = "requestID"

	requestIDHeader = "X-Request-ID"
)

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry := logging.WithContext(logger, requestContext(c, "http_request")).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})

		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Debug("request completed")
	}
}

// recovery turns handler panics into a 500 response.
func recovery(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logging.WithContext(logger, requestContext(c, "panic_recovered")).WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"stack":  string(debug.Stack()),
				}).Error(fmt.Sprintf("panic: %v", recovered))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error: internalError.message,
					Code:  internalError.code,
				})
			}
		}()

		c.Next()
	}
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

type authenticator interface {
	Authenticate(accessToken string) (auth.Claims, error)
}

// requireBearer rejects requests without a valid access token and stores the
// caller's user id in the context.
func requireBearer(authn authenticator, logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondError(c, logger, "bearer_rejected", err)
			return
		}

		claims, err := authn.Authenticate(token)
		if err != nil {
			respondError(c, logger, "bearer_rejected", err)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected Bearer scheme", auth.ErrInvalidToken)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}
