package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/auth"
	"meal_tracker_api/internal/domain"
	"meal_tracker_api/internal/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type apiError struct {
	status  int
	code    string
	message string
}

var knownErrors = []struct {
	target error
	apiError
}{
	{auth.ErrInvalidCredential, apiError{http.StatusBadRequest, "invalid_credential", "Invalid Telegram login data"}},
	{auth.ErrMissingToken, apiError{http.StatusUnauthorized, "missing_token", "Token is required"}},
	{auth.ErrTokenExpired, apiError{http.StatusUnauthorized, "token_expired", "Token expired"}},
	{auth.ErrUserMismatch, apiError{http.StatusUnauthorized, "user_mismatch", "Token does not belong to this user"}},
	{auth.ErrInvalidToken, apiError{http.StatusUnauthorized, "invalid_token", "Invalid token"}},
	{auth.ErrUserNotFound, apiError{http.StatusNotFound, "user_not_found", "User not found"}},
	{domain.ErrNotFound, apiError{http.StatusNotFound, "not_found", "Not found"}},
}

var internalError = apiError{http.StatusInternalServerError, "internal_error", "Internal server error"}

func classify(err error) apiError {
	for _, known := range knownErrors {
		if errors.Is(err, known.target) {
			return known.apiError
		}
	}
	return internalError
}

// respondError maps err to a status and code. Unknown errors are logged and
// hidden behind a generic message.
func respondError(c *gin.Context, logger *logrus.Entry, event string, err error) {
	mapped := classify(err)

	entry := logging.WithContext(logger, requestContext(c, event)).WithFields(logrus.Fields{
		"status": mapped.status,
		"code":   mapped.code,
		"path":   c.Request.URL.Path,
	}).WithError(err)

	if mapped.status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}

	c.AbortWithStatusJSON(mapped.status, ErrorResponse{Error: mapped.message, Code: mapped.code})
}

func requestContext(c *gin.Context, event string) logging.Context {
	return logging.Context{
		UserID:    c.GetString(userIDKey),
		RequestID: c.GetString(requestIDKey),
		Event:     event,
	}
}
