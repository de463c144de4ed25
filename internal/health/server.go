// Package health serves the liveness and dependency health endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/logging"
)

const pingTimeout = 2 * time.Second

// Checker pings a backing service.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler serves GET /healthz. It always answers 200; failing dependencies
// are reported in the body.
type Handler struct {
	logger *logrus.Entry
	mongo  Checker
	redis  Checker
}

type response struct {
	Status string `json:"status"`
	Mongo  string `json:"mongo,omitempty"`
	Redis  string `json:"redis,omitempty"`
}

// NewHandler constructs a health handler. redis may be nil when Redis is not
// configured; a nil mongo checker is reported as an error.
func NewHandler(mongo, redis Checker, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Handler{
		logger: logger,
		mongo:  mongo,
		redis:  redis,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok"}

	ctx := r.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if h.mongo == nil {
		resp.Mongo = "error"
		h.logger.WithField("event", "health_mongo_missing").Warn("mongo checker is not configured for health endpoint")
	} else if err := h.ping(ctx, h.mongo); err != nil {
		resp.Mongo = "error"
		h.logger.WithField("event", "health_mongo_error").WithError(err).Warn("mongo ping failed during health check")
	}

	if h.redis != nil {
		if err := h.ping(ctx, h.redis); err != nil {
			resp.Redis = "error"
			h.logger.WithField("event", "health_redis_error").WithError(err).Warn("redis ping failed during health check")
		}
	}

	if resp.Mongo != "" || resp.Redis != "" {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}

func (h *Handler) ping(ctx context.Context, checker Checker) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return checker.Ping(pingCtx)
}
