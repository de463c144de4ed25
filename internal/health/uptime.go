package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"meal_tracker_api/internal/logging"
)

// Uptime serves GET /health: a liveness answer with the process uptime that
// never touches the backing stores.
type Uptime struct {
	logger  *logrus.Entry
	started time.Time
	now     func() time.Time
}

type uptimeResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// NewUptime reports uptime measured from started.
func NewUptime(started time.Time, logger *logrus.Entry) *Uptime {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Uptime{
		logger:  logger,
		started: started,
		now:     time.Now,
	}
}

func (u *Uptime) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := u.now()
	resp := uptimeResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(u.started).Seconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		u.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode uptime response")
	}
}
