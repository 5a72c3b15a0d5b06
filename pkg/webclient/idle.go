package webclient

import (
	"net/http"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/idle"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

type idleResponse struct {
	LastActiveTimestamp string `json:"lastActiveTimestamp"`
}

// handleIdle reports the last activity timestamp, creating the sentinel the
// first time it is asked for. Failures carry the raw I/O message.
func (s *Server) handleIdle(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	created, err := s.idle.EnsureExists(now)
	if err == nil && created {
		observability.IdleTouches.WithLabelValues("endpoint").Inc()
		s.slog.WithContext(r.Context()).IdleTouched("endpoint", idle.Format(now))
		if s.events != nil {
			_ = s.events.Info(logging.CategoryIdle, "idle.created", "idle sentinel created on first query", map[string]any{
				"path": s.idle.Path,
			})
		}
	}
	var ts string
	if err == nil {
		ts, err = s.idle.Read()
	}
	if err != nil {
		cause := rootCause(err)
		s.logger.Printf("idle endpoint: %v", err)
		respondError(w, http.StatusInternalServerError, cerrors.Wrap(cause, cerrors.ErrCodeIdleIO, cause.Error()))
		return
	}
	respondJSON(w, idleResponse{LastActiveTimestamp: ts})
}
