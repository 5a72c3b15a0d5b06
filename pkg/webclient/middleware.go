package webclient

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/odvcencio/codeeditor/pkg/connectiontoken"
	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// recoverMiddleware turns handler panics into the generic 500 page.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Printf("panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
				serveError(w, http.StatusInternalServerError, "Internal Server Error.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records per-route counters keyed by the chi pattern so
// static asset paths do not explode label cardinality.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		observability.HTTPRequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
		s.slog.WithContext(r.Context()).RequestServed(r.Method, r.URL.Path, status, elapsed)
	})
}

// securityHeadersMiddleware adds headers safe for every response. Framing is
// left alone because webviews load static assets inside iframes.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// tokenMiddleware rejects requests without an acceptable connection token.
// A token presented on the root document's query string always reaches the
// root handler so it can be exchanged for a cookie.
func (s *Server) tokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == s.basePath && r.URL.Query().Has(connectiontoken.QueryName) {
			next.ServeHTTP(w, r)
			return
		}
		if !s.token.Validate(r) {
			err := cerrors.New(cerrors.ErrCodeTokenInvalid, "connection token missing or mismatched")
			observability.RecordError(r.Context(), err)
			s.slog.WithContext(r.Context()).RequestRejected(r.URL.Path, err)
			serveError(w, http.StatusForbidden, "Forbidden.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
