package webclient

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// maxUpstreamErrorBody caps how much of a failed upstream body is echoed.
const maxUpstreamErrorBody = 64 << 10

var (
	forwardedRequestHeaders  = []string{"X-Client-Name", "X-Client-Version", "X-Machine-Id", "X-Client-Commit"}
	forwardedResponseHeaders = []string{"Cache-Control", "Content-Type"}
)

// authoritySuffix returns the part of authority after its first dot.
func authoritySuffix(authority string) (string, bool) {
	i := strings.IndexByte(authority, '.')
	if i < 0 {
		return "", false
	}
	return authority[i+1:], true
}

// galleryTarget rebuilds the upstream URL from a request path of the form
// {authority}/{path...} below the extension resource route.
func (s *Server) galleryTarget(requestPath string) (authority, target string) {
	rest := path.Clean(strings.TrimPrefix(requestPath, s.webExtRoute+"/"))
	rest = strings.TrimPrefix(rest, "/")
	authority, resource, _ := strings.Cut(rest, "/")
	return authority, s.gallery.Scheme + "://" + authority + "/" + resource
}

func (s *Server) rejectProxy(w http.ResponseWriter, r *http.Request, status int, reason, target string, code cerrors.ErrorCode, msg string) {
	err := cerrors.New(code, msg).WithContext("target", target)
	observability.ProxyRejections.WithLabelValues(reason).Inc()
	observability.RecordError(r.Context(), err)
	s.slog.WithContext(r.Context()).ProxyRejected(target, reason, err)
	if s.events != nil {
		_ = s.events.Warn(logging.CategoryHTTP, "gallery.rejected", msg, map[string]any{
			"target": target,
			"reason": reason,
			"code":   string(code),
		})
	}
	serveError(w, status, msg)
}

// handleExtensionResource proxies gallery assets so the browser never talks
// to the CDN directly.
func (s *Server) handleExtensionResource(w http.ResponseWriter, r *http.Request) {
	if !s.hasGallery {
		s.rejectProxy(w, r, http.StatusInternalServerError, "not_configured", "", cerrors.ErrCodeGalleryNotConfigured, "No extension gallery service configured.")
		return
	}

	authority, target := s.galleryTarget(r.URL.Path)
	want, wantOK := authoritySuffix(s.gallery.Authority)
	got, gotOK := authoritySuffix(authority)
	if want != got || wantOK != gotOK {
		s.rejectProxy(w, r, http.StatusForbidden, "forbidden", target, cerrors.ErrCodeGalleryForbidden, "Request Forbidden")
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.rejectProxy(w, r, http.StatusTooManyRequests, "rate_limited", target, cerrors.ErrCodeGalleryRateLimited, "Too Many Requests.")
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "gallery.fetch")
	defer span.End()
	span.SetAttributes(observability.AttrGalleryTarget.String(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		observability.RecordError(ctx, err)
		s.internalError(w, r, "build gallery request", err)
		return
	}
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		upstreamErr := cerrors.Wrap(err, cerrors.ErrCodeGalleryUpstream, "fetch gallery resource").
			WithContext("target", target).
			WithRetryable(true)
		observability.RecordError(ctx, upstreamErr)
		s.internalError(w, r, "fetch "+target, upstreamErr)
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(observability.AttrGalleryStatus.Int(resp.StatusCode))
	observability.ProxyUpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	s.slog.WithContext(ctx).ProxyFetched(target, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBody))
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
		}
		observability.RecordError(ctx, cerrors.New(cerrors.ErrCodeGalleryUpstream, text).
			WithContext("status", resp.StatusCode))
		serveError(w, resp.StatusCode, text)
		return
	}

	for _, name := range forwardedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Printf("stream %s: %v", target, err)
	}
}
