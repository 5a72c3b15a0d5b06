package webclient

import (
	"encoding/json"
	stdliberrors "errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/odvcencio/codeeditor/pkg/errors"
)

// serveError writes a plain-text error. Bootstrap routes never include
// internal detail in msg.
func serveError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// respondJSON sends a JSON response with appropriate headers.
func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError sends a structured JSON error response.
func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	response := struct {
		Error       string   `json:"error"`
		Status      int      `json:"status"`
		Code        string   `json:"code,omitempty"`
		Message     string   `json:"message"`
		Remediation []string `json:"remediation,omitempty"`
		Retryable   bool     `json:"retryable,omitempty"`
		Timestamp   string   `json:"timestamp"`
	}{
		Status:    status,
		Message:   http.StatusText(status),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	var appErr *apperrors.Error
	if stdliberrors.As(err, &appErr) {
		response.Code = string(appErr.Code)
		response.Message = appErr.Display()
		if len(appErr.Remediation) > 0 {
			response.Remediation = append([]string{}, appErr.Remediation...)
		}
		response.Retryable = appErr.Retryable
	} else if err != nil {
		response.Message = err.Error()
	}

	if len(response.Remediation) == 0 {
		response.Remediation = defaultRemediation(response.Code, status)
	}

	response.Error = response.Message
	_ = json.NewEncoder(w).Encode(response)
}

// rootCause strips coded wrappers so the original I/O message surfaces.
func rootCause(err error) error {
	for {
		var appErr *apperrors.Error
		if !stdliberrors.As(err, &appErr) || appErr.Underlying == nil {
			return err
		}
		err = appErr.Underlying
	}
}

// defaultRemediation provides helpful remediation steps for common errors.
func defaultRemediation(code string, status int) []string {
	switch apperrors.ErrorCode(code) {
	case apperrors.ErrCodeIdleIO:
		return []string{
			"Ensure the idle sentinel directory is writable.",
			fmt.Sprintf("Retry once the file system is available (status %d).", status),
		}
	case apperrors.ErrCodeGalleryUpstream:
		return []string{"Retry after the extension gallery recovers."}
	}

	switch status {
	case http.StatusTooManyRequests:
		return []string{"Slow down requests to the gallery proxy."}
	case http.StatusServiceUnavailable:
		return []string{"Retry after the server finishes starting."}
	default:
		return nil
	}
}
