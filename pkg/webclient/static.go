package webclient

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// CacheControl selects the caching headers of a served file.
type CacheControl int

const (
	// CacheNone sends Cache-Control: no-store.
	CacheNone CacheControl = iota
	// CacheETag sends a weak validator and honours If-None-Match.
	CacheETag
	// CacheNoExpiry caches publicly for a year.
	CacheNoExpiry
)

var textMimeTypes = map[string]string{
	".html": "text/html",
	".js":   "text/javascript",
	".json": "application/json",
	".css":  "text/css",
	".svg":  "image/svg+xml",
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := textMimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "text/plain"
}

func weakETag(path string, info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%d-%d-%d"`, inodeOf(path), info.Size(), info.ModTime().UnixMilli())
}

// serveFile streams path. Every failure looks like a missing file to the
// client.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path string, policy CacheControl) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", path)
	}
	if err != nil {
		s.fileNotFound(w, r, path, err)
		return
	}

	headers := w.Header()
	switch policy {
	case CacheETag:
		etag := weakETag(path, info)
		if r.Header.Get("If-None-Match") == etag {
			observability.StaticResponses.WithLabelValues("not_modified").Inc()
			w.WriteHeader(http.StatusNotModified)
			return
		}
		headers.Set("ETag", etag)
	case CacheNoExpiry:
		headers.Set("Cache-Control", "public, max-age=31536000")
	case CacheNone:
		headers.Set("Cache-Control", "no-store")
	}

	f, err := os.Open(path)
	if err != nil {
		s.fileNotFound(w, r, path, err)
		return
	}
	defer f.Close()

	headers.Set("Content-Type", contentTypeFor(path))
	headers.Set("Content-Length", fmt.Sprint(info.Size()))
	w.WriteHeader(http.StatusOK)
	observability.StaticResponses.WithLabelValues("served").Inc()
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Printf("stream %s: %v", path, err)
	}
}

func (s *Server) fileNotFound(w http.ResponseWriter, r *http.Request, path string, err error) {
	coded := cerrors.Wrap(err, cerrors.ErrCodeStaticNotFound, "serve static file").WithContext("path", path)
	observability.RecordError(r.Context(), coded)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("file not found: %s", path)
	} else {
		s.logger.Printf("serve %s: %v", path, err)
		s.slog.WithContext(r.Context()).OperationFailed("serve static file", coded)
	}
	observability.StaticResponses.WithLabelValues("not_found").Inc()
	serveError(w, http.StatusNotFound, "Not found")
}

// handleStatic serves files below the application root.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, s.staticRoute+"/")
	filePath := filepath.Join(s.appRoot, filepath.FromSlash(rel))
	if !isEqualOrParent(filePath, s.appRoot) {
		err := cerrors.New(cerrors.ErrCodeStaticTraversal, "path escapes application root").WithContext("path", rel)
		observability.StaticResponses.WithLabelValues("traversal").Inc()
		observability.RecordError(r.Context(), err)
		s.slog.WithContext(r.Context()).RequestRejected(s.staticRoute, err)
		serveError(w, http.StatusBadRequest, "Bad request.")
		return
	}

	policy := CacheETag
	if s.cfg.Server.Built {
		policy = CacheNoExpiry
	}
	s.serveFile(w, r, filePath, policy)
}

func isEqualOrParent(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}
