package webclient

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/codeeditor/pkg/config"
)

func TestStaticServesWithETag(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, "/static/out/vs/loader.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "define();", rec.Body.String())
	assert.Equal(t, "text/javascript", rec.Header().Get("Content-Type"))

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Regexp(t, `^W/"\d+-9-\d+"$`, etag)
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/static/out/vs/loader.js", nil)
	req.Header.Set("If-None-Match", etag)
	rec = env.do(t, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestStaticBuiltNeverExpires(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.Built = true })

	rec := env.get(t, "/static/out/vs/loader.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestStaticDecodesEscapedNames(t *testing.T) {
	env := newTestEnv(t, nil)
	writeFile(t, filepath.Join(env.appRoot, "out", "my file.css"), "body{}")

	rec := env.get(t, "/static/out/my%20file.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))
}

func TestStaticRejectsTraversal(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, target := range []string{
		"/static/../../etc/passwd",
		"/static/..%2F..%2Fetc%2Fpasswd",
		"/static/out/../../../etc/passwd",
	} {
		rec := env.get(t, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "Bad request.", rec.Body.String(), target)
	}
	assert.Contains(t, env.logs.String(), `"error_code":"STATIC_TRAVERSAL"`)
}

func TestStaticMissingFile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get(t, "/static/out/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", rec.Body.String())

	rec = env.get(t, "/static/out")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, env.logs.String(), `"error_code":"STATIC_NOT_FOUND"`)
}

func TestStaticUnderRootPath(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.BasePath = "/codeeditor/default"
	})

	rec := env.get(t, "/codeeditor/default/static/out/vs/loader.js")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get(t, "/static/out/vs/loader.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentTypeFallbacks(t *testing.T) {
	assert.Equal(t, "text/html", contentTypeFor("a/index.html"))
	assert.Equal(t, "image/png", contentTypeFor("icon.PNG"))
	assert.Equal(t, "text/plain", contentTypeFor("LICENSE"))
}

func TestIsEqualOrParent(t *testing.T) {
	root := filepath.FromSlash("/srv/app")
	assert.True(t, isEqualOrParent(root, root))
	assert.True(t, isEqualOrParent(filepath.Join(root, "out"), root))
	assert.False(t, isEqualOrParent(filepath.FromSlash("/srv/application"), root))
	assert.False(t, isEqualOrParent(filepath.FromSlash("/etc/passwd"), root))
}
