package webclient

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/codeeditor/pkg/config"
)

type upstream struct {
	*httptest.Server
	hits    atomic.Int32
	lastReq atomic.Pointer[http.Request]
}

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		u.lastReq.Store(r)
		handler(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

// galleryFor points the template at a sibling of the upstream host so the
// suffix after the first dot matches 127.0.0.1's.
func galleryFor(t *testing.T, u *upstream) (cfgFn func(*config.Config), host string) {
	t.Helper()
	parsed, err := url.Parse(u.URL)
	require.NoError(t, err)
	host = parsed.Host
	return func(cfg *config.Config) {
		cfg.Gallery.ResourceURLTemplate = "http://{publisher}.0.0.1:" + parsed.Port() + "/{publisher}/{name}/{path}"
	}, host
}

func TestProxyForwardsAllowedHeaders(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("X-Upstream-Secret", "nope")
		_, _ = w.Write([]byte(`{"name":"ext"}`))
	})
	mutate, host := galleryFor(t, u)
	env := newTestEnv(t, mutate)

	req := httptest.NewRequest(http.MethodGet, "/web-extension-resource/"+host+"/pub/ext/package.json", nil)
	req.Header.Set("x-client-name", "code-editor")
	req.Header.Set("X-Machine-Id", "m-1")
	req.Header.Set("Authorization", "Bearer leak")
	rec := env.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"name":"ext"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("X-Upstream-Secret"))

	got := u.lastReq.Load()
	require.NotNil(t, got)
	assert.Equal(t, "/pub/ext/package.json", got.URL.Path)
	assert.Equal(t, "code-editor", got.Header.Get("X-Client-Name"))
	assert.Equal(t, "m-1", got.Header.Get("X-Machine-Id"))
	assert.Empty(t, got.Header.Get("Authorization"))
}

func TestProxyRejectsForeignAuthority(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	mutate, _ := galleryFor(t, u)
	env := newTestEnv(t, mutate)

	for _, target := range []string{
		"/web-extension-resource/evil.example.com/pub/ext/package.json",
		"/web-extension-resource/localhost/pub/ext/package.json",
	} {
		rec := env.get(t, target)
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
		assert.Equal(t, "Request Forbidden", rec.Body.String(), target)
	}
	assert.Zero(t, u.hits.Load(), "no upstream fetch may happen")
	assert.Contains(t, env.logs.String(), `"error_code":"GALLERY_FORBIDDEN"`)
}

func TestProxyPropagatesUpstreamFailure(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pub/ext/empty" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		http.Error(w, "no such asset", http.StatusNotFound)
	})
	mutate, host := galleryFor(t, u)
	env := newTestEnv(t, mutate)

	rec := env.get(t, "/web-extension-resource/"+host+"/pub/ext/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no such asset", rec.Body.String())

	rec = env.get(t, "/web-extension-resource/"+host+"/pub/ext/empty")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Request failed with status 502", rec.Body.String())
}

func TestProxyWithoutGallery(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.get(t, "/web-extension-resource/a.example.com/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "No extension gallery service configured.", rec.Body.String())
	assert.Contains(t, env.logs.String(), `"error_code":"GALLERY_NOT_CONFIGURED"`)
}

func TestProxyUnreachableUpstream(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	mutate, host := galleryFor(t, u)
	env := newTestEnv(t, mutate)
	u.Close()

	rec := env.get(t, "/web-extension-resource/"+host+"/pub/ext/package.json")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error.", rec.Body.String())
	assert.Contains(t, env.logs.String(), `"error_code":"GALLERY_UPSTREAM"`)
}

func TestProxyRateLimit(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {})
	mutate, host := galleryFor(t, u)
	env := newTestEnv(t, func(cfg *config.Config) {
		mutate(cfg)
		cfg.Server.ProxyRateLimit = 0.001
		cfg.Server.ProxyBurst = 1
	})

	rec := env.get(t, "/web-extension-resource/"+host+"/pub/ext/a")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.get(t, "/web-extension-resource/"+host+"/pub/ext/b")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.EqualValues(t, 1, u.hits.Load())
	assert.Contains(t, env.logs.String(), `"error_code":"GALLERY_RATE_LIMITED"`)
}

func TestAuthoritySuffix(t *testing.T) {
	s, ok := authoritySuffix("pub.vscode-unpkg.net")
	assert.True(t, ok)
	assert.Equal(t, "vscode-unpkg.net", s)

	_, ok = authoritySuffix("localhost")
	assert.False(t, ok)
}
