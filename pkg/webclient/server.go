// Package webclient serves the browser workbench: static assets, the
// composed root document, the auth callback page, the extension gallery
// proxy and the idle activity endpoint.
package webclient

import (
	"context"
	stdliberrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"

	"github.com/odvcencio/codeeditor/pkg/config"
	"github.com/odvcencio/codeeditor/pkg/connectiontoken"
	"github.com/odvcencio/codeeditor/pkg/idle"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/nls"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// IdleRoute is served outside the root path.
const IdleRoute = "/api/idle"

// Options carries collaborators. Zero values are replaced with defaults.
type Options struct {
	NLS        *nls.Resolver
	Idle       *idle.Store
	HTTPClient *http.Client
	Logger     *observability.Logger
	Events     *logging.Logger
	Now        func() time.Time
}

// Server hosts the workbench bootstrap routes.
type Server struct {
	cfg     *config.Config
	token   connectiontoken.Token
	appRoot string

	basePath      string
	staticRoute   string
	callbackRoute string
	webExtRoute   string

	gallery    config.URLTemplate
	hasGallery bool

	nls     *nls.Resolver
	idle    *idle.Store
	client  *http.Client
	limiter *rate.Limiter
	slog    *observability.Logger
	events  *logging.Logger
	now     func() time.Time

	logger     *log.Logger
	router     http.Handler
	httpServer *http.Server
}

// NewServer validates cfg and wires the routes.
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	token, err := connectiontoken.Parse(cfg.Token.Type, cfg.Token.Value)
	if err != nil {
		return nil, err
	}
	appRoot, err := filepath.Abs(cfg.Server.AppRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve app root: %w", err)
	}

	if opts.NLS == nil {
		opts.NLS, err = nls.NewResolver(0, opts.Logger)
		if err != nil {
			return nil, err
		}
	}
	if opts.Idle == nil {
		opts.Idle = idle.NewStore(cfg.Idle.FilePath)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	root := cfg.Server.ResolvedRootPath()
	s := &Server{
		cfg:           cfg,
		token:         token,
		appRoot:       filepath.Clean(appRoot),
		basePath:      cfg.Server.BasePath,
		staticRoute:   root + "/static",
		callbackRoute: root + "/callback",
		webExtRoute:   root + "/web-extension-resource",
		nls:           opts.NLS,
		idle:          opts.Idle,
		client:        opts.HTTPClient,
		slog:          opts.Logger.WithRoute("webclient"),
		events:        opts.Events,
		now:           opts.Now,
		logger:        log.New(os.Stdout, "[webclient] ", log.LstdFlags),
	}
	if tmpl := cfg.Gallery.ResourceURLTemplate; tmpl != "" {
		s.gallery, s.hasGallery = config.SplitURLTemplate(tmpl)
	}
	if cfg.Server.ProxyRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.ProxyRateLimit), cfg.Server.ProxyBurst)
	}

	s.router = s.routes()
	return s, nil
}

// SetLogOutput redirects the request log.
func (s *Server) SetLogOutput(w io.Writer) {
	s.logger.SetOutput(w)
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(s.recoverMiddleware)
	router.Use(s.metricsMiddleware)
	router.Use(s.securityHeadersMiddleware)
	router.Use(middleware.GetHead)

	router.NotFound(s.handleNotFound)
	router.MethodNotAllowed(s.handleNotFound)

	router.Get("/healthz", s.handleHealthz)
	if s.cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(s.tokenMiddleware)
		r.Get(s.staticRoute+"/*", s.handleStatic)
		r.Get(s.callbackRoute, s.handleCallback)
		r.Get(s.webExtRoute+"/*", s.handleExtensionResource)
		r.Get(IdleRoute, s.handleIdle)
		r.Get(s.basePath, s.handleRoot)
	})
	return router
}

// Handler returns the routed handler without h2c wrapping.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	h2s := &http2.Server{}
	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Bind,
		Handler:           h2c.NewHandler(s.router, h2s),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Printf("serving workbench on %s (base %s, app root %s)", s.cfg.Server.Bind, s.basePath, s.appRoot)
		if !s.hasGallery {
			s.logger.Printf("extension gallery proxy disabled (no resource_url_template)")
		}
		if err := s.httpServer.ListenAndServe(); err != nil && !stdliberrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	serveError(w, http.StatusNotFound, "Not found.")
}
