package webclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/odvcencio/codeeditor/pkg/connectiontoken"
	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/nls"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

const (
	testResolverAuthority = "test+test"
	embedderIdentifier    = "server-distro"
	webviewPrePath        = "/out/vs/workbench/contrib/webview/browser/pre"
	workbenchDir          = "out/vs/code/browser/workbench"
)

var (
	placeholderPattern  = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	testResolverBuiltin = []string{"vscode-test-resolver", "github-authentication"}
)

type uriComponents struct {
	Mid       int    `json:"$mid"`
	Scheme    string `json:"scheme"`
	Authority string `json:"authority"`
	Path      string `json:"path"`
}

type developmentOptions struct {
	EnableSmokeTestDriver *bool `json:"enableSmokeTestDriver,omitempty"`
	LogLevel              int   `json:"logLevel"`
}

type settingsSyncOptions struct {
	Enabled bool `json:"enabled"`
}

// workbenchConfiguration is built per request and serialized into
// WORKBENCH_WEB_CONFIGURATION.
type workbenchConfiguration struct {
	RemoteAuthority              string               `json:"remoteAuthority"`
	ServerBasePath               string               `json:"serverBasePath"`
	WebviewEndpoint              string               `json:"webviewEndpoint"`
	UserDataPath                 string               `json:"userDataPath,omitempty"`
	WrapWebWorkerExtHostInIframe *bool                `json:"_wrapWebWorkerExtHostInIframe,omitempty"`
	DevelopmentOptions           developmentOptions   `json:"developmentOptions"`
	SettingsSyncOptions          *settingsSyncOptions `json:"settingsSyncOptions,omitempty"`
	EnableWorkspaceTrust         bool                 `json:"enableWorkspaceTrust"`
	FolderURI                    *uriComponents       `json:"folderUri,omitempty"`
	WorkspaceURI                 *uriComponents       `json:"workspaceUri,omitempty"`
	ProductConfiguration         map[string]any       `json:"productConfiguration"`
	CallbackRoute                string               `json:"callbackRoute"`
}

type authSessionInfo struct {
	ID          string     `json:"id"`
	ProviderID  string     `json:"providerId"`
	AccessToken string     `json:"accessToken"`
	Scopes      [][]string `json:"scopes"`
}

type builtinExtension struct {
	ExtensionPath string          `json:"extensionPath"`
	PackageJSON   json.RawMessage `json:"packageJSON"`
}

// asJSON serializes v for embedding inside an HTML attribute.
func asJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.ReplaceAll(strings.TrimSuffix(buf.String(), "\n"), `"`, "&quot;"), nil
}

// renderTemplate replaces {{KEY}} placeholders. Unknown keys render as
// "undefined".
func renderTemplate(template string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		key := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := values[key]; ok {
			return v
		}
		return "undefined"
	})
}

// workbenchLogLevel maps a level name onto the workbench's numeric scale.
func workbenchLogLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "off":
		return 0
	case "trace":
		return 1
	case "debug":
		return 2
	case "warn", "warning":
		return 4
	case "error":
		return 5
	default:
		return 3
	}
}

func firstHeader(r *http.Request, name string) string {
	if v := r.Header.Values(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (s *Server) useTestResolver() bool {
	return !s.cfg.Server.Built && s.cfg.Workbench.UseTestResolver
}

func (s *Server) remoteAuthority(r *http.Request) string {
	if s.useTestResolver() {
		return testResolverAuthority
	}
	if v := firstHeader(r, "X-Original-Host"); v != "" {
		return v
	}
	if v := firstHeader(r, "X-Forwarded-Host"); v != "" {
		return v
	}
	return r.Host
}

func (s *Server) workspaceURI(location, authority string) *uriComponents {
	if location == "" {
		return nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		abs = location
	}
	return &uriComponents{Mid: 1, Scheme: "vscode-remote", Authority: authority, Path: filepath.ToSlash(abs)}
}

func (s *Server) productConfiguration(base, authority string) map[string]any {
	product := map[string]any{
		"rootEndpoint":       base,
		"embedderIdentifier": embedderIdentifier,
	}
	if s.hasGallery {
		gallery := map[string]any{}
		if raw, err := json.Marshal(s.cfg.Gallery); err == nil {
			_ = json.Unmarshal(raw, &gallery)
		}
		gallery["resourceUrlTemplate"] = "http://" + authority + s.webExtRoute + "/" + s.gallery.Authority + s.gallery.Path
		product["extensionsGallery"] = gallery
	}

	if !s.cfg.Server.Built {
		if data, err := os.ReadFile(filepath.Join(s.appRoot, "product.overrides.json")); err == nil {
			overrides := map[string]any{}
			if json.Unmarshal(data, &overrides) == nil {
				for k, v := range overrides {
					product[k] = v
				}
			}
		}
	}
	return product
}

func (s *Server) nlsBaseURL(vscodeBase string) string {
	nlsBase := s.cfg.Gallery.NLSBaseURL
	if nlsBase == "" {
		return vscodeBase
	}
	if !strings.HasSuffix(nlsBase, "/") {
		nlsBase += "/"
	}
	return vscodeBase + nlsBase + s.cfg.Product.Commit + "/" + s.cfg.Product.Version + "/"
}

func (s *Server) resolveNLS(r *http.Request) (*nls.Configuration, error) {
	locale := s.cfg.Workbench.Locale
	if locale == "" {
		var err error
		locale, err = nls.LocaleFromArgv(s.cfg.Workbench.ArgvPath)
		if err != nil {
			s.slog.WithContext(r.Context()).Warn("reading argv.json failed", "path", s.cfg.Workbench.ArgvPath, "error", err)
		}
	}
	return s.nls.Resolve(r.Context(), locale, s.cfg.Workbench.UserDataPath)
}

func (s *Server) builtinExtensions() ([]builtinExtension, error) {
	exts := make([]builtinExtension, 0, len(testResolverBuiltin))
	for _, name := range testResolverBuiltin {
		data, err := os.ReadFile(filepath.Join(s.appRoot, "extensions", name, "package.json"))
		if err != nil {
			return nil, fmt.Errorf("read builtin extension %s: %w", name, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("builtin extension %s: invalid package.json", name)
		}
		exts = append(exts, builtinExtension{ExtensionPath: name, PackageJSON: data})
	}
	return exts, nil
}

func (s *Server) templatePath() string {
	name := "workbench-dev.html"
	if s.cfg.Server.Built {
		name = "workbench.html"
	}
	return filepath.Join(s.appRoot, filepath.FromSlash(workbenchDir), name)
}

// redirectWithoutToken exchanges the query token for a cookie and sends the
// browser back to the same page without it.
func (s *Server) redirectWithoutToken(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, connectiontoken.Cookie(value))
	query := r.URL.Query()
	query.Del(connectiontoken.QueryName)
	location := (&url.URL{Path: r.URL.Path, RawQuery: query.Encode()}).String()
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusFound)
}

// handleRoot serves the composed workbench document.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if values, ok := r.URL.Query()[connectiontoken.QueryName]; ok && len(values) > 0 {
		s.redirectWithoutToken(w, r, values[0])
		return
	}

	authority := s.remoteAuthority(r)
	if authority == "" {
		serveError(w, http.StatusBadRequest, "Bad request.")
		return
	}

	wb := s.cfg.Workbench
	publicBase := s.cfg.Server.PublicBasePath
	if publicBase == "" {
		publicBase = "/"
	}
	base := relativeRoot(publicBase)
	vscodeBase := relativePath(publicBase)

	conf := workbenchConfiguration{
		RemoteAuthority:      authority,
		ServerBasePath:       s.basePath,
		WebviewEndpoint:      vscodeBase + s.staticRoute + webviewPrePath,
		UserDataPath:         wb.UserDataPath,
		DevelopmentOptions:   developmentOptions{LogLevel: workbenchLogLevel(wb.LogLevel)},
		EnableWorkspaceTrust: !wb.DisableWorkspaceTrust,
		FolderURI:            s.workspaceURI(wb.DefaultFolder, authority),
		WorkspaceURI:         s.workspaceURI(wb.DefaultWorkspace, authority),
		ProductConfiguration: s.productConfiguration(base, authority),
		CallbackRoute:        s.callbackRoute,
	}
	if wb.EnableSmokeTestDriver {
		wrap, enabled := false, true
		conf.WrapWebWorkerExtHostInIframe = &wrap
		conf.DevelopmentOptions.EnableSmokeTestDriver = &enabled
	}
	if !s.cfg.Server.Built && wb.EnableSync {
		conf.SettingsSyncOptions = &settingsSyncOptions{Enabled: true}
	}

	nlsConf, err := s.resolveNLS(r)
	if err != nil {
		s.internalError(w, r, "resolve nls configuration", err)
		return
	}

	values := map[string]string{
		"WORKBENCH_AUTH_SESSION": "",
		"WORKBENCH_WEB_BASE_URL": vscodeBase + s.staticRoute,
		"WORKBENCH_NLS_BASE_URL": s.nlsBaseURL(vscodeBase),
		"BASE":                   base,
		"VS_BASE":                vscodeBase,
	}
	encoded := map[string]any{
		"WORKBENCH_WEB_CONFIGURATION": conf,
		"NLS_CONFIGURATION":           nlsConf,
	}
	if !s.cfg.Server.Built && wb.GithubAuth != "" {
		encoded["WORKBENCH_AUTH_SESSION"] = authSessionInfo{
			ID:          uuid.NewString(),
			ProviderID:  "github",
			AccessToken: wb.GithubAuth,
			Scopes:      [][]string{{"user:email"}, {"repo"}},
		}
	}
	if s.useTestResolver() {
		exts, err := s.builtinExtensions()
		if err != nil {
			s.internalError(w, r, "load builtin extensions", err)
			return
		}
		encoded["WORKBENCH_BUILTIN_EXTENSIONS"] = exts
	}
	for key, v := range encoded {
		text, err := asJSON(v)
		if err != nil {
			s.internalError(w, r, "encode "+key, err)
			return
		}
		values[key] = text
	}

	template, err := os.ReadFile(s.templatePath())
	if err != nil {
		missing := cerrors.Wrap(err, cerrors.ErrCodeTemplateMissing, "read workbench template")
		s.logger.Printf("read workbench template: %v", err)
		observability.RecordError(r.Context(), missing)
		s.slog.WithContext(r.Context()).OperationFailed("render workbench", missing)
		serveError(w, http.StatusNotFound, "Not found")
		return
	}
	document := renderTemplate(string(template), values)

	hashes := scriptHashes(document)
	observability.CSPScriptHashes.Observe(float64(len(hashes)))
	scriptOrigin := ""
	if !s.useTestResolver() {
		scriptOrigin = "http://" + authority
	}

	headers := w.Header()
	headers.Set("Content-Type", "text/html")
	headers.Set("Content-Security-Policy", workbenchCSP(hashes, scriptOrigin))
	if s.token.Type != connectiontoken.None {
		http.SetCookie(w, connectiontoken.Cookie(s.token.Value))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(document))
}

// handleCallback serves the auth callback page with its own policy.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.appRoot, filepath.FromSlash(workbenchDir), "callback.html"))
	if err != nil {
		s.logger.Printf("read callback page: %v", err)
		serveError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Security-Policy", callbackCSP(scriptHashes(string(data))))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Printf("%s: %v", op, err)
	s.slog.WithContext(r.Context()).OperationFailed(op, err)
	serveError(w, http.StatusInternalServerError, "Internal Server Error.")
}
