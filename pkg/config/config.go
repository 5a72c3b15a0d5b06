package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/paths"
)

// Default configuration values exported for documentation and validation
const (
	DefaultBind             = "127.0.0.1:8000"
	DefaultBasePath         = "/"
	DefaultIdleFile         = "/tmp/.sagemaker-last-active-timestamp"
	DefaultIdleFileName     = ".sagemaker-last-active-timestamp"
	DefaultPtsDir           = "/dev/pts"
	DefaultIdleInterval     = 60 * time.Second
	DefaultImageExtDir      = "/opt/amazon/sagemaker/sagemaker-code-editor-server-data/extensions"
	DefaultVolumeExtDir     = "/home/sagemaker-user/sagemaker-code-editor-server-data/extensions"
	DefaultCLI              = "sagemaker-code-editor"
	DefaultLibConfigPath    = "/home/sagemaker-user/src/.libs.json"
	DefaultLibInstallScript = "/etc/sagemaker-ui/libmgmt/install-lib.sh"
	DefaultMetadataPath     = "/opt/ml/metadata/resource-metadata.json"
	DefaultStartupStatus    = "/tmp/.post-startup-status.json"
	DefaultStartupStability = 2 * time.Second
	DefaultTheme            = "Default Dark Modern"
	DefaultLogLevel         = "info"
	DefaultProxyRate        = 20.0
	DefaultProxyBurst       = 40
	DefaultShutdownTimeout  = 5 * time.Second

	// UnifiedStudioService is the SERVICE_NAME value that enables portal deep links.
	UnifiedStudioService = "SageMakerUnifiedStudio"
)

// Config is the complete server and extension-side configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Token         TokenConfig         `yaml:"connection_token"`
	Product       ProductConfig       `yaml:"product"`
	Gallery       GalleryConfig       `yaml:"gallery"`
	Workbench     WorkbenchConfig     `yaml:"workbench"`
	Idle          IdleConfig          `yaml:"idle"`
	Extensions    ExtensionsConfig    `yaml:"extensions"`
	Libraries     LibrariesConfig     `yaml:"libraries"`
	Session       SessionConfig       `yaml:"session"`
	Startup       StartupConfig       `yaml:"startup"`
	Theme         ThemeConfig         `yaml:"theme"`
	Notebook      NotebookConfig      `yaml:"notebook"`
	Environment   EnvironmentConfig   `yaml:"environment"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig controls the bootstrap HTTP server.
type ServerConfig struct {
	Bind string `yaml:"bind"`
	// BasePath is the route the workbench document is served at.
	BasePath string `yaml:"base_path"`
	// RootPath prefixes the static, callback and extension-resource routes.
	// Empty means BasePath.
	RootPath string `yaml:"root_path"`
	// PublicBasePath is the path the browser sees behind a reverse proxy.
	// It drives the relative BASE and VS_BASE values.
	PublicBasePath  string        `yaml:"public_base_path"`
	AppRoot         string        `yaml:"app_root"`
	Built           bool          `yaml:"built"`
	ProxyRateLimit  float64       `yaml:"proxy_rate_limit"`
	ProxyBurst      int           `yaml:"proxy_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TokenConfig describes the connection token gate.
type TokenConfig struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// ProductConfig carries build identity used in NLS URLs.
type ProductConfig struct {
	Commit  string `yaml:"commit"`
	Version string `yaml:"version"`
	Quality string `yaml:"quality"`
}

// GalleryConfig mirrors the product's extensionsGallery block.
type GalleryConfig struct {
	ServiceURL          string `yaml:"service_url" json:"serviceUrl,omitempty"`
	ItemURL             string `yaml:"item_url" json:"itemUrl,omitempty"`
	ResourceURLTemplate string `yaml:"resource_url_template" json:"resourceUrlTemplate,omitempty"`
	ControlURL          string `yaml:"control_url" json:"controlUrl,omitempty"`
	NLSBaseURL          string `yaml:"nls_base_url" json:"nlsBaseUrl,omitempty"`
}

// WorkbenchConfig holds the server arguments that shape the workbench payload.
type WorkbenchConfig struct {
	UserDataPath          string `yaml:"user_data_path"`
	ArgvPath              string `yaml:"argv_path"`
	Locale                string `yaml:"locale"`
	DefaultFolder         string `yaml:"default_folder"`
	DefaultWorkspace      string `yaml:"default_workspace"`
	EnableSmokeTestDriver bool   `yaml:"enable_smoke_test_driver"`
	UseTestResolver       bool   `yaml:"use_test_resolver"`
	GithubAuth            string `yaml:"github_auth"`
	EnableSync            bool   `yaml:"enable_sync"`
	DisableWorkspaceTrust bool   `yaml:"disable_workspace_trust"`
	LogLevel              string `yaml:"log_level"`
}

// IdleConfig locates the idle sentinel and the pty heuristic.
type IdleConfig struct {
	// FilePath is the sentinel the HTTP endpoint reads.
	FilePath string `yaml:"file_path"`
	// HomeFileName is the sentinel name extension-side trackers write under HOME.
	HomeFileName  string        `yaml:"home_file_name"`
	PtsDir        string        `yaml:"pts_dir"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

// ExtensionsConfig locates the prepackaged extension sets.
type ExtensionsConfig struct {
	ImageDir  string `yaml:"image_dir"`
	VolumeDir string `yaml:"volume_dir"`
	CLI       string `yaml:"cli"`
}

// LibrariesConfig locates the library-management document and installer.
type LibrariesConfig struct {
	ConfigPath    string `yaml:"config_path"`
	InstallScript string `yaml:"install_script"`
	SourceDir     string `yaml:"source_dir"`
}

// SessionConfig feeds the session expiry scheduler.
type SessionConfig struct {
	MetadataPath string `yaml:"metadata_path"`
	CookieFile   string `yaml:"cookie_file"`
}

// StartupConfig configures the post-startup status watcher.
type StartupConfig struct {
	StatusFile string        `yaml:"status_file"`
	Stability  time.Duration `yaml:"stability"`
}

// ThemeConfig configures the default theme bootstrap.
type ThemeConfig struct {
	Default               string `yaml:"default"`
	UserSettingsPath      string `yaml:"user_settings_path"`
	WorkspaceSettingsPath string `yaml:"workspace_settings_path"`
}

// NotebookConfig configures notebook downloads.
type NotebookConfig struct {
	DownloadDir string `yaml:"download_dir"`
}

// EnvironmentConfig captures the hosting markers.
type EnvironmentConfig struct {
	ServiceName string `yaml:"service_name"`
	AppType     string `yaml:"app_type"`
}

// ObservabilityConfig toggles logs, metrics and tracing.
type ObservabilityConfig struct {
	LogDir         string `yaml:"log_dir"`
	Tracing        bool   `yaml:"tracing"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// DefaultConfig returns the configuration used when no file or env overrides exist.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:            DefaultBind,
			BasePath:        DefaultBasePath,
			PublicBasePath:  DefaultBasePath,
			AppRoot:         ".",
			ProxyRateLimit:  DefaultProxyRate,
			ProxyBurst:      DefaultProxyBurst,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Token: TokenConfig{Type: "none"},
		Workbench: WorkbenchConfig{
			LogLevel: DefaultLogLevel,
		},
		Idle: IdleConfig{
			FilePath:      DefaultIdleFile,
			HomeFileName:  DefaultIdleFileName,
			PtsDir:        DefaultPtsDir,
			CheckInterval: DefaultIdleInterval,
		},
		Extensions: ExtensionsConfig{
			ImageDir:  DefaultImageExtDir,
			VolumeDir: DefaultVolumeExtDir,
			CLI:       DefaultCLI,
		},
		Libraries: LibrariesConfig{
			ConfigPath:    DefaultLibConfigPath,
			InstallScript: DefaultLibInstallScript,
			SourceDir:     "$HOME/src",
		},
		Session: SessionConfig{
			MetadataPath: DefaultMetadataPath,
		},
		Startup: StartupConfig{
			StatusFile: DefaultStartupStatus,
			Stability:  DefaultStartupStability,
		},
		Theme: ThemeConfig{
			Default: DefaultTheme,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: true,
		},
	}
}

// Load loads configuration from default locations with proper precedence:
// defaults, ~/.codeeditor/config.yaml, ./.codeeditor/config.yaml, environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if home := paths.HomeDir(); home != "" {
		userConfigPath := filepath.Join(home, ".codeeditor", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, cerrors.Wrap(err, cerrors.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userConfigPath)
		}
	}

	projectConfigPath := filepath.Join(".", ".codeeditor", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectConfigPath)
	}

	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadAndMerge(cfg, path); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeConfigLoad, fmt.Sprintf("loading config from %s", path))
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Server.BasePath = normalizeRoute(c.Server.BasePath)
	if strings.TrimSpace(c.Server.PublicBasePath) == "" {
		c.Server.PublicBasePath = "/"
	}
	c.Token.Type = strings.ToLower(strings.TrimSpace(c.Token.Type))
	c.Workbench.UserDataPath = paths.ExpandHome(c.Workbench.UserDataPath)
	c.Workbench.ArgvPath = paths.ExpandHome(c.Workbench.ArgvPath)
	c.Server.AppRoot = paths.ExpandHome(c.Server.AppRoot)
	c.Observability.LogDir = paths.ExpandHome(c.Observability.LogDir)
}

// ResolvedRootPath returns the prefix for static, callback and resource routes.
func (s ServerConfig) ResolvedRootPath() string {
	root := strings.TrimSpace(s.RootPath)
	if root == "" {
		root = s.BasePath
	}
	return strings.TrimRight(normalizeRoute(root), "/")
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

// IsUnifiedStudio reports whether the SERVICE_NAME marks a unified-studio space.
func (e EnvironmentConfig) IsUnifiedStudio() bool {
	return e.ServiceName == UnifiedStudioService
}

// IsSageMaker reports whether a SageMaker service marker is present.
func (e EnvironmentConfig) IsSageMaker() bool {
	return strings.TrimSpace(e.ServiceName) != ""
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Token.Type {
	case "none", "optional":
	case "mandatory":
		if strings.TrimSpace(c.Token.Value) == "" {
			return cerrors.New(cerrors.ErrCodeConfigInvalid, "mandatory connection token requires a value").
				WithRemediation("Set connection_token.value or CODEEDITOR_CONNECTION_TOKEN.")
		}
	default:
		return cerrors.Newf(cerrors.ErrCodeConfigInvalid, "invalid connection token type: %s (valid: none, mandatory, optional)", c.Token.Type)
	}

	if tmpl := strings.TrimSpace(c.Gallery.ResourceURLTemplate); tmpl != "" {
		if _, ok := SplitURLTemplate(tmpl); !ok {
			return cerrors.New(cerrors.ErrCodeConfigInvalid, "gallery resource_url_template must be an absolute URL").
				WithContext("value", tmpl)
		}
	}

	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeConfigInvalid, "invalid server bind address").
			WithContext("bind", c.Server.Bind)
	}
	if c.Server.ProxyRateLimit < 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, "proxy_rate_limit must not be negative")
	}
	if c.Server.ProxyRateLimit > 0 && c.Server.ProxyBurst <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, "proxy_burst must be positive when rate limiting is enabled")
	}
	if c.Idle.CheckInterval <= 0 {
		return cerrors.New(cerrors.ErrCodeConfigInvalid, "idle check_interval must be positive")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true, "off": true,
	}
	if c.Workbench.LogLevel != "" && !validLevels[strings.ToLower(c.Workbench.LogLevel)] {
		return cerrors.Newf(cerrors.ErrCodeConfigInvalid, "invalid workbench log level: %s", c.Workbench.LogLevel)
	}
	return nil
}

// URLTemplate is a URL whose host may carry {placeholders}, which net/url
// refuses to parse.
type URLTemplate struct {
	Scheme    string
	Authority string
	// Path includes its leading slash, or is empty.
	Path string
}

// String reassembles the template.
func (t URLTemplate) String() string {
	return t.Scheme + "://" + t.Authority + t.Path
}

// SplitURLTemplate splits raw into scheme, authority and path.
func SplitURLTemplate(raw string) (URLTemplate, bool) {
	raw = strings.TrimSpace(raw)
	i := strings.Index(raw, "://")
	if i <= 0 {
		return URLTemplate{}, false
	}
	scheme, rest := strings.ToLower(raw[:i]), raw[i+3:]
	authority, path := rest, ""
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		authority, path = rest[:j], rest[j:]
	}
	if authority == "" {
		return URLTemplate{}, false
	}
	return URLTemplate{Scheme: scheme, Authority: authority, Path: path}, true
}
