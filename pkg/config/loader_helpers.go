package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

// loadAndMerge decodes a YAML file over cfg. Keys absent from the file keep
// their current values; unknown keys are rejected.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return cerrors.Wrap(err, cerrors.ErrCodeConfigParse, "parsing YAML").WithContext("path", path)
	}
	return nil
}

// envOverrides lists every environment variable that can override a
// file-provided setting. Empty values leave the config untouched.
type envOverrides struct {
	Bind            string `env:"CODEEDITOR_BIND"`
	BasePath        string `env:"CODEEDITOR_BASE_PATH"`
	RootPath        string `env:"CODEEDITOR_ROOT_PATH"`
	PublicBasePath  string `env:"CODEEDITOR_PUBLIC_BASE_PATH"`
	AppRoot         string `env:"CODEEDITOR_APP_ROOT"`
	Built           string `env:"CODEEDITOR_BUILT"`
	TokenType       string `env:"CODEEDITOR_CONNECTION_TOKEN_TYPE"`
	Token           string `env:"CODEEDITOR_CONNECTION_TOKEN"`
	GalleryTemplate string `env:"CODEEDITOR_GALLERY_RESOURCE_URL_TEMPLATE"`
	GalleryService  string `env:"CODEEDITOR_GALLERY_SERVICE_URL"`
	NLSBaseURL      string `env:"CODEEDITOR_NLS_BASE_URL"`
	Commit          string `env:"CODEEDITOR_COMMIT"`
	Version         string `env:"CODEEDITOR_VERSION"`
	UserDataPath    string `env:"CODEEDITOR_USER_DATA_PATH"`
	Locale          string `env:"CODEEDITOR_LOCALE"`
	LogLevel        string `env:"CODEEDITOR_LOG_LEVEL"`
	IdleFile        string `env:"CODEEDITOR_IDLE_FILE"`
	IdleInterval    string `env:"CODEEDITOR_IDLE_INTERVAL"`
	LogDir          string `env:"CODEEDITOR_LOG_DIR"`
	Tracing         string `env:"CODEEDITOR_TRACING"`
	ServiceName     string `env:"SERVICE_NAME"`
	AppType         string `env:"SAGEMAKER_APP_TYPE_LOWERCASE"`
}

// ApplyEnvOverridesForTest exposes env override logic for tests without file I/O.
func ApplyEnvOverridesForTest(cfg *Config) error {
	return applyEnvOverrides(cfg)
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil && !stderrors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return cerrors.Wrap(err, cerrors.ErrCodeConfigParse, "decoding environment overrides")
	}

	setString(&cfg.Server.Bind, env.Bind)
	setString(&cfg.Server.BasePath, env.BasePath)
	setString(&cfg.Server.RootPath, env.RootPath)
	setString(&cfg.Server.PublicBasePath, env.PublicBasePath)
	setString(&cfg.Server.AppRoot, env.AppRoot)
	setString(&cfg.Token.Type, env.TokenType)
	setString(&cfg.Token.Value, env.Token)
	setString(&cfg.Gallery.ResourceURLTemplate, env.GalleryTemplate)
	setString(&cfg.Gallery.ServiceURL, env.GalleryService)
	setString(&cfg.Gallery.NLSBaseURL, env.NLSBaseURL)
	setString(&cfg.Product.Commit, env.Commit)
	setString(&cfg.Product.Version, env.Version)
	setString(&cfg.Workbench.UserDataPath, env.UserDataPath)
	setString(&cfg.Workbench.Locale, env.Locale)
	setString(&cfg.Workbench.LogLevel, env.LogLevel)
	setString(&cfg.Idle.FilePath, env.IdleFile)
	setString(&cfg.Observability.LogDir, env.LogDir)
	setString(&cfg.Environment.ServiceName, env.ServiceName)
	setString(&cfg.Environment.AppType, env.AppType)

	if v, ok := parseBool(env.Built); ok {
		cfg.Server.Built = v
	}
	if v, ok := parseBool(env.Tracing); ok {
		cfg.Observability.Tracing = v
	}
	if raw := strings.TrimSpace(env.IdleInterval); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cerrors.Wrap(err, cerrors.ErrCodeConfigParse, "parsing CODEEDITOR_IDLE_INTERVAL")
		}
		cfg.Idle.CheckInterval = d
	}
	return nil
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
