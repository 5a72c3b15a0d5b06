// Package nls resolves the localization bundle handed to the workbench.
package nls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/odvcencio/codeeditor/pkg/observability"
)

const defaultCacheSize = 64

// Configuration is the locale bundle serialized into NLS_CONFIGURATION.
type Configuration struct {
	Locale                 string            `json:"locale"`
	OSLocale               string            `json:"osLocale"`
	AvailableLanguages     map[string]string `json:"availableLanguages"`
	Pseudo                 bool              `json:"pseudo,omitempty"`
	LanguagePackID         string            `json:"_languagePackId,omitempty"`
	TranslationsConfigFile string            `json:"_translationsConfigFile,omitempty"`
	CacheRoot              string            `json:"_cacheRoot,omitempty"`
	LanguagePackSupport    bool              `json:"_languagePackSupport,omitempty"`
}

// IsEnglish reports whether the locale is the built-in default.
func (c *Configuration) IsEnglish() bool {
	l := strings.ToLower(c.Locale)
	return l == "en" || l == "en-us"
}

// languagePack is one entry of <userDataPath>/languagepacks.json.
type languagePack struct {
	Hash         string            `json:"hash"`
	Label        string            `json:"label"`
	Translations map[string]string `json:"translations"`
}

// Resolver caches configurations by language and user-data path. Non-English
// results without any available language are never cached so that a pack
// installed later is picked up on the next request.
type Resolver struct {
	cache  *lru.Cache[string, *Configuration]
	group  singleflight.Group
	logger *observability.Logger
}

// NewResolver creates a resolver holding at most size entries.
func NewResolver(size int, logger *observability.Logger) (*Resolver, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, *Configuration](size)
	if err != nil {
		return nil, fmt.Errorf("create nls cache: %w", err)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Resolver{cache: cache, logger: logger}, nil
}

func cacheKey(language, userDataPath string) string {
	return language + "||" + userDataPath
}

// Resolve returns the configuration for language, sharing one in-flight
// resolution between concurrent callers.
func (r *Resolver) Resolve(ctx context.Context, lang, userDataPath string) (*Configuration, error) {
	key := cacheKey(lang, userDataPath)
	if cfg, ok := r.cache.Get(key); ok {
		observability.NLSCacheLookups.WithLabelValues("hit").Inc()
		return cfg, nil
	}
	observability.NLSCacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := r.group.Do(key, func() (any, error) {
		ctx, span := observability.StartSpan(ctx, "nls.resolve")
		defer span.End()
		span.SetAttributes(observability.AttrNLSLanguage.String(lang))

		cfg, err := resolve(lang, userDataPath)
		if err != nil {
			observability.RecordError(ctx, err)
			r.logger.WithContext(ctx).Warn("language packs unreadable, using default configuration",
				slog.String("language", lang), slog.String("error", err.Error()))
		}
		if !cfg.IsEnglish() && len(cfg.AvailableLanguages) == 0 {
			observability.NLSCacheLookups.WithLabelValues("evicted").Inc()
			span.SetAttributes(observability.AttrNLSCached.Bool(false))
			return cfg, nil
		}
		r.cache.Add(key, cfg)
		span.SetAttributes(observability.AttrNLSCached.Bool(true))
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Configuration), nil
}

// Len reports the number of cached configurations.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// resolve always returns a configuration. A pack file that cannot be read
// yields the base configuration alongside the error.
func resolve(locale, userDataPath string) (*Configuration, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = DefaultLocale
	}
	if locale == "pseudo" {
		return &Configuration{Locale: locale, OSLocale: locale, AvailableLanguages: map[string]string{}, Pseudo: true}, nil
	}

	base := &Configuration{Locale: locale, OSLocale: locale, AvailableLanguages: map[string]string{}}
	if base.IsEnglish() || userDataPath == "" {
		return base, nil
	}

	packs, err := readLanguagePacks(filepath.Join(userDataPath, "languagepacks.json"))
	if err != nil {
		return base, err
	}

	for _, candidate := range candidates(locale) {
		pack, ok := packs[candidate]
		if !ok || pack.Translations == nil {
			continue
		}
		packID := candidate
		if pack.Hash != "" {
			packID = pack.Hash + "." + candidate
		}
		cacheRoot := filepath.Join(userDataPath, "clp")
		return &Configuration{
			Locale:                 locale,
			OSLocale:               locale,
			AvailableLanguages:     map[string]string{"*": candidate},
			LanguagePackID:         packID,
			TranslationsConfigFile: filepath.Join(cacheRoot, packID, "tcf.json"),
			CacheRoot:              cacheRoot,
			LanguagePackSupport:    true,
		}, nil
	}
	return base, nil
}

// candidates lists pack keys to try: the canonical tag, the raw value, then
// the base language.
func candidates(locale string) []string {
	out := []string{locale}
	tag, err := language.Parse(locale)
	if err != nil {
		if i := strings.IndexByte(locale, '-'); i > 0 {
			out = append(out, locale[:i])
		}
		return out
	}
	if canonical := strings.ToLower(tag.String()); canonical != locale {
		out = append([]string{canonical}, out...)
	}
	if b, conf := tag.Base(); conf != language.No {
		if s := b.String(); s != locale {
			out = append(out, s)
		}
	}
	return out
}

func readLanguagePacks(path string) (map[string]languagePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read language packs: %w", err)
	}
	var packs map[string]languagePack
	if err := json.Unmarshal(data, &packs); err != nil {
		return nil, fmt.Errorf("parse language packs: %w", err)
	}
	normalized := make(map[string]languagePack, len(packs))
	for k, v := range packs {
		normalized[strings.ToLower(k)] = v
	}
	return normalized, nil
}
