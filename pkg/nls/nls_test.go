package nls

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	in := "{\n  // editor locale\n  \"locale\": \"de\", /* block\n comment */\n  \"url\": \"http://x//y\"\r\n}"
	out := StripComments(in)
	assert.NotContains(t, out, "editor locale")
	assert.NotContains(t, out, "block")
	assert.Contains(t, out, `"http://x//y"`)
	assert.Contains(t, out, "\n  \"locale\"")
}

func TestStripCommentsKeepsEscapedQuotes(t *testing.T) {
	in := `{"a": "say \"//hi\"" // trailing` + "\n}"
	assert.Equal(t, `{"a": "say \"//hi\"" `+"\n}", StripComments(in))
}

func TestLocaleFromArgv(t *testing.T) {
	dir := t.TempDir()

	locale, err := LocaleFromArgv(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "en", locale)

	path := filepath.Join(dir, "argv.json")
	require.NoError(t, os.WriteFile(path, []byte("// settings\n{\n \"locale\": \"ja\" // japanese\n}\n"), 0o644))
	locale, err = LocaleFromArgv(path)
	require.NoError(t, err)
	assert.Equal(t, "ja", locale)

	require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0o644))
	locale, err = LocaleFromArgv(path)
	assert.Error(t, err)
	assert.Equal(t, "en", locale)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	locale, err = LocaleFromArgv(path)
	require.NoError(t, err)
	assert.Equal(t, "en", locale)
}

func writePacks(t *testing.T, dir string, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "languagepacks.json"), []byte(body), 0o644))
}

func TestResolveEnglishIsCached(t *testing.T) {
	r, err := NewResolver(4, nil)
	require.NoError(t, err)

	cfg, err := r.Resolve(context.Background(), "en", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Locale)
	assert.Empty(t, cfg.AvailableLanguages)
	assert.Equal(t, 1, r.Len())
}

func TestResolveMissingPackIsNotCached(t *testing.T) {
	dir := t.TempDir()
	r, err := NewResolver(4, nil)
	require.NoError(t, err)

	cfg, err := r.Resolve(context.Background(), "de", dir)
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Locale)
	assert.Empty(t, cfg.AvailableLanguages)
	assert.Zero(t, r.Len())

	writePacks(t, dir, `{"de": {"hash": "abc", "translations": {"vscode": "/x/main.i18n.json"}}}`)
	cfg, err = r.Resolve(context.Background(), "de", dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"*": "de"}, cfg.AvailableLanguages)
	assert.Equal(t, "abc.de", cfg.LanguagePackID)
	assert.True(t, cfg.LanguagePackSupport)
	assert.Equal(t, filepath.Join(dir, "clp", "abc.de", "tcf.json"), cfg.TranslationsConfigFile)
	assert.Equal(t, 1, r.Len())
}

func TestResolveFallsBackToBaseLanguage(t *testing.T) {
	dir := t.TempDir()
	writePacks(t, dir, `{"pt": {"hash": "h", "translations": {"vscode": "/p"}}}`)
	r, err := NewResolver(4, nil)
	require.NoError(t, err)

	cfg, err := r.Resolve(context.Background(), "pt-BR", dir)
	require.NoError(t, err)
	assert.Equal(t, "pt-br", cfg.Locale)
	assert.Equal(t, map[string]string{"*": "pt"}, cfg.AvailableLanguages)
}

func TestResolveMalformedPacks(t *testing.T) {
	dir := t.TempDir()
	writePacks(t, dir, `[`)
	r, err := NewResolver(4, nil)
	require.NoError(t, err)

	cfg, err := r.Resolve(context.Background(), "fr", dir)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.Locale)
	assert.Equal(t, "fr", cfg.OSLocale)
	assert.Empty(t, cfg.AvailableLanguages)
	assert.False(t, cfg.LanguagePackSupport)
	assert.Equal(t, 0, r.Len())

	// A repaired file is picked up on the next call.
	writePacks(t, dir, `{"fr":{"hash":"abc","translations":{"vscode":"/x"}}}`)
	cfg, err = r.Resolve(context.Background(), "fr", dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"*": "fr"}, cfg.AvailableLanguages)
}

func TestResolveConcurrentCallers(t *testing.T) {
	r, err := NewResolver(4, nil)
	require.NoError(t, err)
	dir := t.TempDir()

	var wg sync.WaitGroup
	results := make([]*Configuration, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := r.Resolve(context.Background(), "en-us", dir)
			assert.NoError(t, err)
			results[i] = cfg
		}(i)
	}
	wg.Wait()
	for _, cfg := range results {
		require.NotNil(t, cfg)
		assert.Equal(t, "en-us", cfg.Locale)
	}
	assert.Equal(t, 1, r.Len())
}

func TestResolvePseudo(t *testing.T) {
	r, err := NewResolver(0, nil)
	require.NoError(t, err)
	cfg, err := r.Resolve(context.Background(), "pseudo", "")
	require.NoError(t, err)
	assert.True(t, cfg.Pseudo)
}
