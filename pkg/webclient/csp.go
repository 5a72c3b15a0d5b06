package webclient

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// webWorkerIframeScriptHash allows the inline script of the web worker
// extension host iframe.
const webWorkerIframeScriptHash = "'sha256-75NYUUvf+5++1WbfCZOV3PSWxBhONpaxwx+mkOFRv/Y='"

var connectSources = []string{
	"'self'", "ws:", "wss:",
	"https://main.vscode-cdn.net",
	"http://localhost:*",
	"https://localhost:*",
	"https://login.microsoftonline.com/",
	"https://update.code.visualstudio.com",
	"https://*.vscode-unpkg.net/",
	"https://default.exp-tas.com/vscode/ab",
	"https://vscode-sync.trafficmanager.net",
	"https://vscode-sync-insiders.trafficmanager.net",
	"https://*.gallerycdn.vsassets.io",
	"https://marketplace.visualstudio.com",
	"https://*.blob.core.windows.net",
	"https://az764295.vo.msecnd.net",
	"https://code.visualstudio.com",
	"https://*.gallery.vsassets.io",
	"https://*.rel.tunnels.api.visualstudio.com",
	"wss://*.rel.tunnels.api.visualstudio.com",
	"https://*.servicebus.windows.net/",
	"https://vscode.blob.core.windows.net",
	"https://vscode.search.windows.net",
	"https://vsmarketplacebadges.dev",
	"https://vscode.download.prss.microsoft.com",
	"https://download.visualstudio.microsoft.com",
	"https://*.vscode-unpkg.net",
	"https://open-vsx.org",
}

// scriptHashes returns one 'sha256-...' source per distinct inline script in
// document, in document order. Scripts with a src attribute or an empty body
// are skipped. A parse failure yields no hashes, which only makes the policy
// stricter.
func scriptHashes(document string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var hashes []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		body := strings.ReplaceAll(sel.Text(), "\r\n", "\n")
		if body == "" {
			return
		}
		sum := sha256.Sum256([]byte(body))
		source := "'sha256-" + base64.StdEncoding.EncodeToString(sum[:]) + "'"
		if _, dup := seen[source]; dup {
			return
		}
		seen[source] = struct{}{}
		hashes = append(hashes, source)
	})
	return hashes
}

func directive(name string, sources ...string) string {
	parts := make([]string, 0, len(sources)+1)
	parts = append(parts, name)
	for _, src := range sources {
		if src != "" {
			parts = append(parts, src)
		}
	}
	return strings.Join(parts, " ") + ";"
}

// workbenchCSP builds the policy for the root document. scriptOrigin, when
// set, is appended to script-src.
func workbenchCSP(hashes []string, scriptOrigin string) string {
	script := append([]string{"'self'", "'unsafe-eval'"}, hashes...)
	script = append(script, webWorkerIframeScriptHash, scriptOrigin)
	return strings.Join([]string{
		directive("default-src", "'self'"),
		directive("img-src", "'self'", "https:", "data:", "blob:"),
		directive("media-src", "'self'"),
		directive("script-src", script...),
		directive("child-src", "'self'"),
		directive("frame-src", "'self'", "https://*.vscode-cdn.net", "data:"),
		directive("worker-src", "'self'", "data:", "blob:"),
		directive("style-src", "'self'", "'unsafe-inline'"),
		directive("connect-src", connectSources...),
		directive("font-src", "'self'", "blob:"),
		directive("manifest-src", "'self'"),
	}, " ")
}

func callbackCSP(hashes []string) string {
	return strings.Join([]string{
		directive("default-src", "'self'"),
		directive("img-src", "'self'", "https:", "data:", "blob:"),
		directive("media-src", "'none'"),
		directive("script-src", append([]string{"'self'"}, hashes...)...),
		directive("style-src", "'self'", "'unsafe-inline'"),
		directive("font-src", "'self'", "blob:"),
	}, " ")
}
