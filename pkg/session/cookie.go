// Package session warns the user before the hosted session expires and sends
// them to sign in again afterwards.
package session

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode values as written by the auth layer.
const (
	AuthModeSSO = "Sso"
	AuthModeIAM = "Iam"
)

// Cookie is an immutable snapshot of the session cookies.
type Cookie struct {
	AuthMode              string
	ExpiryTime            string
	SSOExpiryTimestamp    string
	StudioUserProfileName string
	RedirectURL           string
}

// ParseCookieHeader extracts the session fields from a Cookie header value.
// Unknown cookies are ignored.
func ParseCookieHeader(header string) Cookie {
	req := http.Request{Header: http.Header{"Cookie": {header}}}
	var c Cookie
	for _, ck := range req.Cookies() {
		switch ck.Name {
		case "authMode":
			c.AuthMode = ck.Value
		case "expiryTime":
			c.ExpiryTime = ck.Value
		case "ssoExpiryTimestamp":
			c.SSOExpiryTimestamp = ck.Value
		case "studioUserProfileName":
			c.StudioUserProfileName = ck.Value
		case "redirectURL":
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				c.RedirectURL = v
			} else {
				c.RedirectURL = ck.Value
			}
		}
	}
	return c
}

// IsEmpty reports whether no session cookie was present, which means the
// editor runs outside the hosted environment.
func (c Cookie) IsEmpty() bool {
	return c == Cookie{}
}

// IsSSO reports whether the session uses IAM Identity Center.
func (c Cookie) IsSSO() bool {
	return c.AuthMode == AuthModeSSO
}

// ExpiryTime returns the expiry relevant to the auth mode in epoch
// milliseconds, or -1 for an unknown mode or an unparsable value.
func (c Cookie) ExpiryTime() int64 {
	var raw string
	switch c.AuthMode {
	case AuthModeSSO:
		raw = c.SSOExpiryTimestamp
	case AuthModeIAM:
		raw = c.ExpiryTime
	default:
		return -1
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return -1
	}
	return int64(ms)
}

// Remaining returns the time left at now. Unknown expiries are already past.
func (c Cookie) Remaining(now time.Time) time.Duration {
	exp := c.ExpiryTime()
	if exp < 0 {
		return -time.Millisecond
	}
	return time.UnixMilli(exp).Sub(now)
}

// CookieSource yields a fresh snapshot on every call.
type CookieSource interface {
	Cookie(ctx context.Context) (Cookie, error)
}

// CookieSourceFunc adapts a function to CookieSource.
type CookieSourceFunc func(ctx context.Context) (Cookie, error)

func (f CookieSourceFunc) Cookie(ctx context.Context) (Cookie, error) {
	return f(ctx)
}

// FileCookieSource reads a Cookie header line from a file that an outer
// process keeps current. A missing file is an empty snapshot.
type FileCookieSource struct {
	Path string
}

func (s FileCookieSource) Cookie(ctx context.Context) (Cookie, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return Cookie{}, nil
	}
	if err != nil {
		return Cookie{}, err
	}
	header := strings.TrimSpace(string(data))
	header = strings.TrimPrefix(header, "Cookie:")
	return ParseCookieHeader(strings.TrimSpace(header)), nil
}

// LogoutURL derives the platform logout endpoint from the page URL: the
// first two path segments identify the space.
func LogoutURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	parts := strings.Split(u.Path, "/")
	seg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return "https://" + u.Hostname() + "/" + seg(1) + "/" + seg(2) + "/logout", nil
}
