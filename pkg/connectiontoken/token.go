// Package connectiontoken gates access to the web server with a shared secret
// that arrives once as a query parameter and is then carried by a cookie.
package connectiontoken

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

const (
	// QueryName is the query parameter a client uses to present the token.
	QueryName = "tkn"
	// CookieName is the cookie the token is exchanged into.
	CookieName = "vscode-tkn"
	// CookieMaxAge is how long an issued cookie stays valid.
	CookieMaxAge = 7 * 24 * time.Hour
)

// Type is the gating mode.
type Type int

const (
	None Type = iota
	Mandatory
	Optional
)

func (t Type) String() string {
	switch t {
	case Mandatory:
		return "mandatory"
	case Optional:
		return "optional"
	default:
		return "none"
	}
}

// Token is constructed once at startup and never mutated.
type Token struct {
	Type  Type
	Value string
}

// Parse builds a Token from configuration values.
func Parse(typ, value string) (Token, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "none":
		return Token{Type: None}, nil
	case "optional":
		return Token{Type: Optional, Value: value}, nil
	case "mandatory":
		if value == "" {
			return Token{}, cerrors.New(cerrors.ErrCodeConfigInvalid, "mandatory connection token requires a value")
		}
		return Token{Type: Mandatory, Value: value}, nil
	default:
		return Token{}, cerrors.Newf(cerrors.ErrCodeConfigInvalid, "unknown connection token type %q", typ)
	}
}

// Presented returns the token supplied by r, query parameter first.
func Presented(r *http.Request) (string, bool) {
	if values, ok := r.URL.Query()[QueryName]; ok && len(values) > 0 {
		return values[0], true
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value, true
	}
	return "", false
}

// Validate reports whether r carries an acceptable token.
func (t Token) Validate(r *http.Request) bool {
	if t.Type == None {
		return true
	}
	presented, ok := Presented(r)
	if !ok {
		return t.Type == Optional
	}
	if t.Type == Optional && t.Value == "" {
		return true
	}
	return t.matches(presented)
}

func (t Token) matches(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(t.Value)) == 1
}

// Cookie builds the long-lived SameSite=Lax cookie carrying value.
func Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		MaxAge:   int(CookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}
