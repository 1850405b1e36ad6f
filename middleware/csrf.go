package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/app"
	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// CSRFConfig configures double-submit cookie protection.
type CSRFConfig struct {
	CookieName string
	// HeaderName carries the token for script clients.
	HeaderName string
	// FieldName carries the token in posted forms.
	FieldName      string
	TokenLength    int
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	TTL            time.Duration
}

type csrfKey struct{}

func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		CookieName:     "_csrf",
		HeaderName:     "X-CSRF-Token",
		FieldName:      "_csrf",
		TokenLength:    32,
		CookiePath:     "/",
		CookieSecure:   true,
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		TTL:            12 * time.Hour,
	}
}

// CSRF rejects unsafe requests whose header or form token does not match the
// token cookie. Safe requests get a cookie when they have none. The token is
// available to templates through CSRFToken:
//
//	<input type="hidden" name="_csrf" value="{{ .CSRF }}">
func CSRF(cfgs ...CSRFConfig) app.Middleware {
	cfg := DefaultCSRFConfig()
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	return func(next app.Handler) app.Handler {
		return func(c ctx.Ctx) error {
			switch c.Method() {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				tok := ensureCSRFCookie(c, cfg)
				c.Set(csrfKey{}, tok)
				return next(c)
			}

			cookie, err := c.Request().Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				return c.String(http.StatusForbidden, "CSRF token missing")
			}
			sent := ""
			if cfg.HeaderName != "" {
				sent = c.Request().Header.Get(cfg.HeaderName)
			}
			if sent == "" && cfg.FieldName != "" {
				sent = c.Request().PostFormValue(cfg.FieldName)
			}
			if sent == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(sent)) != 1 {
				return c.String(http.StatusForbidden, "CSRF token invalid")
			}
			c.Set(csrfKey{}, cookie.Value)
			return next(c)
		}
	}
}

// CSRFToken returns the token for the current request, or "".
func CSRFToken(c context.Context) string {
	s, _ := c.Value(csrfKey{}).(string)
	return s
}

func ensureCSRFCookie(c ctx.Ctx, cfg CSRFConfig) string {
	if cookie, err := c.Request().Cookie(cfg.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	tok := generateCSRFToken(cfg.TokenLength)
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    tok,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		HttpOnly: cfg.CookieHTTPOnly,
		SameSite: cfg.CookieSameSite,
		MaxAge:   int(cfg.TTL / time.Second),
	})
	return tok
}

func generateCSRFToken(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
