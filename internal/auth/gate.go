// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package auth

import (
	"crypto/subtle"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
)

// Paths the gate redirects between.
const (
	LoginPath = "/login"
	HomePath  = "/"

	// DefaultCookieName is the cookie holding the access key.
	DefaultCookieName = "key"
	// DefaultCookieMaxAge is one week.
	DefaultCookieMaxAge = 7 * 24 * time.Hour

	maxLoginBody = 4 << 10
)

//go:embed templates/login.html
var templateFS embed.FS

var loginTemplate = template.Must(template.ParseFS(templateFS, "templates/login.html"))

// Gate compares the access cookie with the configured secret.
type Gate struct {
	secret       []byte
	cookieName   string
	cookieMaxAge time.Duration
	cookieSecure bool
	security     *logging.SecurityLogger
}

// NewGate builds a gate from the security settings. Empty cookie settings
// fall back to the defaults.
func NewGate(cfg *config.SecurityConfig) *Gate {
	g := &Gate{
		secret:       []byte(cfg.AuthKey),
		cookieName:   cfg.CookieName,
		cookieMaxAge: cfg.CookieMaxAge,
		cookieSecure: cfg.CookieSecure,
		security:     logging.NewSecurityLogger(),
	}
	if g.cookieName == "" {
		g.cookieName = DefaultCookieName
	}
	if g.cookieMaxAge <= 0 {
		g.cookieMaxAge = DefaultCookieMaxAge
	}
	return g
}

// CookieName returns the name of the access cookie.
func (g *Gate) CookieName() string { return g.cookieName }

// Allowed reports whether r carries the access key. An empty secret admits
// nobody.
func (g *Gate) Allowed(r *http.Request) bool {
	if len(g.secret) == 0 {
		return false
	}
	c, err := r.Cookie(g.cookieName)
	if err != nil || c.Value == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), g.secret) == 1
}

// Redirect sends requests without a valid key to the login page with 307.
func (g *Gate) Redirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.check(r, "redirect") {
			http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require answers 401 instead of redirecting. Used for sockets, where a
// redirect means nothing to the client.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.check(r, "require") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) check(r *http.Request, mode string) bool {
	ok := g.Allowed(r)
	metrics.RecordGateDecision(mode, ok)
	if !ok {
		reason := "missing key"
		if c, err := r.Cookie(g.cookieName); err == nil && c.Value != "" {
			reason = "key mismatch"
		}
		g.security.LogAccessDenied(r.URL.Path, r.RemoteAddr, r.UserAgent(), reason)
	}
	return ok
}

// LoginHandler serves the key form on GET. POST stores the submitted value
// in the access cookie as is and sends the browser home; the gate does the
// checking on the next request.
func (g *Gate) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			if err := loginTemplate.Execute(w, struct{ Field string }{g.cookieName}); err != nil {
				logging.Error().Err(err).Msg("Failed to render login page")
			}
		case http.MethodPost:
			r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			g.setCookie(w, r.PostFormValue(g.cookieName), int(g.cookieMaxAge.Seconds()))
			g.security.LogLogin(r.RemoteAddr, r.UserAgent())
			http.Redirect(w, r, HomePath, http.StatusSeeOther)
		default:
			w.Header().Set("Allow", "GET, HEAD, POST")
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

// LogoutHandler clears the access cookie and returns to the login page.
func (g *Gate) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.setCookie(w, "", -1)
		g.security.LogLogout(r.RemoteAddr)
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	}
}

func (g *Gate) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   g.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
