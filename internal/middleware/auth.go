// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"inkpress/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// Sign-in pages RequireAuth sends visitors to.
const (
	LoginPath       = "/login"
	LoginVerifyPath = "/login/2fa"
)

// SessionLoader is the part of session.Store LoadSession needs.
type SessionLoader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// LoadSession retrieves the session from Valkey and stores it in the
// request context. Downstream handlers can access it via SessionFromCtx().
// It does not enforce authentication.
func LoadSession(store SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				slog.Warn("session load failed, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth lets fully signed-in users through. Anonymous visitors go to
// the login page with a next parameter; users who still owe a TOTP code go
// to the verification page. HTMX requests get an HX-Redirect instead of a
// 303 so the whole page navigates.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromCtx(r.Context())
		if sess.Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
		if sess != nil {
			target = LoginVerifyPath
		}
		Redirect(w, r, target)
	})
}

// CurrentUser returns the session of a fully signed-in user, or nil.
func CurrentUser(ctx context.Context) *session.Data {
	sess := SessionFromCtx(ctx)
	if !sess.Authenticated() {
		return nil
	}
	return sess
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// IsHTMX reports whether r was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Redirect navigates the browser to target: via HX-Redirect for htmx
// requests, via 303 See Other otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
