// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"

	"inkpress/internal/middleware"
	"inkpress/internal/render"
	"inkpress/internal/session"
	"inkpress/internal/store"
)

// Sign-in messages.
const (
	msgBadCredentials = "Invalid email or password."
	msgUnexpected     = "An unexpected error occurred."
	msgBadCode        = "Invalid code. Please try again."
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions SessionStore
	users    UserStore
	profiles ProfileReader
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions SessionStore, users UserStore, profiles ProfileReader) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		users:    users,
		profiles: profiles,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")

	// Already signed in: go where the user wanted to go.
	if middleware.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, safeNext(next, "/"), http.StatusSeeOther)
		return
	}

	a.renderLogin(w, r, http.StatusOK, next, "", "")
}

// LoginSubmit checks the password and opens a session. Users enrolled in
// 2FA get a half-authenticated session and go on to the code prompt.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	user, err := a.users.FindByEmail(ctx, email)
	if err != nil && !store.IsNotFound(err) {
		slog.Error("login lookup failed", "error", err)
		a.renderLogin(w, r, http.StatusInternalServerError, next, email, msgUnexpected)
		return
	}

	if user == nil || !a.users.CheckPassword(user, password) {
		a.renderLogin(w, r, http.StatusUnauthorized, next, email, msgBadCredentials)
		return
	}

	profile, err := a.profiles.FindByID(ctx, user.ID)
	if err != nil {
		slog.Error("login profile lookup failed", "user_id", user.ID, "error", err)
		a.renderLogin(w, r, http.StatusInternalServerError, next, email, msgUnexpected)
		return
	}

	needs2FA := user.Needs2FAVerify()
	_, err = a.sessions.Create(ctx, w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  profile.Username,
		TwoFADone: !needs2FA,
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("user signed in", "user_id", user.ID, "pending_2fa", needs2FA)

	if needs2FA {
		target := middleware.LoginVerifyPath
		if next = safeNext(next, ""); next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, safeNext(next, "/"), http.StatusSeeOther)
}

// TwoFAVerifyPage renders the TOTP prompt for a half-authenticated session.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if sess.TwoFADone {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Verification",
		Data:  map[string]any{"Next": r.URL.Query().Get("next")},
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	next := r.FormValue("next")

	user, err := a.users.FindByID(ctx, sess.UserID)
	if err != nil {
		slog.Error("user lookup for 2fa failed", "user_id", sess.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !user.Needs2FAVerify() || !totp.Validate(strings.TrimSpace(r.FormValue("code")), *user.TOTPSecret) {
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "2fa_verify", &render.PageData{
			Title: "Two-Factor Verification",
			Data:  map[string]any{"Error": msgBadCode, "Next": next},
		})
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(ctx, r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, safeNext(next, "/"), http.StatusSeeOther)
}

// Logout destroys the session and returns to the home page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Auth) renderLogin(w http.ResponseWriter, r *http.Request, status int, next, email, msg string) {
	data := map[string]any{"Next": next, "Email": email}
	if msg != "" {
		data["Error"] = msg
	}
	a.renderer.PageStatus(w, r, status, "login", &render.PageData{
		Title: "Sign In",
		Data:  data,
	})
}
