// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/session"
	"inkpress/internal/validation"
	"inkpress/internal/workflow"
)

// totpIssuer labels the account in authenticator apps.
const totpIssuer = "Inkpress"

// Settings groups the account settings handlers: the profile form and the
// optional two-factor enrollment.
type Settings struct {
	renderer  *render.Renderer
	sessions  SessionStore
	profiles  ProfileReader
	users     UserStore
	editing   *workflow.ProfileEditing
	pageCache PageCache
}

// NewSettings creates the Settings handler group. pageCache may be nil.
func NewSettings(renderer *render.Renderer, sessions SessionStore, profiles ProfileReader, users UserStore, editing *workflow.ProfileEditing, pageCache PageCache) *Settings {
	return &Settings{
		renderer:  renderer,
		sessions:  sessions,
		profiles:  profiles,
		users:     users,
		editing:   editing,
		pageCache: pageCache,
	}
}

// ProfilePage renders the profile form filled from the stored profile.
func (s *Settings) ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	profile, err := s.profiles.FindByID(r.Context(), user.UserID)
	if err != nil {
		slog.Error("load profile for settings failed", "user_id", user.UserID, "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, "Your profile could not be loaded.")
		return
	}

	s.renderProfile(w, r, http.StatusOK, workflow.ProfileOutcome{Input: profileInput(profile)})
}

// ProfileSubmit runs the profile editing workflow. The update is always
// keyed by the signed-in user, never by a submitted id.
func (s *Settings) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.CurrentUser(ctx)

	out := s.editing.Submit(ctx, workflow.ProfileSubmission{
		ProfileID: user.UserID,
		Input: validation.ProfileInput{
			Username:    r.FormValue("username"),
			DisplayName: r.FormValue("display_name"),
			Bio:         r.FormValue("bio"),
		},
	})

	switch out.State {
	case workflow.StateSucceeded:
		if out.Profile.Username != user.Username {
			s.renameSession(r, user, out.Profile.Username)
		}
		// Names show up on most public pages.
		if s.pageCache != nil {
			s.pageCache.InvalidateAll(ctx)
		}
		s.renderProfile(w, r, http.StatusOK, out)
	case workflow.StateInvalid:
		s.renderProfile(w, r, http.StatusUnprocessableEntity, out)
	case workflow.StateBusy:
		s.renderProfile(w, r, http.StatusConflict, out)
	default:
		s.renderProfile(w, r, http.StatusOK, out)
	}
}

// renameSession keeps the session username in step with the profile so the
// navigation links the new profile address.
func (s *Settings) renameSession(r *http.Request, sess *session.Data, username string) {
	updated := *sess
	updated.Username = username
	if err := s.sessions.Update(r.Context(), r, &updated); err != nil {
		slog.Warn("session rename failed", "user_id", sess.UserID, "error", err)
		return
	}
	*sess = updated
}

func (s *Settings) renderProfile(w http.ResponseWriter, r *http.Request, status int, out workflow.ProfileOutcome) {
	kind := "error"
	if out.State == workflow.StateSucceeded {
		kind = "success"
	}
	s.renderer.PageStatus(w, r, status, "profile_form", &render.PageData{
		Title:   "Profile settings",
		Section: "settings",
		Data: map[string]any{
			"Input":       out.Input,
			"Errors":      out.FieldErrors,
			"Message":     out.Message,
			"MessageType": kind,
		},
	})
}

// TwoFAPage shows the enrollment QR code, or the disable form when 2FA is
// already on. A fresh secret is stored (not yet enabled) on every visit
// until the user confirms a code.
func (s *Settings) TwoFAPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.CurrentUser(ctx)

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		slog.Error("user lookup for 2fa settings failed", "user_id", sess.UserID, "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}

	if user.TOTPEnabled {
		s.renderTwoFA(w, r, http.StatusOK, map[string]any{"Enabled": true})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}

	if err := s.users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "user_id", user.ID, "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}

	s.renderEnroll(w, r, http.StatusOK, user, key.Secret(), "")
}

// TwoFASubmit enables 2FA after the first valid code, or disables it when
// the user proves possession of the current secret.
func (s *Settings) TwoFASubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.CurrentUser(ctx)
	code := strings.TrimSpace(r.FormValue("code"))

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		slog.Error("user lookup for 2fa settings failed", "user_id", sess.UserID, "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/settings/2fa", http.StatusSeeOther)
		return
	}

	valid := totp.Validate(code, *user.TOTPSecret)

	switch r.FormValue("action") {
	case "disable":
		if !valid {
			s.renderTwoFA(w, r, http.StatusUnprocessableEntity, map[string]any{"Enabled": true, "Error": msgBadCode})
			return
		}
		if err := s.users.DisableTOTP(ctx, user.ID); err != nil {
			slog.Error("disable totp failed", "user_id", user.ID, "error", err)
			s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
			return
		}
		slog.Info("2fa disabled", "user_id", user.ID)
		http.Redirect(w, r, "/settings/2fa", http.StatusSeeOther)

	default:
		if user.TOTPEnabled {
			http.Redirect(w, r, "/settings/2fa", http.StatusSeeOther)
			return
		}
		if !valid {
			s.renderEnroll(w, r, http.StatusUnprocessableEntity, user, *user.TOTPSecret, msgBadCode)
			return
		}
		if err := s.users.EnableTOTP(ctx, user.ID); err != nil {
			slog.Error("enable totp failed", "user_id", user.ID, "error", err)
			s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
			return
		}
		slog.Info("2fa enabled", "user_id", user.ID)
		s.renderTwoFA(w, r, http.StatusOK, map[string]any{
			"Enabled": true,
			"Message": "Two-factor authentication is now on.",
		})
	}
}

func (s *Settings) renderEnroll(w http.ResponseWriter, r *http.Request, status int, user *models.User, secret, errMsg string) {
	qr, err := qrDataURL(user.Email, secret)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		s.renderer.Error(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}
	data := map[string]any{"QRCode": qr, "Secret": secret}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	s.renderTwoFA(w, r, status, data)
}

func (s *Settings) renderTwoFA(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	s.renderer.PageStatus(w, r, status, "2fa_setup", &render.PageData{
		Title:   "Two-Factor Authentication",
		Section: "settings",
		Data:    data,
	})
}

// qrDataURL renders the otpauth URL for secret as an inline PNG.
func qrDataURL(account, secret string) (template.URL, error) {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", totpIssuer)
	otpURL := fmt.Sprintf("otpauth://totp/%s:%s?%s", totpIssuer, url.PathEscape(account), v.Encode())

	png, err := qrcode.Encode(otpURL, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

func profileInput(p *models.Profile) validation.ProfileInput {
	in := validation.ProfileInput{Username: p.Username}
	if p.DisplayName != nil {
		in.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		in.Bio = *p.Bio
	}
	return in
}
