// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// Inkpress. It organizes routes into public, sign-in and authoring groups
// with the appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"inkpress/internal/handlers"
	"inkpress/internal/middleware"
)

// Handlers bundles the handler groups the router dispatches to.
type Handlers struct {
	Public   *handlers.Public
	Write    *handlers.Write
	Settings *handlers.Settings
	Auth     *handlers.Auth
}

// Options carries the router's infrastructure dependencies.
type Options struct {
	Sessions      middleware.SessionLoader
	SecureCookies bool
	// Static is served under /static/. Nil disables it.
	Static fs.FS
	// LoginLimiter throttles password and TOTP attempts. Nil disables it.
	LoginLimiter *middleware.RateLimiter
	// WriteLimiter throttles likes, post and profile submissions. Nil
	// disables it.
	WriteLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and machine-read resources: no session, no CSRF.
	r.Get("/health", healthHandler)
	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(opts.Static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(opts.Sessions))
		r.Get("/sitemap.xml", h.Public.Sitemap)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewCSRF(opts.SecureCookies))

			// Public pages.
			r.Get("/", h.Public.Home)
			r.Get("/posts/{slug}", h.Public.Post)
			r.Get("/tags/{slug}", h.Public.Tag)
			r.Get("/@{username}", h.Public.Profile)

			// Sign-in.
			r.Get(middleware.LoginPath, h.Auth.LoginPage)
			r.Get(middleware.LoginVerifyPath, h.Auth.TwoFAVerifyPage)
			r.Post("/logout", h.Auth.Logout)
			r.Group(func(r chi.Router) {
				use(r, opts.LoginLimiter)
				r.Post(middleware.LoginPath, h.Auth.LoginSubmit)
				r.Post(middleware.LoginVerifyPath, h.Auth.TwoFAVerifySubmit)
			})

			// Signed-in area.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)

				r.Get("/write", h.Write.NewPost)
				r.Get("/write/{id}", h.Write.EditPost)
				r.Get("/settings/profile", h.Settings.ProfilePage)
				r.Get("/settings/2fa", h.Settings.TwoFAPage)

				r.Group(func(r chi.Router) {
					use(r, opts.WriteLimiter)
					r.Post("/posts/{id}/like", h.Public.ToggleLike)
					r.Post("/write", h.Write.CreatePost)
					r.Post("/write/cover", h.Write.UploadCover)
					r.Post("/write/{id}", h.Write.UpdatePost)
					r.Post("/settings/profile", h.Settings.ProfileSubmit)
					r.Post("/settings/2fa", h.Settings.TwoFASubmit)
				})
			})
		})
	})

	// The 404 page shows the navigation, so it needs the session too.
	notFound := middleware.LoadSession(opts.Sessions)(
		middleware.NewCSRF(opts.SecureCookies)(http.HandlerFunc(h.Public.NotFound)),
	)
	r.NotFound(notFound.ServeHTTP)

	return r
}

// use installs rl's middleware on r when rl is set.
func use(r chi.Router, rl *middleware.RateLimiter) {
	if rl != nil {
		r.Use(rl.Middleware)
	}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
