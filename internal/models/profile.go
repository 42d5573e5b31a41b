// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile is the public face of a user. Its ID equals the owning user's ID.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name if set, otherwise the username.
func (p *Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.Username
}

// Initials returns the first two characters of Name, uppercased. Used as the
// avatar fallback.
func (p *Profile) Initials() string {
	runes := []rune(p.Name())
	if len(runes) == 0 {
		return "??"
	}
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// Path returns the public profile location.
func (p *Profile) Path() string {
	return ProfilePath(p.Username)
}

// ProfilePath returns the public location for a username.
func ProfilePath(username string) string {
	return "/@" + username
}
