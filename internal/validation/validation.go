// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package validation declares the post and profile form schemas and turns
// schema violations into per-field, user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field limits shared by the schemas and the form templates.
const (
	MaxTitleLen       = 200
	MaxExcerptLen     = 500
	MaxTags           = 5
	MinUsernameLen    = 3
	MaxUsernameLen    = 30
	MaxDisplayNameLen = 50
	MaxBioLen         = 500
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PostInput is the post form as submitted by the author.
type PostInput struct {
	Title         string   `form:"title" validate:"required,max=200"`
	Content       string   `form:"content"`
	Excerpt       string   `form:"excerpt" validate:"max=500"`
	CoverImageURL string   `form:"cover_image_url" validate:"omitempty,url"`
	Tags          []string `form:"tags" validate:"max=5"`
}

// Normalize trims surrounding whitespace from the single-line fields.
func (in *PostInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.CoverImageURL = strings.TrimSpace(in.CoverImageURL)
}

// ProfileInput is the profile settings form.
type ProfileInput struct {
	Username    string `form:"username" validate:"required,min=3,max=30,username"`
	DisplayName string `form:"display_name" validate:"max=50"`
	Bio         string `form:"bio" validate:"max=500"`
}

// Normalize trims surrounding whitespace from every field.
func (in *ProfileInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Bio = strings.TrimSpace(in.Bio)
}

// FieldErrors maps a form field name to its first violation message.
type FieldErrors map[string]string

// Error implements error so a FieldErrors value can travel through error
// returns. Fields are listed in name order.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fe[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form names so messages line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("validation: register username rule: %v", err))
	}
	return v
}

// Post normalizes and validates a post form. It returns nil when the input
// is acceptable.
func Post(in *PostInput) FieldErrors {
	in.Normalize()
	return check(in)
}

// Profile normalizes and validates a profile form. It returns nil when the
// input is acceptable.
func Profile(in *ProfileInput) FieldErrors {
	in.Normalize()
	return check(in)
}

func check(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

var labels = map[string]string{
	"title":           "Title",
	"excerpt":         "Excerpt",
	"cover_image_url": "Cover image URL",
	"tags":            "Tags",
	"username":        "Username",
	"display_name":    "Display name",
	"bio":             "Bio",
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At most %s tags are allowed.", fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "url":
		return label + " must be a valid URL."
	case "username":
		return label + " may only contain letters, numbers, underscores and hyphens."
	default:
		return label + " is invalid."
	}
}

// SplitTags parses the comma-separated tags field into trimmed, non-empty
// names.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
