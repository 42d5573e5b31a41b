package models

import "github.com/google/uuid"

// Tag labels posts. Slug is unique and used in /tags/{slug}.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Path returns the tag's listing page.
func (t *Tag) Path() string {
	return TagPath(t.Slug)
}

// TagPath returns the listing page for a tag slug.
func TagPath(slug string) string {
	return "/tags/" + slug
}
