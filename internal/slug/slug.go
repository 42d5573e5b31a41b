// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// Generate derives the readable part of a slug; a Generator appends the
// base-36 millisecond suffix that makes post slugs unique.
package slug

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rainycape/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented Latin letters and drops the combining marks,
// so "Café" becomes "Cafe".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
//
// Hangul is romanized, accented Latin letters lose their marks and other
// scripts are transliterated to ASCII. Whitespace, hyphens and underscores
// separate words; every other character outside [a-z0-9] is dropped. The
// result is empty when nothing transliterable remains.
func Generate(s string) string {
	result := romanizeHangul(s)
	if stripped, _, err := transform.String(stripMarks, result); err == nil {
		result = stripped
	}
	result = strings.ToLower(unidecode.Unidecode(result))

	words := strings.FieldsFunc(result, isSeparator)
	parts := words[:0]
	for _, w := range words {
		w = strings.Map(keepAlphanumeric, w)
		if w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, "-")
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_'
}

func keepAlphanumeric(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return r
	}
	return -1
}

// Generator produces unique post slugs by appending a base-36 millisecond
// timestamp to the generated base. Suffixes from one Generator strictly
// increase, even when called twice within the same millisecond.
type Generator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// New returns a Generator backed by the wall clock.
func New() *Generator {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Generator reading time from now. Tests use it to pin
// the suffix.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Suffix returns the next base-36 timestamp token.
func (g *Generator) Suffix() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 36)
}

// Make returns the slug for title: the generated base joined to a fresh
// suffix, or the suffix alone when the title has no transliterable text.
// Example: "!!!" → "lz3k2p1"
func (g *Generator) Make(title string) string {
	base := Generate(title)
	suffix := g.Suffix()
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

var std = New()

// Make builds a unique slug for title using the process-wide Generator.
func Make(title string) string {
	return std.Make(title)
}
