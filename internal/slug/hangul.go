package slug

import "strings"

// Revised Romanization of Korean, applied jamo by jamo to precomposed
// syllables (U+AC00..U+D7A3). Each syllable encodes
// (initial*21 + medial)*28 + final.
const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	medialCount = 21
	finalCount  = 28
)

var (
	hangulInitials = [...]string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
		"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
	}
	hangulMedials = [...]string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa", "wae",
		"oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	hangulFinals = [...]string{
		"", "g", "kk", "gs", "n", "nj", "nh", "d", "l", "lg", "lm",
		"lb", "ls", "lt", "lp", "lh", "m", "b", "bs", "s", "ss",
		"ng", "j", "ch", "k", "t", "p", "h",
	}
)

// romanizeHangul replaces every precomposed Hangul syllable in s with its
// romanization and leaves all other runes untouched.
// Example: "안녕하세요" → "annyeonghaseyo"
func romanizeHangul(s string) string {
	if !containsHangul(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < hangulBase || r > hangulLast {
			b.WriteRune(r)
			continue
		}
		idx := int(r - hangulBase)
		b.WriteString(hangulInitials[idx/(medialCount*finalCount)])
		b.WriteString(hangulMedials[(idx%(medialCount*finalCount))/finalCount])
		b.WriteString(hangulFinals[idx%finalCount])
	}
	return b.String()
}

func containsHangul(s string) bool {
	for _, r := range s {
		if r >= hangulBase && r <= hangulLast {
			return true
		}
	}
	return false
}
