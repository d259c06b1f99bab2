package utils

import (
	"crypto/rand"
	"regexp"
	"strings"
)

// SlugSuffixLength is the length of the random collision-breaking suffix.
const SlugSuffixLength = 6

const slugCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s-]+`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// BaseSlug derives the URL-safe base identifier from a title: lowercase,
// strip everything outside [a-z0-9\s-], whitespace runs become single
// hyphens, repeated hyphens collapse, leading/trailing hyphens are trimmed.
func BaseSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		// A title of nothing but stripped characters still needs an address.
		s = "startup"
	}
	return s
}

// SlugSuffix returns a random lowercase alphanumeric string of fixed length.
func SlugSuffix() string {
	buf := make([]byte, SlugSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; keep the signature clean.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = slugCharset[int(b)%len(slugCharset)]
	}
	return string(buf)
}

// NewSlug produces a candidate slug for a title. Uniqueness is ultimately
// enforced by the storage index; the random suffix only keeps collisions rare.
func NewSlug(title string) string {
	return BaseSlug(title) + "-" + SlugSuffix()
}
