package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSlug(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Acme Robots", "acme-robots"},
		{"lowercases", "ACME", "acme"},
		{"strips punctuation", "Acme, Inc. (Robots!)", "acme-inc-robots"},
		{"collapses whitespace", "Acme   \t Robots", "acme-robots"},
		{"collapses hyphen runs", "Acme --- Robots", "acme-robots"},
		{"trims edge hyphens", "-Acme Robots-", "acme-robots"},
		{"keeps digits", "Robots 2 Go", "robots-2-go"},
		{"unicode stripped", "Åcme Röbots", "cme-rbots"},
		{"all stripped falls back", "!!! ???", "startup"},
		{"empty falls back", "", "startup"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BaseSlug(tc.title))
		})
	}
}

func TestSlugSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := SlugSuffix()
		require.Regexp(t, pattern, s)
		seen[s] = true
	}
	// 100 draws from a 36^6 space colliding down to a handful would mean
	// the generator is broken, not unlucky.
	assert.Greater(t, len(seen), 95)
}

func TestNewSlug(t *testing.T) {
	slug := NewSlug("Acme Robots")
	assert.Regexp(t, `^acme-robots-[a-z0-9]{6}$`, slug)

	other := NewSlug("Acme Robots")
	assert.NotEqual(t, slug, other)
}
