package utils

import "github.com/microcosm-cc/bluemonday"

// Plain-text fields (title, description, category) must carry no markup at
// all; the pitch body is stored as raw markdown and rendered elsewhere.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips all HTML from user supplied plain-text input.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
