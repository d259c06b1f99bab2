package models

import "errors"

// Sentinel errors for the submission and read pipelines. Controllers match on
// these to pick the response variant; everything else is an upstream failure.
var (
	ErrInvalidEmail = errors.New("invalid email address")

	// Identity resolution
	ErrAuthorNotFound = errors.New("author not found")
	ErrAuthorLookup   = errors.New("author lookup failed")

	// Post store
	ErrStartupNotFound = errors.New("startup not found")
	ErrDuplicateSlug   = errors.New("slug already taken")
	ErrSlugExhausted   = errors.New("slug allocation attempts exhausted")
	ErrWriteFailed     = errors.New("startup write failed")

	// Media upload
	ErrUploadFailed = errors.New("media upload failed")

	// View counter saturation. Practically unreachable, but the counter must
	// never wrap silently.
	ErrViewsSaturated = errors.New("view counter at numeric bound")
)
