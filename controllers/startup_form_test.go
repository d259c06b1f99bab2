package controllers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() StartupSubmission {
	return StartupSubmission{
		Title:            "Acme Robots",
		Description:      "Autonomous delivery robots for dense urban neighborhoods.",
		Category:         "robotics",
		Pitch:            "We build small sidewalk robots that cut last-mile delivery cost by 70%.",
		ImageFilename:    "logo.png",
		ImageContentType: "image/png",
		ImageSize:        2048,
	}
}

func TestStartupSubmissionValidate_Valid(t *testing.T) {
	errs := validSubmission().Validate()
	assert.Nil(t, errs)
}

func TestStartupSubmissionValidate_ReportsEveryInvalidField(t *testing.T) {
	s := StartupSubmission{
		Title:            "ab",                // too short
		Description:      "too short to pass", // under 20
		Category:         "robotics",
		Pitch:            "tiny",
		ImageFilename:    "notes.txt",
		ImageContentType: "text/plain",
		ImageSize:        10,
	}

	errs := s.Validate()
	require.Len(t, errs, 4)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "pitch")
	assert.Contains(t, errs, "image")
	assert.NotContains(t, errs, "category")
}

func TestStartupSubmissionValidate_RequiredFields(t *testing.T) {
	errs := StartupSubmission{}.Validate()
	require.Len(t, errs, 5)
	for _, field := range []string{"title", "description", "category", "pitch", "image"} {
		assert.Contains(t, errs, field)
	}
}

func TestStartupSubmissionValidate_Bounds(t *testing.T) {
	s := validSubmission()
	s.Title = strings.Repeat("x", 101)
	errs := s.Validate()
	require.Contains(t, errs, "title")
	assert.Contains(t, errs["title"].Error(), "between 3 and 100")

	s = validSubmission()
	s.Description = strings.Repeat("d", 501)
	errs = s.Validate()
	require.Contains(t, errs, "description")

	s = validSubmission()
	s.Category = "ai"
	errs = s.Validate()
	require.Contains(t, errs, "category")

	s = validSubmission()
	s.Pitch = "123456789"
	errs = s.Validate()
	require.Contains(t, errs, "pitch")

	s = validSubmission()
	s.Pitch = "1234567890"
	assert.Nil(t, s.Validate())
}

func TestStartupSubmissionValidate_Image(t *testing.T) {
	s := validSubmission()
	s.ImageSize = 0
	errs := s.Validate()
	require.Contains(t, errs, "image")
	assert.Contains(t, errs["image"].Error(), "upload an image")

	s = validSubmission()
	s.ImageContentType = "application/pdf"
	errs = s.Validate()
	require.Contains(t, errs, "image")
	assert.Contains(t, errs["image"].Error(), "must be an image")

	s = validSubmission()
	s.ImageContentType = "image/webp"
	assert.Nil(t, s.Validate())
}
