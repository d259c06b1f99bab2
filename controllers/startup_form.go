package controllers

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StartupSubmission is the typed record a raw multipart form is decoded into
// before anything is persisted or uploaded. Image bytes stay on the request
// stream; only the declared metadata participates in validation.
type StartupSubmission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Pitch       string `json:"pitch"`

	ImageFilename    string `json:"-"`
	ImageContentType string `json:"-"`
	ImageSize        int64  `json:"-"`
}

// Validate runs every field rule independently and merges the results, so a
// submitter sees all problems at once instead of one per round trip. The
// returned map holds one human-readable message per invalid field; an empty
// map means the submission is well formed. Pure, no side effects.
func (s StartupSubmission) Validate() validation.Errors {
	errs := validation.Errors{}

	if err := validation.Validate(s.Title,
		validation.Required.Error("Title is required"),
		validation.Length(3, 100).Error("Title must be between 3 and 100 characters"),
	); err != nil {
		errs["title"] = err
	}

	if err := validation.Validate(s.Description,
		validation.Required.Error("Description is required"),
		validation.Length(20, 500).Error("Description must be between 20 and 500 characters so others understand your idea"),
	); err != nil {
		errs["description"] = err
	}

	if err := validation.Validate(s.Category,
		validation.Required.Error("Category is required"),
		validation.Length(3, 20).Error("Category must be between 3 and 20 characters"),
	); err != nil {
		errs["category"] = err
	}

	if err := validation.Validate(s.Pitch,
		validation.Required.Error("Pitch is required"),
		validation.Length(10, 0).Error("Pitch must be at least 10 characters. Add a bit more detail."),
	); err != nil {
		errs["pitch"] = err
	}

	if err := s.validateImage(); err != nil {
		errs["image"] = err
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s StartupSubmission) validateImage() error {
	if s.ImageFilename == "" || s.ImageSize <= 0 {
		return validation.NewError("validation_image_required", "Please upload an image file")
	}
	if !strings.HasPrefix(s.ImageContentType, "image/") {
		return validation.NewError("validation_image_type", "File must be an image (PNG, JPG, WEBP, ...)")
	}
	return nil
}
