package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"ada@example.com",
		"ada.lovelace@sub.example.co.uk",
		"ada+tag@example.io",
		"a_b-c@example.org",
	}
	for _, email := range valid {
		assert.True(t, ValidEmail(email), "expected %q to be valid", email)
	}

	invalid := []string{
		"",
		"ada",
		"ada@",
		"@example.com",
		"ada example@example.com",
		"ada@-example.com",
		"ada@example..com",
	}
	for _, email := range invalid {
		assert.False(t, ValidEmail(email), "expected %q to be invalid", email)
	}
}
