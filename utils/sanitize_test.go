package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Acme Robots", Sanitize("Acme Robots"))
	assert.Equal(t, "Acme Robots", Sanitize("<b>Acme</b> Robots"))
	assert.Equal(t, "", Sanitize("<script>alert(1)</script>"))
	assert.Equal(t, "", Sanitize(`<img src="x" onerror="alert(1)">`))
}
