package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateStoreSingleUse(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	SaveState("state-abc", time.Minute)
	assert.True(t, ConsumeState("state-abc"))
	// Consumed states cannot be replayed.
	assert.False(t, ConsumeState("state-abc"))
	assert.False(t, ConsumeState("never-saved"))
}
