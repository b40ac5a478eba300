package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomShortID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := RandomShortID()
		require.NoError(t, err)
		assert.Len(t, code, ShortIDLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(shortIDAlphabet, r),
				"unexpected character %q in %q", r, code)
		}
		seen[code] = true
	}
	// 200 draws from a 36^6 space colliding down to a handful would
	// mean the sampling is broken.
	assert.Greater(t, len(seen), 190)
}

func TestInviteUsable(t *testing.T) {
	now := time.Now()
	invite := NewInvite("abc123", uuid.New(), now.Add(time.Hour))

	assert.True(t, invite.Usable(now))

	t.Run("expired", func(t *testing.T) {
		assert.False(t, invite.Usable(now.Add(time.Hour)))
		assert.False(t, invite.Usable(now.Add(2*time.Hour)))
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled := NewInvite("abc124", uuid.New(), now.Add(time.Hour))
		cancelled.Cancelled = true
		assert.False(t, cancelled.Usable(now))
	})
}
