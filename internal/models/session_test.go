package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpiry(t *testing.T) {
	var nilSession *Session
	assert.True(t, nilSession.Expiry().IsZero())

	now := time.Unix(1_700_000_000, 0)
	s := &Session{ExpiresAt: now.Unix()}
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))

	assert.False(t, (&Session{}).Expired(now), "unknown expiry never counts as expired")
}
