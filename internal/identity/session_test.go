package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAnonymous(t *testing.T) {
	assert.True(t, IsAnonymous(""))
	assert.True(t, IsAnonymous(Anonymous))
	assert.False(t, IsAnonymous("usr-1"))
}

func TestSession_StartsAnonymous(t *testing.T) {
	s := NewSession()
	assert.Equal(t, Anonymous, s.Current())
}

func TestSession_SetAndClear(t *testing.T) {
	s := NewSession()

	s.Set("usr-1")
	assert.Equal(t, "usr-1", s.Current())

	s.Clear()
	assert.Equal(t, Anonymous, s.Current())
}

func TestSession_EmptyIDBecomesAnonymous(t *testing.T) {
	s := NewSession()
	s.Set("")
	assert.Equal(t, Anonymous, s.Current())
}

func TestSession_NotifiesListeners(t *testing.T) {
	s := NewSession()

	var seen []string
	s.Subscribe(func(userID string) { seen = append(seen, userID) })

	s.Set("usr-1")
	// Redundant sets still notify; listeners absorb them.
	s.Set("usr-1")
	s.Clear()

	assert.Equal(t, []string{"usr-1", "usr-1", Anonymous}, seen)
}

func TestSession_Unsubscribe(t *testing.T) {
	s := NewSession()

	var calls int
	cancel := s.Subscribe(func(string) { calls++ })

	s.Set("usr-1")
	cancel()
	s.Set("usr-2")

	assert.Equal(t, 1, calls)
}
