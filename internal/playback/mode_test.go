package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMode_NextCycles(t *testing.T) {
	m := ModeOff
	m = m.Next()
	assert.Equal(t, ModeRepeatAll, m)
	m = m.Next()
	assert.Equal(t, ModeRepeatOne, m)
	m = m.Next()
	assert.Equal(t, ModeShuffle, m)
	m = m.Next()
	assert.Equal(t, ModeOff, m)
}

func TestMode_Repeat(t *testing.T) {
	assert.Equal(t, RepeatOff, ModeOff.Repeat())
	assert.Equal(t, RepeatAll, ModeRepeatAll.Repeat())
	assert.Equal(t, RepeatOne, ModeRepeatOne.Repeat())
	assert.Equal(t, RepeatOff, ModeShuffle.Repeat())
}

func TestMode_Shuffle(t *testing.T) {
	assert.True(t, ModeShuffle.Shuffle())
	assert.False(t, ModeOff.Shuffle())
	assert.False(t, ModeRepeatAll.Shuffle())
}

func TestNextSpeed_FullCycle(t *testing.T) {
	speed := 1.0
	var visited []float64
	for range 6 {
		speed = NextSpeed(speed)
		visited = append(visited, speed)
	}
	assert.Equal(t, []float64{1.25, 1.5, 1.75, 2.0, 0.5, 0.75}, visited)

	// The seventh advance lands back at normal speed.
	assert.Equal(t, 1.0, NextSpeed(speed))
}

func TestNextSpeed_ToleratesFloatDrift(t *testing.T) {
	assert.Equal(t, 1.25, NextSpeed(1.0000001))
	assert.Equal(t, 2.0, NextSpeed(1.749))
}

func TestNextSpeed_UnknownResetsToNormal(t *testing.T) {
	assert.Equal(t, 1.0, NextSpeed(3.0))
	assert.Equal(t, 1.0, NextSpeed(0.0))
}
