package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchNoteExact(t *testing.T) {
	res := MatchNote(440, 440)

	assert.True(t, res.IsMatch)
	assert.Less(t, math.Abs(res.CentsOff), 0.1)
}

func TestMatchNoteWithinTolerance(t *testing.T) {
	res := MatchNote(445, 440)

	assert.True(t, res.IsMatch)
	assert.Greater(t, res.CentsOff, 0.0)
	assert.Equal(t, TooHigh, res.Direction)
}

func TestMatchNoteOutsideTolerance(t *testing.T) {
	res := MatchNote(452, 440)

	assert.False(t, res.IsMatch)
	assert.Greater(t, math.Abs(res.CentsOff), 25.0)
	assert.Equal(t, TooHigh, res.Direction)
}

func TestMatchNoteFlat(t *testing.T) {
	res := MatchNote(415.30, 440)

	assert.False(t, res.IsMatch)
	assert.InDelta(t, -100, res.CentsOff, 0.1)
	assert.Equal(t, TooLow, res.Direction)
}

func TestMatchNoteSemitoneApartNeverMatches(t *testing.T) {
	for _, n := range NoteTable() {
		up := n.Frequency * math.Pow(2, 1.0/12)
		assert.False(t, MatchNote(up, n.Frequency).IsMatch, n.String())
	}
}
