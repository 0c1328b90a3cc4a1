package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOscillatorFrequency(t *testing.T) {
	osc := newOscillator(441, testSampleRate, 0.5)
	out := make([]float32, int(testSampleRate))

	// Fill in callback-sized chunks like a real stream.
	for i := 0; i < len(out); i += 512 {
		end := i + 512
		if end > len(out) {
			end = len(out)
		}
		osc.fill(out[i:end])
	}

	crossings := 0
	peak := 0.0
	for i := 1; i < len(out); i++ {
		if out[i-1] < 0 && out[i] >= 0 {
			crossings++
		}
		peak = math.Max(peak, math.Abs(float64(out[i])))
	}

	assert.InDelta(t, 441, crossings, 1)
	assert.LessOrEqual(t, peak, 0.5)
	assert.Greater(t, peak, 0.49)
	assert.Zero(t, out[0])
}

func TestOscillatorFadesIn(t *testing.T) {
	osc := newOscillator(1000, testSampleRate, 1)
	out := make([]float32, osc.ramp*2)

	osc.fill(out)

	early := 0.0
	for _, v := range out[:osc.ramp/10] {
		early = math.Max(early, math.Abs(float64(v)))
	}
	assert.Less(t, early, 0.15)
}

func TestTonePlayerStopWithoutPlay(t *testing.T) {
	p := NewTonePlayer(testSampleRate, 0)

	assert.NoError(t, p.Stop())
	assert.Equal(t, 0.3, p.volume)
}
