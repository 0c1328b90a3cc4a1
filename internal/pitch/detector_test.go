package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = 44100.0
	testFFTSize    = 4096
)

// testFrame returns a frame filled with floor and a peak shaped by the
// given neighbour magnitudes.
func testFrame(t *testing.T, floor uint8, peakBin int, prev, peak, next uint8) []uint8 {
	t.Helper()
	frame := make([]uint8, testFFTSize/2)
	for i := range frame {
		frame[i] = floor
	}
	frame[peakBin-1] = prev
	frame[peakBin] = peak
	frame[peakBin+1] = next
	return frame
}

func TestNewFrequencyRange(t *testing.T) {
	r := NewFrequencyRange(testFFTSize, testSampleRate)

	assert.Equal(t, int(math.Floor(80*4096/44100.0)), r.Low)
	assert.Equal(t, int(math.Floor(5000*4096/44100.0)), r.High)
	assert.True(t, r.Fits(testFFTSize/2))
	assert.False(t, FrequencyRange{Low: 4, High: 4}.Fits(10))
	assert.False(t, FrequencyRange{Low: 2, High: 10}.Fits(10))
}

func TestSummarize(t *testing.T) {
	frame := []uint8{10, 20, 30, 40, 50, 40, 30, 20, 10}

	s := Summarize(frame, FrequencyRange{Low: 2, High: 6})

	assert.Equal(t, 38.0, s.Average)
	assert.Equal(t, 4, s.PeakBin)
	assert.Equal(t, uint8(50), s.PeakValue)
}

func TestSummarizeKeepsFirstPeak(t *testing.T) {
	frame := []uint8{0, 9, 3, 9, 0}

	s := Summarize(frame, FrequencyRange{Low: 0, High: 4})

	assert.Equal(t, 1, s.PeakBin)
}

func TestRefineStaysBetweenNeighbours(t *testing.T) {
	cases := []struct {
		name             string
		prev, peak, next uint8
	}{
		{"symmetric", 100, 200, 100},
		{"leaning low", 180, 200, 20},
		{"leaning high", 20, 200, 180},
		{"flat right", 10, 200, 200},
	}

	binHz := testSampleRate / testFFTSize
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := testFrame(t, 10, 41, tc.prev, tc.peak, tc.next)
			r := NewFrequencyRange(testFFTSize, testSampleRate)

			est := Refine(frame, r, Summarize(frame, r), testFFTSize, testSampleRate)

			require.True(t, est.Valid)
			assert.GreaterOrEqual(t, est.FrequencyHz, 40*binHz)
			assert.LessOrEqual(t, est.FrequencyHz, 42*binHz)
		})
	}
}

func TestRefineRejectsRangeEdges(t *testing.T) {
	r := FrequencyRange{Low: 2, High: 6}

	low := []uint8{0, 0, 90, 40, 30, 20, 10, 0}
	est := Refine(low, r, Summarize(low, r), testFFTSize, testSampleRate)
	assert.False(t, est.Valid)
	assert.InDelta(t, 2*testSampleRate/testFFTSize, est.FrequencyHz, 1e-9)

	high := []uint8{0, 0, 10, 20, 30, 40, 90, 0}
	est = Refine(high, r, Summarize(high, r), testFFTSize, testSampleRate)
	assert.False(t, est.Valid)
}

func TestAnalyzeFrameDetected(t *testing.T) {
	d := NewDetector()
	frame := testFrame(t, 10, 41, 150, 200, 120)

	res := d.AnalyzeFrame(frame, testSampleRate, testFFTSize)

	require.Equal(t, Detected, res.Status)
	require.NoError(t, res.Err)
	binHz := testSampleRate / testFFTSize
	assert.Greater(t, res.FrequencyHz, 40*binHz)
	assert.Less(t, res.FrequencyHz, 42*binHz)
	assert.Equal(t, 200.0, res.Amplitude)
	assert.Equal(t, 41, res.Summary.PeakBin)
}

func TestAnalyzeFrameNoiseFloorIsExclusive(t *testing.T) {
	d := NewDetector()
	frame := make([]uint8, testFFTSize/2)
	for i := range frame {
		frame[i] = 5
	}

	res := d.AnalyzeFrame(frame, testSampleRate, testFFTSize)

	assert.Equal(t, NoSignal, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, 5.0, res.Amplitude)
	assert.Zero(t, res.FrequencyHz)
}

func TestAnalyzeFrameEdgePeakIsSkipped(t *testing.T) {
	d := NewDetector()
	r := NewFrequencyRange(testFFTSize, testSampleRate)
	frame := testFrame(t, 10, r.Low+1, 10, 10, 10)
	frame[r.Low] = 250

	res := d.AnalyzeFrame(frame, testSampleRate, testFFTSize)

	assert.Equal(t, NoSignal, res.Status)
	assert.ErrorIs(t, res.Err, ErrInvalidEstimate)
	assert.Zero(t, d.history.Len())
}

func TestAnalyzeFrameRejectsShortFrame(t *testing.T) {
	d := NewDetector()

	res := d.AnalyzeFrame(make([]uint8, 16), testSampleRate, testFFTSize)

	assert.ErrorIs(t, res.Err, ErrInvalidRange)
	assert.Equal(t, NoSignal, res.Status)
}

func TestAnalyzeFrameSmoothsAcrossFrames(t *testing.T) {
	d := NewDetector()
	steady := testFrame(t, 10, 41, 100, 200, 100)
	octave := testFrame(t, 10, 82, 100, 200, 100)

	first := d.AnalyzeFrame(steady, testSampleRate, testFFTSize)
	d.AnalyzeFrame(steady, testSampleRate, testFFTSize)
	jump := d.AnalyzeFrame(octave, testSampleRate, testFFTSize)

	assert.InDelta(t, first.FrequencyHz, jump.FrequencyHz, 1e-9)
}

func TestHistoryMedian(t *testing.T) {
	h := NewHistory(HistorySize)

	assert.Equal(t, 440.0, h.Push(440))
	// Even counts take the upper middle element.
	assert.Equal(t, 445.0, h.Push(445))
	assert.Equal(t, 442.0, h.Push(442))
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(HistorySize)
	for _, f := range []float64{440, 442, 444, 446, 448} {
		h.Push(f)
	}

	median := h.Push(450)

	assert.Equal(t, []float64{442, 444, 446, 448, 450}, h.Values())
	assert.Equal(t, 446.0, median)
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(3)
	h.Push(1)
	h.Push(2)

	h.Reset()

	assert.Zero(t, h.Len())
	assert.Zero(t, h.Median())
}
