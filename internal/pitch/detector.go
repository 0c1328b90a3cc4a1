package pitch

import (
	"errors"
	"math"
	"sort"
)

// Analysis settings
const (
	// FFTSize is the transform length the spectrum source must be configured with.
	FFTSize = 4096

	// SmoothingTimeConstant is the spectral averaging the source should apply
	// between frames. Lower than the usual 0.8 so note changes are not blurred.
	SmoothingTimeConstant = 0.2

	MinFrequency = 80.0   // Lowest frequency considered (Hz)
	MaxFrequency = 5000.0 // Highest frequency considered (Hz)

	// NoiseFloor is the average byte magnitude a frame must exceed to be analysed.
	NoiseFloor = 5.0

	// HistorySize is how many refined estimates feed the median.
	HistorySize = 5
)

// Errors
var (
	ErrInvalidEstimate = errors.New("peak could not be interpolated")
	ErrInvalidRange    = errors.New("frequency range does not fit frame")
)

// Status is the per-frame detection outcome.
type Status int

const (
	NoSignal Status = iota
	Detected
)

func (s Status) String() string {
	switch s {
	case Detected:
		return "detected"
	default:
		return "no signal"
	}
}

// FrequencyRange is the inclusive band of FFT bins that is analysed.
type FrequencyRange struct {
	Low  int
	High int
}

// NewFrequencyRange computes the 80 Hz - 5 kHz bin range for a transform.
func NewFrequencyRange(fftSize int, sampleRate float64) FrequencyRange {
	return FrequencyRange{
		Low:  int(math.Floor(MinFrequency * float64(fftSize) / sampleRate)),
		High: int(math.Floor(MaxFrequency * float64(fftSize) / sampleRate)),
	}
}

// Fits reports whether the range can be applied to a frame of n bins.
func (r FrequencyRange) Fits(n int) bool {
	return r.Low >= 0 && r.Low < r.High && r.High < n
}

// AmplitudeSummary describes the magnitudes inside a FrequencyRange.
type AmplitudeSummary struct {
	Average   float64
	PeakBin   int
	PeakValue uint8
}

// Summarize computes the average magnitude and the first highest bin in r.
func Summarize(frame []uint8, r FrequencyRange) AmplitudeSummary {
	sum := 0
	peakBin := r.Low
	peakValue := frame[r.Low]

	for i := r.Low; i <= r.High; i++ {
		sum += int(frame[i])
		if frame[i] > peakValue {
			peakValue = frame[i]
			peakBin = i
		}
	}

	return AmplitudeSummary{
		Average:   float64(sum) / float64(r.High-r.Low+1),
		PeakBin:   peakBin,
		PeakValue: peakValue,
	}
}

// Estimate is a refined peak frequency. FrequencyHz holds the coarse bin
// frequency when Valid is false.
type Estimate struct {
	Valid       bool
	FrequencyHz float64
}

// Refine locates the peak between bins with quadratic interpolation
// x = 0.5 * (R[k-1] - R[k+1]) / (R[k-1] - 2*R[k] + R[k+1]) + k
// on linear byte magnitudes. A peak on the range edge is not refined.
func Refine(frame []uint8, r FrequencyRange, s AmplitudeSummary, fftSize int, sampleRate float64) Estimate {
	binSizeHz := sampleRate / float64(fftSize)
	est := Estimate{FrequencyHz: float64(s.PeakBin) * binSizeHz}

	if s.PeakBin <= r.Low || s.PeakBin >= r.High {
		return est
	}

	prev := float64(frame[s.PeakBin-1])
	current := float64(s.PeakValue)
	next := float64(frame[s.PeakBin+1])

	delta := 0.5 * (prev - next) / (prev - 2*current + next)
	freq := (float64(s.PeakBin) + delta) * binSizeHz

	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return est
	}

	return Estimate{Valid: true, FrequencyHz: freq}
}

// History keeps the most recent refined frequencies for median smoothing.
type History struct {
	values []float64
	size   int
}

// NewHistory creates a history holding at most size values.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{values: make([]float64, 0, size), size: size}
}

// Push records f, evicting the oldest value when full, and returns the median.
func (h *History) Push(f float64) float64 {
	if len(h.values) >= h.size {
		h.values = append(h.values[:0], h.values[1:]...)
	}
	h.values = append(h.values, f)
	return h.Median()
}

// Median returns the element at len/2 of the sorted values, so an even
// count yields the upper of the two middle values. Zero when empty.
func (h *History) Median() float64 {
	if len(h.values) == 0 {
		return 0
	}
	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return len(h.values)
}

// Values returns the stored values, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// Reset drops every stored value.
func (h *History) Reset() {
	h.values = h.values[:0]
}

// Result is the outcome of analysing one frame.
//
// Amplitude is the average magnitude for NoSignal frames and the peak
// magnitude for Detected frames. Err carries ErrInvalidEstimate or
// ErrInvalidRange when a frame passed the noise gate but was skipped.
type Result struct {
	Status      Status
	FrequencyHz float64
	Amplitude   float64
	Summary     AmplitudeSummary
	Err         error
}

// Detector turns magnitude spectra into smoothed pitch estimates.
type Detector struct {
	history *History
}

// NewDetector creates a detector with an empty history.
func NewDetector() *Detector {
	return &Detector{history: NewHistory(HistorySize)}
}

// AnalyzeFrame estimates the fundamental frequency in one magnitude frame.
func (d *Detector) AnalyzeFrame(frame []uint8, sampleRate float64, fftSize int) Result {
	if sampleRate <= 0 || fftSize <= 0 {
		return Result{Status: NoSignal, Err: ErrInvalidRange}
	}

	r := NewFrequencyRange(fftSize, sampleRate)
	if !r.Fits(len(frame)) {
		return Result{Status: NoSignal, Err: ErrInvalidRange}
	}

	summary := Summarize(frame, r)
	if summary.Average <= NoiseFloor {
		return Result{Status: NoSignal, Amplitude: summary.Average, Summary: summary}
	}

	est := Refine(frame, r, summary, fftSize, sampleRate)
	if !est.Valid {
		return Result{
			Status:    NoSignal,
			Amplitude: float64(summary.PeakValue),
			Summary:   summary,
			Err:       ErrInvalidEstimate,
		}
	}

	return Result{
		Status:      Detected,
		FrequencyHz: d.history.Push(est.FrequencyHz),
		Amplitude:   float64(summary.PeakValue),
		Summary:     summary,
	}
}

// Reset clears the smoothing history.
func (d *Detector) Reset() {
	d.history.Reset()
}
