package audio

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Errors
var (
	ErrNotCapturing     = errors.New("audio capture not started")
	ErrInvalidFFTSize   = errors.New("fft size must be a power of two between 32 and 32768")
	ErrInvalidSmoothing = errors.New("smoothing time constant must be in [0, 1]")
	ErrDeviceNotFound   = errors.New("input device not found")
)

// Spectrum defaults, matching a browser AnalyserNode.
const (
	DefaultFFTSize   = 2048
	DefaultSmoothing = 0.8
	MinDecibels      = -100.0
	MaxDecibels      = -30.0
)

// Spectrum turns a stream of samples into byte magnitude frames. It keeps
// the last FFT-size samples and, on request, applies a Blackman window, a
// real FFT, exponential smoothing across frames and dB scaling between
// MinDecibels and MaxDecibels into 0-255.
type Spectrum struct {
	mu         sync.Mutex
	sampleRate float64
	fftSize    int
	smoothing  float64
	samples    []float64 // ring of the most recent fftSize samples
	pos        int
	window     []float64
	smoothed   []float64
}

// NewSpectrum creates a spectrum with the default FFT size and smoothing.
func NewSpectrum(sampleRate float64) *Spectrum {
	s := &Spectrum{sampleRate: sampleRate, smoothing: DefaultSmoothing}
	s.resize(DefaultFFTSize)
	return s
}

// Configure sets the transform size and smoothing time constant. Changing
// the size discards buffered samples.
func (s *Spectrum) Configure(fftSize int, smoothing float64) error {
	if fftSize < 32 || fftSize > 32768 || fftSize&(fftSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFFTSize, fftSize)
	}
	if smoothing < 0 || smoothing > 1 || math.IsNaN(smoothing) {
		return fmt.Errorf("%w: %v", ErrInvalidSmoothing, smoothing)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fftSize != s.fftSize {
		s.resize(fftSize)
	}
	s.smoothing = smoothing
	return nil
}

func (s *Spectrum) resize(fftSize int) {
	s.fftSize = fftSize
	s.samples = make([]float64, fftSize)
	s.pos = 0
	s.window = window.Blackman(fftSize)
	s.smoothed = make([]float64, fftSize/2)
}

// SampleRate returns the sampling rate of the incoming stream.
func (s *Spectrum) SampleRate() float64 {
	return s.sampleRate
}

// FFTSize returns the current transform size.
func (s *Spectrum) FFTSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fftSize
}

// Write appends samples to the analysis window.
func (s *Spectrum) Write(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range samples {
		s.samples[s.pos] = float64(v)
		s.pos = (s.pos + 1) % s.fftSize
	}
}

// ByteFrequencyData fills dst with the current magnitude of each bin. At
// most FFTSize/2 entries are written.
func (s *Spectrum) ByteFrequencyData(dst []uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.fftSize
	windowed := make([]float64, n)
	for i := range windowed {
		// Oldest sample first
		windowed[i] = s.samples[(s.pos+i)%n] * s.window[i]
	}

	spectrum := fft.FFTReal(windowed)

	scale := 255 / (MaxDecibels - MinDecibels)
	for k := 0; k < n/2 && k < len(dst); k++ {
		magnitude := cmplx.Abs(spectrum[k]) / float64(n)
		s.smoothed[k] = s.smoothing*s.smoothed[k] + (1-s.smoothing)*magnitude

		if s.smoothed[k] <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(s.smoothed[k])
		v := math.Floor(scale * (db - MinDecibels))
		switch {
		case v < 0:
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
	return nil
}

// Reset clears buffered samples and smoothing state.
func (s *Spectrum) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(s.fftSize)
}
