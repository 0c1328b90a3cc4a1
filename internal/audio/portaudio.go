package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Initialize sets up PortAudio. It must be called once before any capture
// or playback, and paired with Terminate.
func Initialize() error {
	return portaudio.Initialize()
}

// Terminate releases PortAudio.
func Terminate() error {
	return portaudio.Terminate()
}

// PortAudioCapturer captures a mono input stream from one device and
// exposes it as a magnitude spectrum.
type PortAudioCapturer struct {
	mu              sync.Mutex
	isCapturing     bool
	stream          *portaudio.Stream
	device          *portaudio.DeviceInfo
	spectrum        *Spectrum
	framesPerBuffer int
	amplification   float32 // Audio signal amplification factor
}

// NewPortAudioCapturer creates a capturer for the given input device. The
// stream runs at the device's default sample rate.
func NewPortAudioCapturer(device *portaudio.DeviceInfo, framesPerBuffer int) *PortAudioCapturer {
	return &PortAudioCapturer{
		device:          device,
		spectrum:        NewSpectrum(device.DefaultSampleRate),
		framesPerBuffer: framesPerBuffer,
		amplification:   1.0,
	}
}

// OpenCapture finds the device matching deviceID and starts capturing.
func OpenCapture(deviceID string, framesPerBuffer int, gain float32) (*PortAudioCapturer, error) {
	device, err := FindInputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	c := NewPortAudioCapturer(device, framesPerBuffer)
	c.SetAmplification(gain)
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("open %q: %w", device.Name, err)
	}
	return c, nil
}

// Start begins audio capture
func (c *PortAudioCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isCapturing {
		return nil
	}

	params := portaudio.LowLatencyParameters(c.device, nil)
	params.Input.Channels = 1
	params.SampleRate = c.device.DefaultSampleRate
	params.FramesPerBuffer = c.framesPerBuffer

	stream, err := portaudio.OpenStream(params, c.processAudio)
	if err != nil {
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	c.stream = stream
	c.isCapturing = true
	return nil
}

// Close stops and closes the stream. Closing an idle capturer is a no-op.
func (c *PortAudioCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isCapturing {
		return nil
	}
	c.isCapturing = false

	stopErr := c.stream.Stop()
	closeErr := c.stream.Close()
	c.stream = nil
	c.spectrum.Reset()

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// processAudio is the callback function for audio processing
func (c *PortAudioCapturer) processAudio(in []float32) {
	c.mu.Lock()
	gain := c.amplification
	c.mu.Unlock()

	if gain == 1 {
		c.spectrum.Write(in)
		return
	}

	amplified := make([]float32, len(in))
	for i, sample := range in {
		amplified[i] = sample * gain
	}
	c.spectrum.Write(amplified)
}

// Configure sets the analysis FFT size and smoothing.
func (c *PortAudioCapturer) Configure(fftSize int, smoothing float64) error {
	return c.spectrum.Configure(fftSize, smoothing)
}

// SampleRate returns the stream's sampling rate.
func (c *PortAudioCapturer) SampleRate() float64 {
	return c.spectrum.SampleRate()
}

// FFTSize returns the analysis FFT size.
func (c *PortAudioCapturer) FFTSize() int {
	return c.spectrum.FFTSize()
}

// ByteFrequencyData fills dst with the current spectrum.
func (c *PortAudioCapturer) ByteFrequencyData(dst []uint8) error {
	if !c.IsCapturing() {
		return ErrNotCapturing
	}
	return c.spectrum.ByteFrequencyData(dst)
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}

	c.amplification = factor
}
