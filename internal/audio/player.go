package audio

import (
	"math"
	"sync"

	"github.com/0xlemi/tunechase/internal/pitch"
	"github.com/gordonklaus/portaudio"
)

const rampDuration = 0.01 // seconds of fade-in to avoid a click

// TonePlayer plays reference notes as a sine wave on the default output.
type TonePlayer struct {
	mu         sync.Mutex
	stream     *portaudio.Stream
	sampleRate float64
	volume     float64
	osc        *oscillator
}

// NewTonePlayer creates a player. Volume is the peak amplitude in (0, 1].
func NewTonePlayer(sampleRate, volume float64) *TonePlayer {
	if volume <= 0 || volume > 1 {
		volume = 0.3
	}
	return &TonePlayer{sampleRate: sampleRate, volume: volume}
}

// Play starts sounding the note until Stop is called. A note already
// playing is stopped first.
func (p *TonePlayer) Play(note pitch.Note) error {
	if err := p.Stop(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	osc := newOscillator(note.Frequency, p.sampleRate, p.volume)
	stream, err := portaudio.OpenDefaultStream(0, 1, p.sampleRate, 0, osc.fill)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	p.stream = stream
	p.osc = osc
	return nil
}

// Stop silences the current note. It is safe to call when nothing plays.
func (p *TonePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	stopErr := p.stream.Stop()
	closeErr := p.stream.Close()
	p.stream = nil
	p.osc = nil

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// oscillator generates a sine wave with a short linear fade-in.
type oscillator struct {
	phase float64
	step  float64
	amp   float64
	ramp  int
	n     int
}

func newOscillator(freq, sampleRate, amp float64) *oscillator {
	return &oscillator{
		step: 2 * math.Pi * freq / sampleRate,
		amp:  amp,
		ramp: int(rampDuration * sampleRate),
	}
}

func (o *oscillator) fill(out []float32) {
	for i := range out {
		gain := o.amp
		if o.n < o.ramp {
			gain *= float64(o.n) / float64(o.ramp)
			o.n++
		}
		out[i] = float32(gain * math.Sin(o.phase))
		o.phase += o.step
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
}
