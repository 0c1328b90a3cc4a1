package session

import (
	"time"

	"github.com/0xlemi/tunechase/internal/pitch"
)

// Config holds the session timings and analysis settings.
type Config struct {
	NoteDuration   time.Duration // How long the reference note plays
	TickInterval   time.Duration // Period of frame acquisition while listening
	FeedbackDelay  time.Duration // Pause after a match before the next note
	NoiseGateDelay time.Duration // Wait after playback before the first tick
	ListenTimeout  time.Duration // Give up on a note after this long; 0 disables
	FFTSize        int
	Smoothing      float64
	AvoidRepeats   bool // Never pick the same note twice in a row
}

// DefaultConfig returns the standard practice settings.
func DefaultConfig() Config {
	return Config{
		NoteDuration:   1000 * time.Millisecond,
		TickInterval:   100 * time.Millisecond,
		FeedbackDelay:  1000 * time.Millisecond,
		NoiseGateDelay: 0,
		ListenTimeout:  0,
		FFTSize:        pitch.FFTSize,
		Smoothing:      pitch.SmoothingTimeConstant,
		AvoidRepeats:   false,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.NoteDuration <= 0 {
		c.NoteDuration = def.NoteDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.FeedbackDelay < 0 {
		c.FeedbackDelay = def.FeedbackDelay
	}
	if c.NoiseGateDelay < 0 {
		c.NoiseGateDelay = 0
	}
	if c.ListenTimeout < 0 {
		c.ListenTimeout = 0
	}
	if c.FFTSize <= 0 {
		c.FFTSize = def.FFTSize
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		c.Smoothing = def.Smoothing
	}
	return c
}
