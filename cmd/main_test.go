package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/0xlemi/tunechase/internal/audio"
	"github.com/0xlemi/tunechase/internal/schedule"
	"github.com/0xlemi/tunechase/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags(t *testing.T) {
	opts := defaultOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(fs, &opts)

	err := fs.Parse([]string{
		"-d", "USB",
		"--note-duration", "1.5s",
		"--listen-timeout", "8s",
		"--noise-gate", "250ms",
		"--no-repeat",
		"--gain", "4",
	})
	require.NoError(t, err)

	assert.Equal(t, "USB", opts.device)
	assert.Equal(t, 1500*time.Millisecond, opts.session.NoteDuration)
	assert.Equal(t, 8*time.Second, opts.session.ListenTimeout)
	assert.Equal(t, 250*time.Millisecond, opts.session.NoiseGateDelay)
	assert.True(t, opts.session.AvoidRepeats)
	assert.Equal(t, 4.0, opts.gain)
	assert.Equal(t, session.DefaultConfig().TickInterval, opts.session.TickInterval)
}

func TestDefaultOptions(t *testing.T) {
	opts := defaultOptions()

	assert.Equal(t, audio.DefaultDeviceID, opts.device)
	assert.Equal(t, session.DefaultConfig(), opts.session)
}

func TestDevicesTable(t *testing.T) {
	out := devicesTable([]audio.Device{
		{Index: 1, Name: "Built-in Microphone", HostAPI: "Core Audio", Channels: 1, SampleRate: 48000, Default: true},
		{Index: 4, Name: "USB Interface", HostAPI: "Core Audio", Channels: 2, SampleRate: 44100},
	})

	assert.Contains(t, out, "Built-in Microphone")
	assert.Contains(t, out, "USB Interface")
	assert.Contains(t, out, "48000")
	assert.Contains(t, out, "*")
}

func TestControllerRunsOnLoop(t *testing.T) {
	loop := schedule.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	denied := errors.New("denied")
	orch := session.New(session.DefaultConfig(), func(string) (session.Analyser, error) {
		return nil, denied
	}, nil, loop)
	c := &controller{loop: loop, orch: orch, device: "mic"}

	err := c.Start()
	assert.ErrorIs(t, err, session.ErrCaptureUnavailable)
	assert.ErrorIs(t, err, denied)

	assert.NoError(t, c.Skip())
	assert.NoError(t, c.Replay())
	assert.NoError(t, c.Stop())
}

type stubAnalyser struct {
	fftSize int
	closed  int
}

func (a *stubAnalyser) Configure(fftSize int, _ float64) error {
	a.fftSize = fftSize
	return nil
}

func (a *stubAnalyser) SampleRate() float64                 { return 44100 }
func (a *stubAnalyser) FFTSize() int                        { return a.fftSize }
func (a *stubAnalyser) ByteFrequencyData(dst []uint8) error { return nil }

func (a *stubAnalyser) Close() error {
	a.closed++
	return nil
}

func TestServeStopsSessionOnSignal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := schedule.NewLoop()
	analyser := &stubAnalyser{}
	orch := session.New(session.DefaultConfig(), func(string) (session.Analyser, error) {
		return analyser, nil
	}, nil, loop, session.WithLogger(logger))

	ctx, interrupt := context.WithCancel(context.Background())
	defer interrupt()

	runUI := func(ctx context.Context) error {
		if err := loop.Call(func() error { return orch.StartSession("mic") }); err != nil {
			return err
		}
		interrupt()
		<-ctx.Done()
		return tea.ErrProgramKilled
	}

	err := serve(ctx, loop, orch, runUI, logger)

	require.NoError(t, err)
	assert.Equal(t, 1, analyser.closed)
	assert.False(t, orch.Snapshot().Active)
}

func TestServeReturnsUIError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := schedule.NewLoop()
	orch := session.New(session.DefaultConfig(), nil, nil, loop, session.WithLogger(logger))
	broken := errors.New("no tty")

	err := serve(context.Background(), loop, orch, func(context.Context) error { return broken }, logger)

	assert.ErrorIs(t, err, broken)
}
