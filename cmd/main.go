package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xlemi/tunechase/internal/audio"
	"github.com/0xlemi/tunechase/internal/schedule"
	"github.com/0xlemi/tunechase/internal/session"
	"github.com/0xlemi/tunechase/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	// Audio settings
	playbackSampleRate = 44100
	framesPerBuffer    = 1024
)

type options struct {
	device          string
	gain            float64
	volume          float64
	framesPerBuffer int
	logFile         string
	debug           bool
	session         session.Config
}

func defaultOptions() options {
	return options{
		device:          audio.DefaultDeviceID,
		gain:            1.0,
		volume:          0.3,
		framesPerBuffer: framesPerBuffer,
		session:         session.DefaultConfig(),
	}
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVarP(&o.device, "device", "d", o.device, `input device: "default", an index or a name (see "devices")`)
	fs.Float64Var(&o.gain, "gain", o.gain, "input amplification factor")
	fs.Float64Var(&o.volume, "volume", o.volume, "reference tone volume (0-1]")
	fs.IntVar(&o.framesPerBuffer, "frames-per-buffer", o.framesPerBuffer, "capture callback size in frames")
	fs.StringVar(&o.logFile, "log-file", "", "write logs to this file")
	fs.BoolVar(&o.debug, "debug", false, "log debug messages")

	fs.DurationVar(&o.session.NoteDuration, "note-duration", o.session.NoteDuration, "how long the reference note plays")
	fs.DurationVar(&o.session.TickInterval, "tick", o.session.TickInterval, "pitch analysis period while listening")
	fs.DurationVar(&o.session.FeedbackDelay, "feedback-delay", o.session.FeedbackDelay, "pause after a correct note")
	fs.DurationVar(&o.session.NoiseGateDelay, "noise-gate", o.session.NoiseGateDelay, "wait after the reference before listening")
	fs.DurationVar(&o.session.ListenTimeout, "listen-timeout", o.session.ListenTimeout, "move on after this long without a match (0 = never)")
	fs.IntVar(&o.session.FFTSize, "fft-size", o.session.FFTSize, "analysis FFT size")
	fs.Float64Var(&o.session.Smoothing, "smoothing", o.session.Smoothing, "spectral smoothing time constant [0, 1)")
	fs.BoolVar(&o.session.AvoidRepeats, "no-repeat", o.session.AvoidRepeats, "never pick the same note twice in a row")
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:          "tunechase",
		Short:        "Ear trainer: sing or play back the reference note",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	bindFlags(cmd.Flags(), &opts)
	cmd.AddCommand(newDevicesCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setupLogging routes logs to a file, since the UI owns the terminal.
func setupLogging(path string, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if path == "" {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		slog.SetDefault(logger)
		return logger, func() {}, nil
	}

	f, err := tea.LogToFile(path, "tunechase")
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)
	return logger, func() { f.Close() }, nil
}

// controller runs UI actions on the session's control loop.
type controller struct {
	loop   *schedule.Loop
	orch   *session.Orchestrator
	device string
}

func (c *controller) Start() error {
	return c.loop.Call(func() error { return c.orch.StartSession(c.device) })
}

func (c *controller) Stop() error {
	return c.loop.Call(func() error {
		c.orch.StopSession()
		return nil
	})
}

func (c *controller) Skip() error {
	return c.loop.Call(func() error {
		c.orch.SkipCurrentNote()
		return nil
	})
}

func (c *controller) Replay() error {
	return c.loop.Call(func() error {
		c.orch.PlayCurrentNoteAgain()
		return nil
	})
}

func run(ctx context.Context, opts options) error {
	logger, closeLog, err := setupLogging(opts.logFile, opts.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := audio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer audio.Terminate()

	loop := schedule.NewLoop()
	player := audio.NewTonePlayer(playbackSampleRate, opts.volume)
	open := func(deviceID string) (session.Analyser, error) {
		c, err := audio.OpenCapture(deviceID, opts.framesPerBuffer, float32(opts.gain))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	orch := session.New(opts.session, open, player, loop, session.WithLogger(logger))
	ctrl := &controller{loop: loop, orch: orch, device: opts.device}

	runUI := func(ctx context.Context) error {
		p := tea.NewProgram(ui.NewModel(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
		if err := loop.Call(func() error {
			orch.Subscribe(ui.NewObserver(p.Send))
			return nil
		}); err != nil {
			return err
		}
		_, err := p.Run()
		return err
	}

	return serve(ctx, loop, orch, runUI, logger)
}

// serve runs the control loop and the UI until the UI exits or ctx is
// cancelled. The loop outlives the UI so the session can still be stopped,
// releasing the microphone and any playing tone.
func serve(ctx context.Context, loop *schedule.Loop, orch *session.Orchestrator, runUI func(context.Context) error, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	// Not derived from gctx: a signal must not stop the loop before the
	// session is stopped on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g.Go(func() error {
		err := loop.Run(loopCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		defer stopLoop()

		err := runUI(gctx)

		if stopErr := loop.Call(func() error {
			orch.StopSession()
			return nil
		}); stopErr != nil {
			logger.Warn("stopping session", "err", stopErr)
		}

		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}
