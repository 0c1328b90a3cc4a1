// Package session sequences a practice session: it picks a target note,
// plays it, listens for the user's pitch and keeps score.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/0xlemi/tunechase/internal/pitch"
	"github.com/0xlemi/tunechase/internal/schedule"
)

// Errors
var (
	ErrNoDevice           = errors.New("no input device selected")
	ErrCaptureUnavailable = errors.New("audio capture unavailable")
)

// Analyser is a live magnitude-spectrum source opened for one session.
type Analyser interface {
	// Configure sets the transform size and spectral smoothing constant.
	Configure(fftSize int, smoothing float64) error

	SampleRate() float64
	FFTSize() int

	// ByteFrequencyData fills dst with the current 0-255 magnitude per bin.
	ByteFrequencyData(dst []uint8) error

	// Close releases the capture device.
	Close() error
}

// CaptureOpener opens a spectrum source on the given input device.
type CaptureOpener func(deviceID string) (Analyser, error)

// Player sounds the reference note.
type Player interface {
	Play(note pitch.Note) error
	Stop() error
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for skipped ticks and collaborator errors.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithRand replaces the note picker's random source. intn must return a
// value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(o *Orchestrator) { o.intn = intn }
}

// WithNotes replaces the practice note table.
func WithNotes(notes []pitch.Note) Option {
	return func(o *Orchestrator) { o.notes = append([]pitch.Note(nil), notes...) }
}

// Orchestrator runs the practice state machine. It is not safe for
// concurrent use: every method, and every callback it schedules, must run
// on the scheduler's control thread.
type Orchestrator struct {
	cfg      Config
	open     CaptureOpener
	player   Player
	sched    schedule.Scheduler
	detector *pitch.Detector
	log      *slog.Logger
	intn     func(int) int
	notes    []pitch.Note
	obs      observers

	state    State
	note     *pitch.Note
	score    int
	active   bool
	deviceID string
	analyser Analyser
	frame    []uint8
	playing  bool
	epoch    uint64 // bumped on every state change

	timer   schedule.Task // playback, noise gate or feedback delay
	ticker  schedule.Task // frame acquisition
	timeout schedule.Task // listen window
}

// New creates an idle orchestrator.
func New(cfg Config, open CaptureOpener, player Player, sched schedule.Scheduler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg.withDefaults(),
		open:     open,
		player:   player,
		sched:    sched,
		detector: pitch.NewDetector(),
		log:      slog.Default(),
		intn:     rand.Intn,
		notes:    pitch.NoteTable(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.notes) == 0 {
		o.notes = pitch.NoteTable()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

// Subscribe registers an observer and returns a function that removes it.
func (o *Orchestrator) Subscribe(obs Observer) func() {
	return o.obs.add(obs)
}

// Snapshot returns the current session data.
func (o *Orchestrator) Snapshot() Session {
	s := Session{
		State:    o.state,
		Score:    o.score,
		Active:   o.active,
		DeviceID: o.deviceID,
	}
	if o.note != nil {
		n := *o.note
		s.Note = &n
	}
	return s
}

// StartSession opens capture on deviceID and begins the first note.
// It does nothing if a session is already active. Capture failures end the
// attempt and are returned wrapped in ErrCaptureUnavailable.
func (o *Orchestrator) StartSession(deviceID string) error {
	if o.active {
		return nil
	}
	if deviceID == "" {
		return ErrNoDevice
	}

	o.score = 0

	analyser, err := o.openCapture(deviceID)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		o.log.Error("session aborted", "device", deviceID, "err", err)
		o.state = Idle
		o.emit(func(obs Observer) { obs.SessionFailed(err) })
		o.emitState()
		return err
	}

	o.analyser = analyser
	o.frame = make([]uint8, analyser.FFTSize()/2)
	o.deviceID = deviceID
	o.active = true
	o.state = Idle
	o.detector.Reset()

	o.log.Info("session started", "device", deviceID, "sampleRate", analyser.SampleRate())

	o.epoch++
	e := o.epoch
	o.emitState()
	o.emitScore()
	if !o.current(e) {
		return nil
	}
	o.selectNextNote()
	return nil
}

func (o *Orchestrator) openCapture(deviceID string) (Analyser, error) {
	if o.open == nil {
		return nil, errors.New("no capture opener")
	}
	a, err := o.open(deviceID)
	if err != nil {
		return nil, err
	}
	if err := a.Configure(o.cfg.FFTSize, o.cfg.Smoothing); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("configure analyser: %w", err)
	}
	return a, nil
}

// StopSession releases capture and cancels all pending work. Calling it
// without an active session has no effect.
func (o *Orchestrator) StopSession() {
	if !o.active {
		return
	}

	o.active = false
	o.cancelPending()
	o.stopPlayback()

	if o.analyser != nil {
		if err := o.analyser.Close(); err != nil {
			o.log.Warn("closing capture", "err", err)
		}
		o.analyser = nil
	}

	o.frame = nil
	o.note = nil
	o.deviceID = ""
	o.state = Idle
	o.epoch++

	o.log.Info("session stopped", "score", o.score)
	o.emitState()
}

// SkipCurrentNote moves to a new note without scoring. Only honoured while
// the reference is playing or the orchestrator is listening.
func (o *Orchestrator) SkipCurrentNote() {
	if !o.active || (o.state != Listening && o.state != PlayingReference) {
		return
	}
	o.log.Debug("note skipped", "note", o.noteName())
	o.selectNextNote()
}

// PlayCurrentNoteAgain replays the current target and restarts its cycle.
func (o *Orchestrator) PlayCurrentNoteAgain() {
	if !o.active || o.note == nil {
		return
	}
	o.playReference()
}

// HandleNoteMatch scores the current note. Matches arriving outside the
// listening state are ignored.
func (o *Orchestrator) HandleNoteMatch() {
	if !o.active || o.state != Listening {
		return
	}

	o.cancelPending()
	o.score++
	if !o.setState(SuccessFeedback) {
		return
	}

	e := o.epoch
	o.emitScore()
	if !o.current(e) {
		return
	}

	o.timer = o.sched.AfterFunc(o.cfg.FeedbackDelay, func() {
		o.timer = nil
		o.selectNextNote()
	})
}

func (o *Orchestrator) selectNextNote() {
	if !o.active {
		return
	}
	o.cancelPending()

	n := o.pickNote()
	o.note = &n

	e := o.epoch
	o.emit(func(obs Observer) { obs.NoteChanged(n) })
	if !o.current(e) {
		return
	}

	o.playReference()
}

func (o *Orchestrator) pickNote() pitch.Note {
	count := len(o.notes)
	idx := o.intn(count)
	if o.cfg.AvoidRepeats && o.note != nil && count > 1 && o.notes[idx] == *o.note {
		idx = (idx + 1 + o.intn(count-1)) % count
	}
	return o.notes[idx]
}

func (o *Orchestrator) playReference() {
	if !o.active || o.note == nil {
		return
	}
	o.cancelPending()
	o.stopPlayback()

	note := *o.note
	if !o.setState(PlayingReference) {
		return
	}

	if o.player != nil {
		if err := o.player.Play(note); err != nil {
			o.log.Warn("reference playback failed", "note", note.String(), "err", err)
		} else {
			o.playing = true
		}
	}

	o.timer = o.sched.AfterFunc(o.cfg.NoteDuration, func() {
		o.timer = nil
		o.stopPlayback()
		o.startListening()
	})
}

func (o *Orchestrator) startListening() {
	if !o.active {
		return
	}
	if !o.setState(Listening) {
		return
	}
	o.detector.Reset()

	if o.cfg.NoiseGateDelay > 0 {
		o.timer = o.sched.AfterFunc(o.cfg.NoiseGateDelay, func() {
			o.timer = nil
			o.startTicking()
		})
	} else {
		o.startTicking()
	}

	if o.cfg.ListenTimeout > 0 {
		o.timeout = o.sched.AfterFunc(o.cfg.ListenTimeout, o.listenExpired)
	}
}

func (o *Orchestrator) startTicking() {
	schedule.Cancel(o.ticker)
	o.ticker = o.sched.Every(o.cfg.TickInterval, o.tick)
}

func (o *Orchestrator) listenExpired() {
	o.timeout = nil
	if !o.active || o.state != Listening {
		return
	}
	missed := *o.note
	o.log.Debug("listen window expired", "note", missed.String())

	e := o.epoch
	o.emit(func(obs Observer) { obs.Missed(missed) })
	if !o.current(e) {
		return
	}
	o.selectNextNote()
}

func (o *Orchestrator) tick() {
	if !o.active || o.state != Listening {
		return
	}
	if o.analyser == nil || o.note == nil {
		o.log.Warn("listening without capture or target note")
		return
	}
	target := *o.note

	if err := o.analyser.ByteFrequencyData(o.frame); err != nil {
		o.log.Warn("reading spectrum", "err", err)
		return
	}

	res := o.detector.AnalyzeFrame(o.frame, o.analyser.SampleRate(), o.analyser.FFTSize())
	if res.Err != nil {
		o.log.Debug("frame skipped", "err", res.Err)
		return
	}

	if res.Status == pitch.NoSignal {
		o.emit(func(obs Observer) { obs.NoSignal(res.Amplitude) })
		return
	}

	e := o.epoch
	o.emit(func(obs Observer) { obs.FrequencyUpdated(res.FrequencyHz, res.Amplitude) })
	if !o.current(e) {
		return
	}

	match := pitch.MatchNote(res.FrequencyHz, target.Frequency)
	if !match.IsMatch {
		o.emit(func(obs Observer) { obs.Progress(match) })
		return
	}

	o.emit(func(obs Observer) { obs.Matched(match) })
	if !o.current(e) {
		return
	}
	o.HandleNoteMatch()
}

func (o *Orchestrator) cancelPending() {
	schedule.Cancel(o.timer)
	schedule.Cancel(o.ticker)
	schedule.Cancel(o.timeout)
	o.timer, o.ticker, o.timeout = nil, nil, nil
}

func (o *Orchestrator) stopPlayback() {
	if !o.playing || o.player == nil {
		return
	}
	o.playing = false
	if err := o.player.Stop(); err != nil {
		o.log.Warn("stopping reference", "err", err)
	}
}

// setState enters s and notifies observers. It returns false when an
// observer stopped the session or moved it to another state meanwhile, in
// which case the caller must not continue the transition.
func (o *Orchestrator) setState(s State) bool {
	o.state = s
	o.epoch++
	e := o.epoch
	o.emitState()
	return o.current(e)
}

// current reports whether the session is still active and in the state
// entered at epoch e.
func (o *Orchestrator) current(e uint64) bool {
	return o.active && o.epoch == e
}

func (o *Orchestrator) emitState() {
	s := o.state
	o.emit(func(obs Observer) { obs.StateChanged(s) })
}

func (o *Orchestrator) emitScore() {
	score := o.score
	o.emit(func(obs Observer) { obs.ScoreChanged(score) })
}

func (o *Orchestrator) emit(fn func(Observer)) {
	o.obs.each(fn)
}

func (o *Orchestrator) noteName() string {
	if o.note == nil {
		return ""
	}
	return o.note.String()
}
