package ui

import (
	"time"

	"github.com/0xlemi/tunechase/internal/pitch"
	"github.com/0xlemi/tunechase/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg represents a timer tick
type TickMsg time.Time

// StateMsg reports a session state change
type StateMsg session.State

// NoteMsg reports a new target note
type NoteMsg pitch.Note

// ScoreMsg reports the current score
type ScoreMsg int

// FrequencyMsg carries a smoothed pitch reading
type FrequencyMsg struct {
	Hz        float64
	Amplitude float64
}

// ProgressMsg reports a reading that did not match the target
type ProgressMsg pitch.MatchResult

// MatchMsg reports a reading that matched the target
type MatchMsg pitch.MatchResult

// NoSignalMsg reports a silent frame and its average level
type NoSignalMsg float64

// MissedMsg reports a note whose listening window expired
type MissedMsg pitch.Note

// ErrMsg carries an error to display
type ErrMsg struct {
	Err error
}

// Observer forwards session events to a bubbletea program.
type Observer struct {
	send func(tea.Msg)
}

// NewObserver creates an observer that delivers messages through send,
// usually (*tea.Program).Send.
func NewObserver(send func(tea.Msg)) Observer {
	return Observer{send: send}
}

func (o Observer) StateChanged(s session.State) { o.send(StateMsg(s)) }
func (o Observer) NoteChanged(n pitch.Note) { o.send(NoteMsg(n)) }
func (o Observer) ScoreChanged(score int) { o.send(ScoreMsg(score)) }
func (o Observer) Matched(r pitch.MatchResult) { o.send(MatchMsg(r)) }
func (o Observer) Progress(r pitch.MatchResult) { o.send(ProgressMsg(r)) }
func (o Observer) NoSignal(amplitude float64) { o.send(NoSignalMsg(amplitude)) }
func (o Observer) Missed(n pitch.Note) { o.send(MissedMsg(n)) }
func (o Observer) SessionFailed(err error) { o.send(ErrMsg{Err: err}) }

func (o Observer) FrequencyUpdated(hz, amplitude float64) {
	o.send(FrequencyMsg{Hz: hz, Amplitude: amplitude})
}
