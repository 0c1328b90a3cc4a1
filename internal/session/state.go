package session

import "github.com/0xlemi/tunechase/internal/pitch"

// State is the orchestrator's position in the practice cycle.
type State int

const (
	Idle State = iota
	PlayingReference
	Listening
	SuccessFeedback
)

func (s State) String() string {
	switch s {
	case PlayingReference:
		return "playing_reference"
	case Listening:
		return "listening"
	case SuccessFeedback:
		return "success_feedback"
	default:
		return "idle"
	}
}

// Session is a snapshot of the orchestrator's session data. Note is nil
// until the first target has been chosen.
type Session struct {
	State    State
	Note     *pitch.Note
	Score    int
	Active   bool
	DeviceID string
}
