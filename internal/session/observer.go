package session

import "github.com/0xlemi/tunechase/internal/pitch"

// Observer receives session events. All methods are called on the control
// thread and must not block on it.
type Observer interface {
	StateChanged(State)
	NoteChanged(note pitch.Note)
	ScoreChanged(score int)

	// FrequencyUpdated reports every smoothed estimate and its peak magnitude.
	FrequencyUpdated(hz float64, amplitude float64)
	Matched(pitch.MatchResult)
	Progress(pitch.MatchResult)
	NoSignal(amplitude float64)

	// Missed is emitted when the listening window expires without a match.
	Missed(note pitch.Note)

	// SessionFailed reports an error that ended the session.
	SessionFailed(err error)
}

// Funcs adapts optional functions to Observer. Nil fields are ignored.
type Funcs struct {
	OnStateChange     func(State)
	OnNoteChange      func(pitch.Note)
	OnScoreChange     func(int)
	OnFrequencyUpdate func(float64, float64)
	OnMatch           func(pitch.MatchResult)
	OnProgress        func(pitch.MatchResult)
	OnNoSignal        func(float64)
	OnMiss            func(pitch.Note)
	OnFailure         func(error)
}

func (f Funcs) StateChanged(s State) {
	if f.OnStateChange != nil {
		f.OnStateChange(s)
	}
}

func (f Funcs) NoteChanged(n pitch.Note) {
	if f.OnNoteChange != nil {
		f.OnNoteChange(n)
	}
}

func (f Funcs) ScoreChanged(score int) {
	if f.OnScoreChange != nil {
		f.OnScoreChange(score)
	}
}

func (f Funcs) FrequencyUpdated(hz, amplitude float64) {
	if f.OnFrequencyUpdate != nil {
		f.OnFrequencyUpdate(hz, amplitude)
	}
}

func (f Funcs) Matched(r pitch.MatchResult) {
	if f.OnMatch != nil {
		f.OnMatch(r)
	}
}

func (f Funcs) Progress(r pitch.MatchResult) {
	if f.OnProgress != nil {
		f.OnProgress(r)
	}
}

func (f Funcs) NoSignal(amplitude float64) {
	if f.OnNoSignal != nil {
		f.OnNoSignal(amplitude)
	}
}

func (f Funcs) Missed(n pitch.Note) {
	if f.OnMiss != nil {
		f.OnMiss(n)
	}
}

func (f Funcs) SessionFailed(err error) {
	if f.OnFailure != nil {
		f.OnFailure(err)
	}
}

// observers is an ordered subscriber list.
type observers struct {
	next int
	subs []subscriber
}

type subscriber struct {
	id  int
	obs Observer
}

func (o *observers) add(obs Observer) func() {
	o.next++
	id := o.next
	o.subs = append(o.subs, subscriber{id: id, obs: obs})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) each(fn func(Observer)) {
	// Copy so a callback may unsubscribe.
	subs := append([]subscriber(nil), o.subs...)
	for _, s := range subs {
		fn(s.obs)
	}
}
