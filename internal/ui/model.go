package ui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/0xlemi/tunechase/internal/pitch"
	"github.com/0xlemi/tunechase/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Constants for UI behavior
const (
	// How long a frequency reading stays on screen without a new one
	readingDisplayDuration = time.Second

	tickInterval = 100 * time.Millisecond

	meterWidth      = 41
	meterRangeCents = 50.0
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00CC00"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CC0000"))

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Returns a style for a natural note
func getNoteStyle(noteName string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(2, 4).
		MarginBottom(1)
}

// Get the next note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	case "B":
		return "C"
	default:
		return "C"
	}
}

// renderNote draws the target note; sharps are split between the colours
// of their two neighbouring naturals.
func renderNote(note pitch.Note) string {
	if !strings.HasSuffix(note.Name, "#") {
		return getNoteStyle(note.Name).Render(note.String())
	}

	baseNote := string(note.Name[0])
	nextNote := getNextNote(baseNote)

	half := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color(color)).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			BorderTop(true).
			BorderBottom(true).
			PaddingTop(2).
			PaddingBottom(2)
	}

	leftStyle := half(noteColors[baseNote]).
		BorderLeft(true).
		BorderRight(false).
		PaddingLeft(2).
		PaddingRight(1)

	rightStyle := half(noteColors[nextNote]).
		BorderLeft(false).
		BorderRight(true).
		PaddingLeft(1).
		PaddingRight(2)

	return leftStyle.Render(baseNote) + rightStyle.Render(fmt.Sprintf("#%d", note.Octave))
}

// meterColor grades how close a reading is to the target.
func meterColor(cents float64) string {
	switch c := math.Abs(cents); {
	case c < 5:
		return "#00CC00" // Very close - green
	case c < 15:
		return "#66CC00" // Close - yellow-green
	case c < pitch.CentsTolerance:
		return "#CCCC00" // Getting there - yellow
	default:
		return "#CC0000" // Far off - red
	}
}

// meterPosition maps cents onto a column of a meter of the given width,
// clamped to ±50 cents with the centre column meaning in tune.
func meterPosition(cents float64, width int) int {
	clamped := math.Max(-meterRangeCents, math.Min(meterRangeCents, cents))
	center := width / 2
	return center + int(math.Round(clamped/meterRangeCents*float64(center)))
}

func renderMeter(cents float64, active bool) string {
	cells := []rune(strings.Repeat("─", meterWidth))
	cells[meterWidth/2] = '┼'

	if !active {
		return infoStyle.Render("♭ " + string(cells) + " ♯  0.0¢")
	}

	pos := meterPosition(cents, meterWidth)
	needle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(meterColor(cents))).Render("┃")

	left := infoStyle.Render("♭ " + string(cells[:pos]))
	right := infoStyle.Render(string(cells[pos+1:]) + " ♯")
	return fmt.Sprintf("%s%s%s %5.1f¢", left, needle, right, math.Abs(cents))
}

// Controller drives the session on behalf of the UI.
type Controller interface {
	Start() error
	Stop() error
	Skip() error
	Replay() error
}

// Model represents the UI state
type Model struct {
	controller Controller

	state     session.State
	target    *pitch.Note
	score     int
	detected  *pitch.Note
	amplitude float64
	noSignal  bool
	match     *pitch.MatchResult
	result    string
	success   bool
	err       error

	lastReading time.Time
	width       int
	height      int
}

// NewModel creates a new UI model
func NewModel(controller Controller) Model {
	return Model{controller: controller}
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// control runs a controller action off the UI goroutine.
func (m Model) control(action func() error) tea.Cmd {
	if m.controller == nil {
		return nil
	}
	return func() tea.Msg {
		if err := action(); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s", "enter":
			m.err = nil
			m.result = ""
			m.success = false
			return m, m.control(func() error { return m.controller.Start() })
		case "x":
			return m, m.control(func() error { return m.controller.Stop() })
		case "n":
			return m, m.control(func() error { return m.controller.Skip() })
		case "r":
			return m, m.control(func() error { return m.controller.Replay() })
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		if !m.lastReading.IsZero() && time.Time(msg).Sub(m.lastReading) > readingDisplayDuration {
			m.detected = nil
			m.match = nil
			m.lastReading = time.Time{}
		}
		return m, tick()

	case StateMsg:
		m.state = session.State(msg)
		if m.state == session.Idle || m.state == session.PlayingReference {
			m.detected = nil
			m.match = nil
			m.noSignal = false
		}

	case NoteMsg:
		note := pitch.Note(msg)
		m.target = &note

	case ScoreMsg:
		m.score = int(msg)

	case FrequencyMsg:
		m.detected = pitch.NearestNote(msg.Hz)
		m.amplitude = msg.Amplitude
		m.noSignal = false
		m.lastReading = time.Now()

	case ProgressMsg:
		r := pitch.MatchResult(msg)
		m.match = &r
		m.success = false
		m.result = fmt.Sprintf("Off by %.1f cents (%s)", math.Abs(r.CentsOff), r.Direction)

	case MatchMsg:
		r := pitch.MatchResult(msg)
		m.match = &r
		m.success = true
		m.result = "Success! Correct note detected."

	case NoSignalMsg:
		m.noSignal = true
		m.amplitude = float64(msg)

	case MissedMsg:
		m.success = false
		m.result = fmt.Sprintf("Missed %s", pitch.Note(msg).String())

	case ErrMsg:
		m.err = msg.Err
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("TuneChase - Ear Trainer")
	s += "\n"

	s += infoStyle.Render(fmt.Sprintf("State: %s | Score: %d", m.state, m.score))
	s += "\n\n"

	if m.target != nil && m.state != session.Idle {
		s += renderNote(*m.target)
		s += "\n"
		s += infoStyle.Render(fmt.Sprintf("Target Note: %s (%.2f Hz)", m.target, m.target.Frequency))
	} else {
		s += infoStyle.Render("Press s to start a session")
	}
	s += "\n\n"

	switch {
	case m.detected != nil:
		s += infoStyle.Render(fmt.Sprintf("Current frequency: %.2f Hz (%s %+.1f¢, Strength: %.1f)",
			m.detected.Frequency, m.detected, m.detected.Cents, m.amplitude))
	case m.noSignal:
		s += infoStyle.Render(fmt.Sprintf("Current frequency: -- Hz (no sound detected, level: %.1f)", m.amplitude))
	default:
		s += infoStyle.Render("Current frequency: -- Hz")
	}
	s += "\n"

	if m.match != nil {
		s += renderMeter(m.match.CentsOff, true)
	} else {
		s += renderMeter(0, false)
	}
	s += "\n\n"

	if m.result != "" {
		if m.success {
			s += successStyle.Render(m.result)
		} else {
			s += infoStyle.Render(m.result)
		}
		s += "\n"
	}

	if m.err != nil {
		s += errorStyle.Render("Error: " + m.err.Error())
		s += "\n"
		if errors.Is(m.err, session.ErrNoDevice) || errors.Is(m.err, session.ErrCaptureUnavailable) {
			s += infoStyle.Render("Choose an input device with --device (list them with `tunechase devices`).")
			s += "\n"
		}
	}

	s += "\n"
	s += infoStyle.Render("s start • x stop • n skip • r replay • q quit")

	return s
}
