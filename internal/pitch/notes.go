package pitch

import (
	"fmt"
	"math"
)

// ReferenceA4 is the tuning reference for the equal-tempered note table.
const ReferenceA4 = 440.0

// Note represents a musical note
type Note struct {
	Name      string  // e.g., "A", "A#", "B"
	Octave    int     // e.g., 4 for middle C (C4)
	Frequency float64 // Frequency in Hz
	Cents     float64 // Cents deviation from perfect pitch (-50 to +50)
}

// String returns the scientific pitch name, e.g. "C#4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// All note names in chromatic order
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// targetNotes is the fixed table of practice notes: the twelve chromatic
// pitches of octave 4, rounded to the hundredth of a hertz.
var targetNotes = buildNoteTable(4)

func buildNoteTable(octave int) []Note {
	notes := make([]Note, 0, len(noteNames))
	for i, name := range noteNames {
		// Semitones from A4 (index 9 in octave 4)
		semitones := float64((octave-4)*12 + i - 9)
		freq := ReferenceA4 * math.Pow(2, semitones/12)
		notes = append(notes, Note{
			Name:      name,
			Octave:    octave,
			Frequency: math.Round(freq*100) / 100,
		})
	}
	return notes
}

// NoteTable returns a copy of the practice note table in chromatic order.
func NoteTable() []Note {
	out := make([]Note, len(targetNotes))
	copy(out, targetNotes)
	return out
}

// LookupNote finds a practice note by its full name ("A4").
func LookupNote(name string) (Note, bool) {
	for _, n := range targetNotes {
		if n.String() == name {
			return n, true
		}
	}
	return Note{}, false
}

// NearestNote names the equal-tempered note closest to frequency and
// records how far off it is. It returns nil for non-positive or non-finite
// input.
func NearestNote(frequency float64) *Note {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil
	}

	fromA4 := Cents(frequency, ReferenceA4)
	steps := int(math.Round(fromA4 / 100))

	// Chromatic index counted from C4; A4 sits at 9.
	idx := steps + 9
	pc := ((idx % 12) + 12) % 12

	return &Note{
		Name:      noteNames[pc],
		Octave:    4 + (idx-pc)/12,
		Frequency: frequency,
		Cents:     fromA4 - float64(steps*100),
	}
}
