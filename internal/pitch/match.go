package pitch

import "math"

// CentsTolerance is the quarter-tone window within which a pitch counts as a match.
const CentsTolerance = 25.0

// Direction tells which way a detected pitch is off from the target.
type Direction string

const (
	TooHigh Direction = "too high"
	TooLow  Direction = "too low"
)

// MatchResult is the outcome of comparing a detected pitch with a target.
type MatchResult struct {
	IsMatch   bool
	CentsOff  float64
	Direction Direction
}

// Cents returns the interval from target to detected in cents.
func Cents(detected, target float64) float64 {
	return 1200 * math.Log2(detected/target)
}

// MatchNote compares a detected frequency with a target frequency.
func MatchNote(detectedHz, targetHz float64) MatchResult {
	cents := Cents(detectedHz, targetHz)

	dir := TooLow
	if cents > 0 {
		dir = TooHigh
	}

	return MatchResult{
		IsMatch:   math.Abs(cents) < CentsTolerance,
		CentsOff:  cents,
		Direction: dir,
	}
}
