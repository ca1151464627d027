// Package temperament maps frequencies to notes of a musical scale and picks tuning targets.
package temperament

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/farcloser/diapason/internal/types"
)

var (
	ErrUnknownTemperament = errors.New("unknown temperament")
	ErrUnknownNote        = errors.New("unknown note")
)

// MusicalScale is the contract the tuning pipeline needs from a scale.
type MusicalScale interface {
	// NoteIndex returns the index of note, or false when the scale has no such note.
	NoteIndex(note types.MusicalNote) (int, bool)
	// NoteFrequency returns the frequency of the note at index.
	NoteFrequency(index int) float64
	// Note returns the note at index.
	Note(index int) types.MusicalNote
	// ClosestNoteIndex returns the index of the note closest to frequency on a logarithmic scale.
	ClosestNoteIndex(frequency float64) int
	// ReferenceFrequency returns the frequency of the reference note.
	ReferenceFrequency() float64
}

// Scale is a repeating octave of notes given by their cents above the octave root.
// Index 0 is the root of octave 0; index = octave*steps + step.
type Scale struct {
	name      string
	cents     []float64
	names     []string
	reference int
	refFreq   float64
}

// NewScale builds a scale from the cents of each step (first must be 0) and their names.
// The note at referenceStep in octave referenceOctave sounds at referenceFrequency.
func NewScale(
	name string,
	cents []float64,
	names []string,
	referenceStep, referenceOctave int,
	referenceFrequency float64,
) *Scale {
	return &Scale{
		name:      name,
		cents:     cents,
		names:     names,
		reference: referenceOctave*len(cents) + referenceStep,
		refFreq:   referenceFrequency,
	}
}

// Name returns the temperament name.
func (s *Scale) Name() string {
	return s.name
}

// Steps returns the number of notes per octave.
func (s *Scale) Steps() int {
	return len(s.cents)
}

func (s *Scale) ReferenceFrequency() float64 {
	return s.refFreq
}

func (s *Scale) absoluteCents(index int) float64 {
	steps := len(s.cents)
	octave := floorDiv(index, steps)

	return 1200*float64(octave) + s.cents[index-octave*steps]
}

func (s *Scale) NoteFrequency(index int) float64 {
	return s.refFreq * math.Exp2((s.absoluteCents(index)-s.absoluteCents(s.reference))/1200)
}

func (s *Scale) Note(index int) types.MusicalNote {
	steps := len(s.cents)
	octave := floorDiv(index, steps)

	return types.MusicalNote{Base: s.names[index-octave*steps], Octave: octave}
}

func (s *Scale) NoteIndex(note types.MusicalNote) (int, bool) {
	for step, name := range s.names {
		if strings.EqualFold(name, note.Base) {
			return note.Octave*len(s.cents) + step, true
		}
	}

	return 0, false
}

func (s *Scale) ClosestNoteIndex(frequency float64) int {
	if frequency <= 0 {
		return s.reference
	}

	steps := len(s.cents)
	cents := 1200*math.Log2(frequency/s.refFreq) + s.absoluteCents(s.reference)
	octave := int(math.Floor(cents / 1200))

	best := octave * steps
	bestDistance := math.Inf(1)

	// Candidates span the octave below and above to catch notes near octave boundaries.
	for index := (octave - 1) * steps; index < (octave+2)*steps; index++ {
		if d := math.Abs(s.absoluteCents(index) - cents); d < bestDistance {
			best, bestDistance = index, d
		}
	}

	return best
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}

// ParseNote parses names like A4, C#3 or Bb-1.
func ParseNote(text string) (types.MusicalNote, error) {
	text = strings.TrimSpace(text)

	split := len(text)
	for split > 0 && text[split-1] >= '0' && text[split-1] <= '9' {
		split--
	}

	if split == len(text) {
		return types.MusicalNote{}, fmt.Errorf("%w %q", ErrUnknownNote, text)
	}

	if split > 0 && text[split-1] == '-' {
		split--
	}

	if split == 0 {
		return types.MusicalNote{}, fmt.Errorf("%w %q", ErrUnknownNote, text)
	}

	octave, err := strconv.Atoi(text[split:])
	if err != nil {
		return types.MusicalNote{}, fmt.Errorf("%w %q: %w", ErrUnknownNote, text, err)
	}

	return types.MusicalNote{Base: text[:split], Octave: octave}, nil
}
