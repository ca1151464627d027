package temperament

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/farcloser/diapason/internal/types"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

// Instrument is a set of open strings to tune. A chromatic instrument targets any scale note.
type Instrument struct {
	Name      string
	Strings   []types.MusicalNote
	Chromatic bool
}

func notes(names ...string) []types.MusicalNote {
	out := make([]types.MusicalNote, 0, len(names))
	for _, name := range names {
		note, err := ParseNote(name)
		if err != nil {
			panic(err)
		}

		out = append(out, note)
	}

	return out
}

var instruments = map[string]Instrument{
	"chromatic": {Name: "chromatic", Chromatic: true},
	"guitar":    {Name: "guitar", Strings: notes("E2", "A2", "D3", "G3", "B3", "E4")},
	"bass":      {Name: "bass", Strings: notes("E1", "A1", "D2", "G2")},
	"ukulele":   {Name: "ukulele", Strings: notes("G4", "C4", "E4", "A4")},
	"violin":    {Name: "violin", Strings: notes("G3", "D4", "A4", "E5")},
	"viola":     {Name: "viola", Strings: notes("C3", "G3", "D4", "A4")},
	"cello":     {Name: "cello", Strings: notes("C2", "G2", "D3", "A3")},
}

// Instruments lists the names accepted by ParseInstrument.
func Instruments() []string {
	names := make([]string, 0, len(instruments))
	for name := range instruments {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// ParseInstrument returns the named instrument preset.
func ParseInstrument(name string) (Instrument, error) {
	if name == "" {
		return instruments["chromatic"], nil
	}

	instrument, ok := instruments[strings.ToLower(name)]
	if !ok {
		return Instrument{}, fmt.Errorf("%w %q (valid: %s)", ErrUnknownInstrument, name, strings.Join(Instruments(), ", "))
	}

	return instrument, nil
}

// Resolver picks the tuning target for a frequency.
type Resolver struct {
	scale   MusicalScale
	strings []int
	fixed   int
	isFixed bool
}

// NewResolver binds an instrument to a scale. When fixed is not nil, every frequency targets it.
func NewResolver(scale MusicalScale, instrument Instrument, fixed *types.MusicalNote) (*Resolver, error) {
	resolver := &Resolver{scale: scale}

	if !instrument.Chromatic {
		for _, note := range instrument.Strings {
			index, err := LocateNote(scale, note)
			if err != nil {
				return nil, err
			}

			if !slices.Contains(resolver.strings, index) {
				resolver.strings = append(resolver.strings, index)
			}
		}

		slices.Sort(resolver.strings)
	}

	if fixed != nil {
		index, err := LocateNote(scale, *fixed)
		if err != nil {
			return nil, err
		}

		resolver.fixed = index
		resolver.isFixed = true
	}

	return resolver, nil
}

var letterSteps = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}

// chromaticStep returns the semitone offset above C of a spelled note such as A, C#, Db or Ebb.
// The offset may leave [0, 12) for spellings like Cb or B#.
func chromaticStep(base string) (int, bool) {
	if base == "" {
		return 0, false
	}

	step, ok := letterSteps[strings.ToUpper(base[:1])]
	if !ok {
		return 0, false
	}

	for _, accidental := range base[1:] {
		switch accidental {
		case '#':
			step++
		case 'b':
			step--
		default:
			return 0, false
		}
	}

	return step, true
}

// LocateNote returns the index of note in scale. A spelling the scale does not name, such as an
// enharmonic of one of its notes, resolves to the scale note closest to its equal tempered pitch.
func LocateNote(scale MusicalScale, note types.MusicalNote) (int, error) {
	if index, ok := scale.NoteIndex(note); ok {
		return index, nil
	}

	step, ok := chromaticStep(note.Base)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownNote, note.String())
	}

	semitones := float64((note.Octave-referenceOctave)*len(chromaticNames) + step - referenceStep)

	return scale.ClosestNoteIndex(scale.ReferenceFrequency() * math.Exp2(semitones/12)), nil
}

// Target returns the target for frequency, or nil when frequency is not positive.
func (r *Resolver) Target(frequency float64) *types.TuningTarget {
	if frequency <= 0 {
		return nil
	}

	var index int

	switch {
	case r.isFixed:
		index = r.fixed
	case len(r.strings) > 0:
		index = r.strings[0]
		best := math.Inf(1)

		for _, candidate := range r.strings {
			if d := math.Abs(math.Log2(frequency / r.scale.NoteFrequency(candidate))); d < best {
				index, best = candidate, d
			}
		}
	default:
		index = r.scale.ClosestNoteIndex(frequency)
	}

	return &types.TuningTarget{
		Note:               r.scale.Note(index),
		NoteIndex:          index,
		Frequency:          r.scale.NoteFrequency(index),
		IsPartOfInstrument: slices.Contains(r.strings, index),
	}
}
