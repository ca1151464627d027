package temperament

import (
	"errors"
	"math"
	"testing"

	"github.com/farcloser/diapason/internal/types"
)

func mustTemperament(t *testing.T, name string) *Scale {
	t.Helper()

	scale, err := NewTemperament(name, 440)
	if err != nil {
		t.Fatalf("NewTemperament(%q): %v", name, err)
	}

	return scale
}

func mustResolver(t *testing.T, scale MusicalScale, instrument Instrument, fixed *types.MusicalNote) *Resolver {
	t.Helper()

	resolver, err := NewResolver(scale, instrument, fixed)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	return resolver
}

func TestEqualTemperamentFrequencies(t *testing.T) {
	scale := mustTemperament(t, "edo12")

	a4, ok := scale.NoteIndex(types.MusicalNote{Base: "A", Octave: 4})
	if !ok {
		t.Fatalf("A4 not found")
	}

	tests := []struct {
		offset int
		want   float64
		name   string
	}{
		{0, 440, "A4"},
		{12, 880, "A5"},
		{-12, 220, "A3"},
		{3, 523.2511306, "C5"},
		{-29, 82.4068892, "E2"},
	}

	for _, tc := range tests {
		if got := scale.NoteFrequency(a4 + tc.offset); math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("frequency of %s = %v, want %v", tc.name, got, tc.want)
		}

		if got := scale.Note(a4 + tc.offset).String(); got != tc.name {
			t.Fatalf("note = %s, want %s", got, tc.name)
		}
	}
}

func TestClosestNoteIndex(t *testing.T) {
	scale := mustTemperament(t, "edo12")
	a4, _ := scale.NoteIndex(types.MusicalNote{Base: "A", Octave: 4})

	tests := []struct {
		freq float64
		want int
	}{
		{440, a4},
		{450, a4},
		{455, a4 + 1},
		{261.63, a4 - 9},
		{27.5, a4 - 48},
		{4186, a4 + 39},
	}

	for _, tc := range tests {
		if got := scale.ClosestNoteIndex(tc.freq); got != tc.want {
			t.Fatalf("ClosestNoteIndex(%v) = %d (%s), want %d", tc.freq, got, scale.Note(got), tc.want)
		}
	}
}

func TestHistoricalTemperamentsKeepReference(t *testing.T) {
	for _, name := range Temperaments() {
		scale := mustTemperament(t, name)

		ref := scale.ClosestNoteIndex(440)
		if got := scale.NoteFrequency(ref); math.Abs(got-440) > 1e-9 {
			t.Fatalf("%s: reference sounds at %v", name, got)
		}

		if got := scale.NoteFrequency(ref + scale.Steps()); math.Abs(got-880) > 1e-9 {
			t.Fatalf("%s: octave sounds at %v", name, got)
		}
	}
}

func TestUnknownTemperament(t *testing.T) {
	if _, err := NewTemperament("edo13", 440); err == nil {
		t.Fatalf("unknown temperament accepted")
	}
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		text string
		want types.MusicalNote
	}{
		{"A4", types.MusicalNote{Base: "A", Octave: 4}},
		{"C#3", types.MusicalNote{Base: "C#", Octave: 3}},
		{"Bb-1", types.MusicalNote{Base: "Bb", Octave: -1}},
		{" E2 ", types.MusicalNote{Base: "E", Octave: 2}},
	}

	for _, tc := range tests {
		got, err := ParseNote(tc.text)
		if err != nil || got != tc.want {
			t.Fatalf("ParseNote(%q) = %+v, %v", tc.text, got, err)
		}
	}

	for _, bad := range []string{"", "4", "A", "-3"} {
		if _, err := ParseNote(bad); err == nil {
			t.Fatalf("ParseNote(%q) accepted", bad)
		}
	}
}

func TestResolverChromatic(t *testing.T) {
	scale := mustTemperament(t, "edo12")
	instrument, err := ParseInstrument("chromatic")
	if err != nil {
		t.Fatalf("ParseInstrument: %v", err)
	}

	resolver := mustResolver(t, scale, instrument, nil)

	if resolver.Target(0) != nil {
		t.Fatalf("target for silence")
	}

	target := resolver.Target(445)
	if target == nil || target.Note.String() != "A4" || target.Frequency != 440 || target.IsPartOfInstrument {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestResolverInstrumentStrings(t *testing.T) {
	scale := mustTemperament(t, "edo12")
	guitar, err := ParseInstrument("guitar")
	if err != nil {
		t.Fatalf("ParseInstrument: %v", err)
	}

	resolver := mustResolver(t, scale, guitar, nil)

	tests := []struct {
		freq float64
		want string
	}{
		{80, "E2"},
		{100, "A2"},
		{150, "D3"},
		{200, "G3"},
		{240, "B3"},
		{1000, "E4"},
		{20, "E2"},
	}

	for _, tc := range tests {
		target := resolver.Target(tc.freq)
		if target == nil || target.Note.String() != tc.want || !target.IsPartOfInstrument {
			t.Fatalf("target for %v = %+v, want %s", tc.freq, target, tc.want)
		}
	}
}

func TestResolverFixedTarget(t *testing.T) {
	scale := mustTemperament(t, "edo12")
	guitar, _ := ParseInstrument("guitar")
	fixed := types.MusicalNote{Base: "D", Octave: 3}

	target := mustResolver(t, scale, guitar, &fixed).Target(82)
	if target == nil || target.Note != fixed || !target.IsPartOfInstrument {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestResolverOnNonChromaticScale(t *testing.T) {
	scale := mustTemperament(t, "edo19")
	guitar, _ := ParseInstrument("guitar")

	target := mustResolver(t, scale, guitar, nil).Target(110)
	if target == nil || math.Abs(1200*math.Log2(target.Frequency/110)) > 40 {
		t.Fatalf("unexpected target %+v", target)
	}
}

func TestResolverFixedTargetSpellings(t *testing.T) {
	chromatic, _ := ParseInstrument("chromatic")

	tests := []struct {
		scale string
		note  types.MusicalNote
		want  string
		freq  float64
	}{
		{"edo12", types.MusicalNote{Base: "Bb", Octave: 4}, "Bb4", 466.16},
		{"edo12", types.MusicalNote{Base: "A#", Octave: 4}, "Bb4", 466.16},
		{"edo12", types.MusicalNote{Base: "Db", Octave: 4}, "C#4", 277.18},
		{"edo12", types.MusicalNote{Base: "gb", Octave: 3}, "F#3", 185.00},
		{"edo12", types.MusicalNote{Base: "B#", Octave: 3}, "C4", 261.63},
		{"edo12", types.MusicalNote{Base: "Cb", Octave: 4}, "B3", 246.94},
		{"pythagorean", types.MusicalNote{Base: "A#", Octave: 4}, "Bb4", 0},
	}

	for _, tc := range tests {
		fixed := tc.note

		target := mustResolver(t, mustTemperament(t, tc.scale), chromatic, &fixed).Target(440)
		if target == nil || target.Note.String() != tc.want {
			t.Fatalf("%s %s: target %+v, want %s", tc.scale, tc.note, target, tc.want)
		}

		if tc.freq > 0 && math.Abs(target.Frequency-tc.freq) > 0.01 {
			t.Fatalf("%s %s: frequency %v, want %v", tc.scale, tc.note, target.Frequency, tc.freq)
		}
	}
}

func TestResolverRejectsUnknownSpellings(t *testing.T) {
	scale := mustTemperament(t, "edo12")
	chromatic, _ := ParseInstrument("chromatic")

	for _, base := range []string{"H", "Xyz", "A$", "#"} {
		fixed := types.MusicalNote{Base: base, Octave: 4}
		if _, err := NewResolver(scale, chromatic, &fixed); !errors.Is(err, ErrUnknownNote) {
			t.Fatalf("NewResolver(%s) error = %v, want ErrUnknownNote", fixed, err)
		}
	}
}

func TestUnknownInstrument(t *testing.T) {
	if _, err := ParseInstrument("theremin"); err == nil {
		t.Fatalf("unknown instrument accepted")
	}
}
