package harmonics

import (
	"math"
	"testing"

	"github.com/farcloser/diapason/internal/spectrum"
)

const (
	testFundamental = 10.0
	testFreqMin     = 1.0
	testFreqMax     = 90.0
)

func testSpectrum(spikes map[int]float64) *spectrum.FrequencySpectrum {
	spec := spectrum.NewFrequencySpectrum(1000, 0.1)
	for idx, amp := range spikes {
		spec.AmplitudeSpectrumSquared[idx] = amp
	}

	return spec
}

func numbers(c *Harmonics) []int {
	c.Sort()

	out := make([]int, 0, c.Len())
	for h := range c.All() {
		out = append(out, h.HarmonicNumber)
	}

	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func search(spec *spectrum.FrequencySpectrum, opts SearchOptions) *Harmonics {
	c := New(32)
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	FindFromSpectrum(c, testFundamental, testFreqMin, testFreqMax, spec, acc, opts)

	return c
}

func TestFindFromSpectrumSingleSpike(t *testing.T) {
	c := search(testSpectrum(map[int]float64{300: 100}), DefaultSearchOptions())

	if c.Len() != 1 {
		t.Fatalf("found %d harmonics, want 1", c.Len())
	}

	h := c.At(0)
	if h.HarmonicNumber != 3 || h.SpectrumIndex != 300 || h.SpectrumAmplitudeSquared != 100 {
		t.Fatalf("unexpected harmonic %+v", h)
	}

	if math.Abs(h.Frequency-30) > 1e-5*30 {
		t.Fatalf("frequency = %v, want 30", h.Frequency)
	}
}

func TestFindFromSpectrumWalksDown(t *testing.T) {
	c := search(testSpectrum(map[int]float64{300: 100, 200: 80}), DefaultSearchOptions())

	if got := numbers(c); !equalInts(got, []int{2, 3}) {
		t.Fatalf("harmonics = %v, want [2 3]", got)
	}
}

func TestFindFromSpectrumMaxNumFail(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100, 200: 80, 500: 60})

	opts := DefaultSearchOptions()
	if got := numbers(search(spec, opts)); !equalInts(got, []int{2, 3}) {
		t.Fatalf("maxNumFail=0: harmonics = %v, want [2 3]", got)
	}

	opts.MaxNumFail = 1
	if got := numbers(search(spec, opts)); !equalInts(got, []int{2, 3, 5}) {
		t.Fatalf("maxNumFail=1: harmonics = %v, want [2 3 5]", got)
	}
}

func TestFindFromSpectrumTolerance(t *testing.T) {
	for _, offset := range []int{18, -18} {
		spec := testSpectrum(map[int]float64{300: 100, 200: 80, 500 + offset: 60})

		opts := DefaultSearchOptions()
		opts.MaxNumFail = 1

		opts.HarmonicTolerance = 0.2
		if got := numbers(search(spec, opts)); !equalInts(got, []int{2, 3, 5}) {
			t.Fatalf("offset %d, tolerance 0.2: harmonics = %v, want [2 3 5]", offset, got)
		}

		opts.HarmonicTolerance = 0.1
		if got := numbers(search(spec, opts)); !equalInts(got, []int{2, 3}) {
			t.Fatalf("offset %d, tolerance 0.1: harmonics = %v, want [2 3]", offset, got)
		}
	}
}

func TestFindFromSpectrumIsIdempotent(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100, 200: 80, 400: 50})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)

	FindFromSpectrum(c, testFundamental, testFreqMin, testFreqMax, spec, acc, DefaultSearchOptions())
	first := numbers(c)

	FindFromSpectrum(c, testFundamental, testFreqMin, testFreqMax, spec, acc, DefaultSearchOptions())
	second := numbers(c)

	if !equalInts(first, second) || !equalInts(first, []int{2, 3, 4}) {
		t.Fatalf("first = %v, second = %v", first, second)
	}
}

func TestFindFromSpectrumRespectsBand(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100, 200: 80, 500: 60})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)

	opts := DefaultSearchOptions()
	opts.MaxNumFail = 3

	FindFromSpectrum(c, testFundamental, testFreqMin, 45, spec, acc, opts)

	if got := numbers(c); !equalInts(got, []int{2, 3}) {
		t.Fatalf("harmonics = %v, want [2 3]", got)
	}
}

func TestFindFromSpectrumRejectsAnchorOffHarmonic(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)

	FindFromSpectrum(c, 7, testFreqMin, testFreqMax, spec, acc, DefaultSearchOptions())

	if c.Len() != 0 {
		t.Fatalf("found %d harmonics for an unrelated fundamental", c.Len())
	}
}

func TestFindFromSpectrumRelativeFloor(t *testing.T) {
	c := search(testSpectrum(map[int]float64{300: 100, 200: 1e-4}), DefaultSearchOptions())

	if got := numbers(c); !equalInts(got, []int{3}) {
		t.Fatalf("harmonics = %v, want [3]", got)
	}
}

func TestFindFromAnchorMatchesSpectrumSearch(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100, 200: 80, 400: 50})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)

	anchor := Harmonic{
		HarmonicNumber:           3,
		Frequency:                acc.Frequency(300),
		SpectrumIndex:            300,
		SpectrumAmplitudeSquared: 100,
	}

	FindFromAnchor(c, anchor, testFreqMin, testFreqMax, spec, 300, acc, DefaultSearchOptions())

	if got := numbers(c); !equalInts(got, []int{2, 3, 4}) {
		t.Fatalf("harmonics = %v, want [2 3 4]", got)
	}

	// Treating the same peak as the 6th harmonic of 5 Hz finds only even harmonics.
	anchor.HarmonicNumber = 6
	opts := DefaultSearchOptions()
	opts.MaxNumFail = 1

	FindFromAnchor(c, anchor, testFreqMin, testFreqMax, spec, 300, acc, opts)

	if !c.HasCommonDivisors() {
		t.Fatalf("subharmonic hypothesis not flagged: %v", numbers(c))
	}
}

func TestFindFromAnchorInvalid(t *testing.T) {
	spec := testSpectrum(map[int]float64{300: 100})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)
	c.Add(Harmonic{HarmonicNumber: 9})

	FindFromAnchor(c, Harmonic{HarmonicNumber: 0, Frequency: 30}, testFreqMin, testFreqMax, spec, 300, acc,
		DefaultSearchOptions())

	if c.Len() != 0 {
		t.Fatalf("invalid anchor left %d harmonics", c.Len())
	}
}

func TestBandMaximumEdges(t *testing.T) {
	begin, end := BandIndices(testFreqMin, testFreqMax, testSpectrum(nil))

	tests := []struct {
		name   string
		spikes map[int]float64
		want   int
	}{
		{"first band bin", map[int]float64{begin: 100, begin + 1: 50}, begin},
		{"last band bin", map[int]float64{end - 1: 100, end - 2: 50}, end - 1},
		{"peak below band", map[int]float64{begin - 1: 100, begin: 50}, -1},
		{"peak above band", map[int]float64{end: 100, end - 1: 50}, -1},
		{"interior", map[int]float64{300: 100, begin: 50}, 300},
		{"flat", map[int]float64{}, -1},
	}

	for _, tc := range tests {
		if got := BandMaximum(testFreqMin, testFreqMax, testSpectrum(tc.spikes)); got != tc.want {
			t.Errorf("%s: BandMaximum = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestFindFromSpectrumAnchorOnFirstBandBin(t *testing.T) {
	spec := testSpectrum(map[int]float64{100: 100, 200: 80})
	acc := spectrum.NewAccurateSpectrumPeakFrequency(spec, nil)
	c := New(32)

	FindFromSpectrum(c, testFundamental, 10, testFreqMax, spec, acc, DefaultSearchOptions())

	if got := numbers(c); !equalInts(got, []int{1, 2}) {
		t.Fatalf("harmonics = %v, want [1 2]", got)
	}
}
