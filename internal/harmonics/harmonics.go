// Package harmonics collects the harmonics of a fundamental found in a spectrum.
package harmonics

import (
	"iter"
	"slices"

	"github.com/farcloser/diapason/internal/types"
)

// Harmonic is one partial of a tone, located in a spectrum.
type Harmonic struct {
	HarmonicNumber           int
	Frequency                float64
	SpectrumIndex            int
	SpectrumAmplitudeSquared float64
}

// Harmonics is a bounded collection holding at most one entry per harmonic number.
// It is owned by a single frame analysis and is not safe for concurrent use.
type Harmonics struct {
	capacity int
	items    []Harmonic
}

// New returns an empty collection holding at most capacity harmonics.
func New(capacity int) *Harmonics {
	return &Harmonics{
		capacity: capacity,
		items:    make([]Harmonic, 0, min(capacity, 32)),
	}
}

// Add inserts h unless its harmonic number is already present or the collection is full.
func (c *Harmonics) Add(h Harmonic) bool {
	if len(c.items) >= c.capacity || c.Contains(h.HarmonicNumber) {
		return false
	}

	c.items = append(c.items, h)

	return true
}

// Contains reports whether a harmonic with that number is present.
func (c *Harmonics) Contains(number int) bool {
	return slices.ContainsFunc(c.items, func(h Harmonic) bool { return h.HarmonicNumber == number })
}

func (c *Harmonics) usesIndex(index int) bool {
	return slices.ContainsFunc(c.items, func(h Harmonic) bool { return h.SpectrumIndex == index })
}

// Len returns the number of harmonics.
func (c *Harmonics) Len() int {
	return len(c.items)
}

// Full reports whether no more harmonics can be added.
func (c *Harmonics) Full() bool {
	return len(c.items) >= c.capacity
}

// At returns the i-th harmonic in the current order.
func (c *Harmonics) At(i int) Harmonic {
	return c.items[i]
}

// All iterates over the harmonics in the current order.
func (c *Harmonics) All() iter.Seq[Harmonic] {
	return slices.Values(c.items)
}

// Clear empties the collection, keeping its storage.
func (c *Harmonics) Clear() {
	c.items = c.items[:0]
}

// Sort orders harmonics by ascending harmonic number.
func (c *Harmonics) Sort() {
	slices.SortFunc(c.items, func(a, b Harmonic) int { return a.HarmonicNumber - b.HarmonicNumber })
}

// HasCommonDivisors reports whether at least two harmonics are present and all their numbers
// share a divisor greater than one. Such a set means the assumed fundamental is a subharmonic.
func (c *Harmonics) HasCommonDivisors() bool {
	if len(c.items) < 2 {
		return false
	}

	divisor := 0
	for _, h := range c.items {
		divisor = gcd(divisor, h.HarmonicNumber)
		if divisor == 1 {
			return false
		}
	}

	return divisor > 1
}

// AmplitudeSquaredSum returns the summed energy of all harmonics.
func (c *Harmonics) AmplitudeSquaredSum() float64 {
	var sum float64
	for _, h := range c.items {
		sum += h.SpectrumAmplitudeSquared
	}

	return sum
}

// Snapshot copies the harmonics, sorted by number, into their exported form.
func (c *Harmonics) Snapshot() []types.Harmonic {
	out := make([]types.Harmonic, 0, len(c.items))
	for _, h := range c.items {
		out = append(out, types.Harmonic{
			Number:           h.HarmonicNumber,
			Frequency:        h.Frequency,
			SpectrumIndex:    h.SpectrumIndex,
			AmplitudeSquared: h.SpectrumAmplitudeSquared,
		})
	}

	slices.SortFunc(out, func(a, b types.Harmonic) int { return a.Number - b.Number })

	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	if a < 0 {
		return -a
	}

	return a
}
