// Package evaluation smooths detected frequencies over time and classifies them against targets.
package evaluation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Smoother is a moving average over accepted frequencies.
//
// A value more than outlierCents away from the current average is faulty and ignored. Once more
// than maxFaulty consecutive values are faulty, the average restarts from the latest value.
type Smoother struct {
	window       int
	maxFaulty    int
	outlierCents float64

	values  []float64
	faulty  int
	current float64
}

// NewSmoother returns an empty Smoother.
func NewSmoother(window, maxFaulty int, outlierCents float64) *Smoother {
	window = max(window, 1)

	return &Smoother{
		window:       window,
		maxFaulty:    max(maxFaulty, 0),
		outlierCents: outlierCents,
		values:       make([]float64, 0, window),
	}
}

// Add feeds a frequency and returns the smoothed frequency.
func (s *Smoother) Add(frequency float64) float64 {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return s.current
	}

	if len(s.values) > 0 && math.Abs(CentsDeviation(frequency, s.current)) > s.outlierCents {
		s.faulty++
		if s.faulty <= s.maxFaulty {
			return s.current
		}

		s.values = s.values[:0]
	}

	s.faulty = 0

	if len(s.values) == s.window {
		s.values = s.values[:copy(s.values, s.values[1:])]
	}

	s.values = append(s.values, frequency)
	s.current = stat.Mean(s.values, nil)

	return s.current
}

// Value returns the current smoothed frequency, 0 when empty.
func (s *Smoother) Value() float64 {
	return s.current
}

// Reset forgets all values.
func (s *Smoother) Reset() {
	s.values = s.values[:0]
	s.faulty = 0
	s.current = 0
}
