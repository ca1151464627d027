package evaluation

import (
	"math"

	"github.com/farcloser/diapason/internal/types"
)

// Absorbs rounding so that a deviation of exactly the tolerance counts as in tune.
const centsEpsilon = 1e-9

// CentsDeviation returns the signed distance from target to frequency in cents.
func CentsDeviation(frequency, target float64) float64 {
	return 1200 * math.Log2(frequency/target)
}

// CheckTuning classifies current against target with a symmetric tolerance in cents.
func CheckTuning(current, target, toleranceCents float64) types.TuningState {
	if !(current > 0) || !(target > 0) || math.IsInf(current, 0) || math.IsInf(target, 0) {
		return types.TuningUnknown
	}

	cents := CentsDeviation(current, target)

	switch {
	case cents < -toleranceCents-centsEpsilon:
		return types.TuningTooLow
	case cents > toleranceCents+centsEpsilon:
		return types.TuningTooHigh
	default:
		return types.TuningInTune
	}
}
