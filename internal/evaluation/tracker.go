package evaluation

import (
	"math"

	"github.com/farcloser/diapason/internal/types"
)

// InactivityThreshold is the time without detection after which the tuning state becomes unknown.
const InactivityThreshold = 0.5

// PitchHistorySize returns how many frames cover duration seconds.
func PitchHistorySize(duration float64, sampleRate, hop int) int {
	if hop <= 0 || sampleRate <= 0 {
		return 1
	}

	return max(1, int(math.Round(duration*float64(sampleRate)/float64(hop))))
}

// PitchHistory keeps the latest smoothed frequencies in a fixed size ring.
type PitchHistory struct {
	values []float64
	next   int
	full   bool
}

// NewPitchHistory returns a history holding size values.
func NewPitchHistory(size int) *PitchHistory {
	return &PitchHistory{values: make([]float64, max(size, 1))}
}

// Push records a value, evicting the oldest one when full.
func (h *PitchHistory) Push(value float64) {
	h.values[h.next] = value
	h.next = (h.next + 1) % len(h.values)

	if h.next == 0 {
		h.full = true
	}
}

// Len returns the number of recorded values.
func (h *PitchHistory) Len() int {
	if h.full {
		return len(h.values)
	}

	return h.next
}

// Values returns the recorded values, oldest first.
func (h *PitchHistory) Values() []float64 {
	if !h.full {
		return append([]float64(nil), h.values[:h.next]...)
	}

	out := make([]float64, 0, len(h.values))
	out = append(out, h.values[h.next:]...)

	return append(out, h.values[:h.next]...)
}

// Tracker holds the displayed tuning state across evaluation results.
type Tracker struct {
	tolerance float64
	current   float64
	target    *types.TuningTarget
	history   *PitchHistory
}

// NewTracker returns a Tracker classifying with toleranceCents and recording smoothed frequencies
// into history.
func NewTracker(toleranceCents float64, history *PitchHistory) *Tracker {
	if history == nil {
		history = NewPitchHistory(1)
	}

	return &Tracker{
		tolerance: toleranceCents,
		history:   history,
	}
}

// Update consumes an evaluation result and returns the tuning state, the frequency it was computed
// from and its deviation in cents (0 when the state is unknown).
func (t *Tracker) Update(eval types.FrequencyEvaluationResult) (types.TuningState, float64, float64) {
	if eval.SmoothedFrequency > 0 {
		t.current = eval.SmoothedFrequency
		t.target = eval.Target
		t.history.Push(eval.SmoothedFrequency)
	}

	if eval.TimeSinceNoDetection > InactivityThreshold || t.target == nil {
		return types.TuningUnknown, t.current, 0
	}

	state := CheckTuning(t.current, t.target.Frequency, t.tolerance)
	if state == types.TuningUnknown {
		return state, t.current, 0
	}

	return state, t.current, CentsDeviation(t.current, t.target.Frequency)
}

// Target returns the last target, nil before the first detection.
func (t *Tracker) Target() *types.TuningTarget {
	return t.target
}
