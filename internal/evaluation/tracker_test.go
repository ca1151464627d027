package evaluation

import (
	"math"
	"slices"
	"testing"

	"github.com/farcloser/diapason/internal/types"
)

func TestPitchHistory(t *testing.T) {
	h := NewPitchHistory(3)

	if h.Len() != 0 || len(h.Values()) != 0 {
		t.Fatalf("new history not empty")
	}

	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Push(v)
	}

	if h.Len() != 3 {
		t.Fatalf("Len = %d", h.Len())
	}

	if got := h.Values(); !slices.Equal(got, []float64{3, 4, 5}) {
		t.Fatalf("Values = %v", got)
	}
}

func TestPitchHistorySize(t *testing.T) {
	tests := []struct {
		duration   float64
		sampleRate int
		hop        int
		want       int
	}{
		{3, 44100, 3072, 43},
		{3, 48000, 3072, 47},
		{0.01, 44100, 4096, 1},
		{3, 44100, 0, 1},
	}

	for _, tc := range tests {
		if got := PitchHistorySize(tc.duration, tc.sampleRate, tc.hop); got != tc.want {
			t.Errorf("PitchHistorySize(%v, %d, %d) = %d, want %d", tc.duration, tc.sampleRate, tc.hop, got, tc.want)
		}
	}
}

func TestTracker(t *testing.T) {
	a4 := &types.TuningTarget{Note: types.MusicalNote{Base: "A", Octave: 4}, Frequency: 440}
	history := NewPitchHistory(4)
	tracker := NewTracker(5, history)

	state, _, _ := tracker.Update(types.FrequencyEvaluationResult{})
	if state != types.TuningUnknown || tracker.Target() != nil {
		t.Fatalf("state before any detection = %v", state)
	}

	state, current, cents := tracker.Update(types.FrequencyEvaluationResult{SmoothedFrequency: 441, Target: a4})
	if state != types.TuningInTune || current != 441 || math.Abs(cents-3.93) > 0.01 {
		t.Fatalf("got %v %v %v", state, current, cents)
	}

	// A short gap keeps the last classification.
	state, current, _ = tracker.Update(types.FrequencyEvaluationResult{TimeSinceNoDetection: 0.3})
	if state != types.TuningInTune || current != 441 {
		t.Fatalf("short gap: %v %v", state, current)
	}

	state, _, cents = tracker.Update(types.FrequencyEvaluationResult{TimeSinceNoDetection: 0.6})
	if state != types.TuningUnknown || cents != 0 {
		t.Fatalf("long gap: %v %v", state, cents)
	}

	state, _, _ = tracker.Update(types.FrequencyEvaluationResult{SmoothedFrequency: 430, Target: a4})
	if state != types.TuningTooLow {
		t.Fatalf("state %v", state)
	}

	if history.Len() != 2 {
		t.Fatalf("history %v", history.Values())
	}
}
