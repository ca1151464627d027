package evaluation

import (
	"math"
	"testing"

	"github.com/farcloser/diapason/internal/temperament"
	"github.com/farcloser/diapason/internal/types"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()

	scale, err := temperament.NewTemperament("edo12", 440)
	if err != nil {
		t.Fatalf("NewTemperament: %v", err)
	}

	chromatic, _ := temperament.ParseInstrument("chromatic")

	resolver, err := temperament.NewResolver(scale, chromatic, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	return NewEvaluator(Options{
		SmoothingWindow: 3,
		NumFaultyValues: 2,
		OutlierCents:    50,
		FrameAdvance:    0.1,
		ResetAfter:      1,
	}, resolver)
}

func TestEvaluatorInactivityTimer(t *testing.T) {
	e := newTestEvaluator(t)

	res := e.Evaluate(types.FrequencyDetectionResult{Time: 0.1, Frequency: 441})
	if res.SmoothedFrequency != 441 || res.TimeSinceNoDetection != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	if res.Target == nil || res.Target.Note.String() != "A4" {
		t.Fatalf("unexpected target %+v", res.Target)
	}

	res = e.Evaluate(types.FrequencyDetectionResult{Time: 0.3})
	if res.SmoothedFrequency != 0 || res.Target != nil || math.Abs(res.TimeSinceNoDetection-0.2) > 1e-9 {
		t.Fatalf("unexpected result %+v", res)
	}

	res = e.Evaluate(types.FrequencyDetectionResult{Time: 0.4})
	if math.Abs(res.TimeSinceNoDetection-0.3) > 1e-9 {
		t.Fatalf("time since = %v", res.TimeSinceNoDetection)
	}

	res = e.Evaluate(types.FrequencyDetectionResult{Time: 0.5, Frequency: 443})
	if res.TimeSinceNoDetection != 0 || math.Abs(res.SmoothedFrequency-442) > 1e-9 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEvaluatorRestartsSmoothingAfterSilence(t *testing.T) {
	e := newTestEvaluator(t)

	e.Evaluate(types.FrequencyDetectionResult{Time: 0.1, Frequency: 440})

	for i := 2; i <= 13; i++ {
		e.Evaluate(types.FrequencyDetectionResult{Time: float64(i) * 0.1})
	}

	res := e.Evaluate(types.FrequencyDetectionResult{Time: 1.4, Frequency: 330})
	if res.SmoothedFrequency != 330 {
		t.Fatalf("smoothing did not restart: %v", res.SmoothedFrequency)
	}
}

func TestTrackerStates(t *testing.T) {
	history := NewPitchHistory(4)
	tracker := NewTracker(5, history)
	target := &types.TuningTarget{Frequency: 440}

	state, current, _ := tracker.Update(types.FrequencyEvaluationResult{})
	if state != types.TuningUnknown || current != 0 {
		t.Fatalf("initial state %v, %v", state, current)
	}

	state, _, cents := tracker.Update(types.FrequencyEvaluationResult{SmoothedFrequency: 441, Target: target})
	if state != types.TuningInTune || cents <= 0 || cents > 5 {
		t.Fatalf("state %v, cents %v", state, cents)
	}

	// Frames without detection keep the last state until the inactivity threshold.
	state, current, _ = tracker.Update(types.FrequencyEvaluationResult{TimeSinceNoDetection: 0.4})
	if state != types.TuningInTune || current != 441 {
		t.Fatalf("state %v, current %v", state, current)
	}

	state, _, cents = tracker.Update(types.FrequencyEvaluationResult{TimeSinceNoDetection: 0.6})
	if state != types.TuningUnknown || cents != 0 {
		t.Fatalf("state %v after inactivity, cents %v", state, cents)
	}

	state, _, _ = tracker.Update(types.FrequencyEvaluationResult{SmoothedFrequency: 430, Target: target})
	if state != types.TuningTooLow {
		t.Fatalf("state %v", state)
	}

	if got := history.Values(); len(got) != 2 || got[0] != 441 || got[1] != 430 {
		t.Fatalf("history = %v", got)
	}
}

func TestPitchHistoryRing(t *testing.T) {
	h := NewPitchHistory(3)

	for i := 1; i <= 5; i++ {
		h.Push(float64(i))
	}

	got := h.Values()
	if h.Len() != 3 || len(got) != 3 || got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Fatalf("values = %v", got)
	}
}

func TestPitchHistorySize(t *testing.T) {
	if got := PitchHistorySize(3, 44100, 3072); got != 43 {
		t.Fatalf("size = %d, want 43", got)
	}

	if got := PitchHistorySize(0, 44100, 3072); got != 1 {
		t.Fatalf("size = %d, want 1", got)
	}
}
