package spectrum

import (
	"math"
	"testing"

	"github.com/farcloser/diapason/internal/signal"
	"github.com/farcloser/diapason/internal/testutils"
)

func TestAccurateWithoutPreviousIsBinFrequency(t *testing.T) {
	spec := NewFrequencySpectrum(100, 2.5)
	acc := NewAccurateSpectrumPeakFrequency(spec, nil)

	for _, idx := range []int{0, 1, 17, 99} {
		if got := acc.Frequency(idx); got != float64(idx)*2.5 {
			t.Fatalf("Frequency(%d) = %v", idx, got)
		}
	}
}

func TestAccurateIgnoresUnusablePrevious(t *testing.T) {
	spec := NewFrequencySpectrum(100, 2.5)
	spec.FramePosition = 10
	spec.Dt = 1e-3
	spec.AmplitudeSpectrumSquared[40] = 1

	same := NewFrequencySpectrum(100, 2.5)
	same.FramePosition = 10

	other := NewFrequencySpectrum(50, 5)

	for _, prev := range []*FrequencySpectrum{same, other} {
		if got := NewAccurateSpectrumPeakFrequency(spec, prev).Frequency(40); got != 100 {
			t.Fatalf("Frequency = %v, want 100", got)
		}
	}
}

func TestAccurateRefinesWithTimeShiftedSpectrum(t *testing.T) {
	const (
		sampleRate = 44100
		size       = 4096
		hop        = 3072
	)

	for _, freq := range []float64{82.41, 440.3, 1234.5} {
		samples := testutils.Sine(freq, sampleRate, 0.5, size+hop)

		analyzer := NewAnalyzer(signal.NewWindow(signal.WindowHann, size), BackendGonum)
		previous := analyzer.NewSpectrum(sampleRate)
		current := analyzer.NewSpectrum(sampleRate)

		analyzer.Compute(frameOf(samples[:size], 0, sampleRate), previous)
		analyzer.Compute(frameOf(samples[hop:hop+size], hop, sampleRate), current)

		idx := argmax(current.AmplitudeSpectrumSquared)

		coarse := NewAccurateSpectrumPeakFrequency(current, nil).Frequency(idx)
		if coarse != float64(idx)*current.Df {
			t.Fatalf("%v Hz: coarse = %v", freq, coarse)
		}

		refined := NewAccurateSpectrumPeakFrequency(current, previous).Frequency(idx)
		if math.Abs(refined-freq) > 0.05 {
			t.Fatalf("%v Hz: refined = %v", freq, refined)
		}
	}
}

func TestParabolicPeakFrequency(t *testing.T) {
	if got := ParabolicPeakFrequency([]float64{1, 4, 1}, 1, 10); got != 10 {
		t.Fatalf("symmetric peak = %v", got)
	}

	if got := ParabolicPeakFrequency([]float64{1, 4, 2}, 1, 10); got <= 10 || got >= 15 {
		t.Fatalf("right-leaning peak = %v", got)
	}

	if got := ParabolicPeakFrequency([]float64{0, 4, 2}, 1, 10); got != 10 {
		t.Fatalf("empty neighbor = %v", got)
	}

	if got := ParabolicPeakFrequency([]float64{4, 1, 2}, 0, 10); got != 0 {
		t.Fatalf("edge = %v", got)
	}
}
