package signal

import (
	"math"
	"testing"
)

func TestWindowApply(t *testing.T) {
	const size = 64

	src := make([]float64, size)
	for i := range src {
		src[i] = 2
	}

	dst := make([]float64, size)

	NewWindow(WindowRectangular, size).Apply(dst, src)

	for i, v := range dst {
		if v != 2 {
			t.Fatalf("rectangular[%d] = %v", i, v)
		}
	}

	NewWindow(WindowHann, size).Apply(dst, src)

	if math.Abs(dst[0]) > 1e-12 || math.Abs(dst[size-1]) > 1e-12 {
		t.Fatalf("hann edges not zero: %v %v", dst[0], dst[size-1])
	}

	for i := range size / 2 {
		if math.Abs(dst[i]-dst[size-1-i]) > 1e-12 {
			t.Fatalf("hann not symmetric at %d", i)
		}
	}
}

func TestParseWindow(t *testing.T) {
	for _, kind := range []WindowKind{
		WindowHann, WindowHamming, WindowBlackman, WindowBlackmanNuttall, WindowNuttall, WindowRectangular,
		WindowLanczos,
	} {
		got, err := ParseWindow(kind.String())
		if err != nil || got != kind {
			t.Fatalf("ParseWindow(%q) = %v, %v", kind.String(), got, err)
		}

		if w := NewWindow(kind, 16); w.Kind() != kind || w.Size() != 16 {
			t.Fatalf("NewWindow(%v) = kind %v, size %d", kind, w.Kind(), w.Size())
		}
	}

	if got, err := ParseWindow(""); err != nil || got != WindowHann {
		t.Fatalf("default window = %v, %v", got, err)
	}

	if _, err := ParseWindow("kaiser"); err == nil {
		t.Fatalf("unknown window accepted")
	}
}
