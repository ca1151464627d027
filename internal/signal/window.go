package signal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/window"
)

var ErrUnknownWindow = errors.New("unknown window")

// WindowKind selects the window function applied before the transform.
type WindowKind int

const (
	WindowHann WindowKind = iota
	WindowHamming
	WindowBlackman
	WindowBlackmanNuttall
	WindowNuttall
	WindowRectangular
	WindowLanczos
)

var windowNames = map[WindowKind]string{
	WindowHann:            "hann",
	WindowHamming:         "hamming",
	WindowBlackman:        "blackman",
	WindowBlackmanNuttall: "blackman-nuttall",
	WindowNuttall:         "nuttall",
	WindowRectangular:     "rectangular",
	WindowLanczos:         "lanczos",
}

func (k WindowKind) String() string {
	if name, ok := windowNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseWindow converts a name to a WindowKind.
func ParseWindow(name string) (WindowKind, error) {
	if name == "" {
		return WindowHann, nil
	}

	for kind, known := range windowNames {
		if strings.EqualFold(known, name) {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("%w %q (valid: hann, hamming, blackman, blackman-nuttall, nuttall, rectangular, lanczos)",
		ErrUnknownWindow, name)
}

// Window holds precomputed window coefficients for a frame size.
type Window struct {
	kind   WindowKind
	coeffs []float64
}

// NewWindow computes the coefficients of kind for frames of size samples.
func NewWindow(kind WindowKind, size int) *Window {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}

	switch kind {
	case WindowHamming:
		window.Hamming(coeffs)
	case WindowBlackman:
		window.Blackman(coeffs)
	case WindowBlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case WindowNuttall:
		window.Nuttall(coeffs)
	case WindowLanczos:
		window.Lanczos(coeffs)
	case WindowRectangular:
	default:
		window.Hann(coeffs)
	}

	return &Window{kind: kind, coeffs: coeffs}
}

// Kind returns the window function.
func (w *Window) Kind() WindowKind {
	return w.kind
}

// Size returns the number of coefficients.
func (w *Window) Size() int {
	return len(w.coeffs)
}

// Apply writes src multiplied by the window into dst. Both must have the window size.
func (w *Window) Apply(dst, src []float64) {
	vecmath.MulBlock(dst, src, w.coeffs)
}
