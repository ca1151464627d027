package spectrum

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	godsp "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/diapason/internal/signal"
)

var ErrUnknownBackend = errors.New("unknown transform backend")

// Backend selects the FFT implementation.
type Backend int

const (
	BackendGonum Backend = iota
	BackendGoDSP
)

func (b Backend) String() string {
	switch b {
	case BackendGonum:
		return "gonum"
	case BackendGoDSP:
		return "godsp"
	}

	return "unknown"
}

// ParseBackend converts a name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "gonum", "":
		return BackendGonum, nil
	case "godsp":
		return BackendGoDSP, nil
	default:
		return 0, fmt.Errorf("%w %q (valid: gonum, godsp)", ErrUnknownBackend, name)
	}
}

// Transformer computes the one-sided spectrum (len(in)/2+1 coefficients) of a real sequence.
type Transformer interface {
	Forward(dst []complex128, in []float64) []complex128
}

// NewTransformer returns a Transformer for sequences of size samples.
func NewTransformer(backend Backend, size int) Transformer {
	if backend == BackendGoDSP {
		return &godspTransform{}
	}

	return &gonumTransform{fft: fourier.NewFFT(size)}
}

type gonumTransform struct {
	fft *fourier.FFT
}

func (t *gonumTransform) Forward(dst []complex128, in []float64) []complex128 {
	return t.fft.Coefficients(dst, in)
}

type godspTransform struct{}

func (*godspTransform) Forward(dst []complex128, in []float64) []complex128 {
	full := godsp.FFTReal(in)

	return append(dst[:0], full[:len(in)/2+1]...)
}

// Analyzer windows frames and turns them into spectra. It is not safe for concurrent use.
type Analyzer struct {
	size        int
	window      *signal.Window
	transformer Transformer
	windowed    []float64
	coeffs      []complex128
}

// NewAnalyzer returns an Analyzer for frames matching the window size.
func NewAnalyzer(window *signal.Window, backend Backend) *Analyzer {
	size := window.Size()

	return &Analyzer{
		size:        size,
		window:      window,
		transformer: NewTransformer(backend, size),
		windowed:    make([]float64, size),
		coeffs:      make([]complex128, size/2+1),
	}
}

// NewSpectrum allocates a spectrum matching the analyzer frame size.
func (a *Analyzer) NewSpectrum(sampleRate int) *FrequencySpectrum {
	spec := NewFrequencySpectrum(a.size/2+1, float64(sampleRate)/float64(a.size))
	spec.Dt = 1 / float64(sampleRate)

	return spec
}

// Compute fills dst with the spectrum of the windowed frame.
func (a *Analyzer) Compute(ts *signal.TimeSeries, dst *FrequencySpectrum) {
	a.window.Apply(a.windowed, ts.Values)
	a.coeffs = a.transformer.Forward(a.coeffs, a.windowed)

	for i, c := range a.coeffs {
		dst.Spectrum[2*i] = real(c)
		dst.Spectrum[2*i+1] = imag(c)
		dst.re[i] = real(c)
		dst.im[i] = imag(c)
	}

	dst.FramePosition = ts.FramePosition
	dst.Dt = ts.Dt

	vecmath.Power(dst.AmplitudeSpectrumSquared, dst.re, dst.im)

	norm := 2 * float64(a.size)
	floats.Scale(1/(norm*norm), dst.AmplitudeSpectrumSquared)

	copy(dst.PlottingSpectrumNormalized, dst.AmplitudeSpectrumSquared)

	if peak := floats.Max(dst.AmplitudeSpectrumSquared); peak > 0 {
		floats.Scale(1/peak, dst.PlottingSpectrumNormalized)
	}
}
