package signal

import "math"

// HopSize returns the number of samples between two frame starts for the given overlap in [0, 1).
func HopSize(size int, overlap float64) int {
	return max(1, int(math.Round(float64(size)*(1-overlap))))
}

// Framer cuts a continuous sample stream into overlapping frames.
type Framer struct {
	size  int
	hop   int
	dt    float64
	start int64
	buf   []float64
}

// NewFramer returns a Framer emitting size-sample frames every hop samples.
func NewFramer(size, hop, sampleRate int) *Framer {
	return &Framer{
		size: size,
		hop:  hop,
		dt:   1 / float64(sampleRate),
		buf:  make([]float64, 0, 2*size),
	}
}

// Size returns the frame size in samples.
func (f *Framer) Size() int {
	return f.size
}

// Hop returns the frame advance in samples.
func (f *Framer) Hop() int {
	return f.hop
}

// Push appends samples to the pending stream.
func (f *Framer) Push(samples []float64) {
	f.buf = append(f.buf, samples...)
}

// Next fills ts with the next complete frame and reports whether one was available.
func (f *Framer) Next(ts *TimeSeries) bool {
	if len(f.buf) < f.size {
		return false
	}

	if len(ts.Values) != f.size {
		ts.Values = make([]float64, f.size)
	}

	copy(ts.Values, f.buf[:f.size])
	ts.Size = f.size
	ts.Dt = f.dt
	ts.FramePosition = f.start

	f.buf = f.buf[:copy(f.buf, f.buf[f.hop:])]
	f.start += int64(f.hop)

	return true
}
