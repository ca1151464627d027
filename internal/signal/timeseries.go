// Package signal holds the time domain side of the pipeline: frames, framing and windowing.
package signal

// TimeSeries is a fixed size frame of equally spaced samples.
type TimeSeries struct {
	Size          int
	Dt            float64 // seconds between two samples
	FramePosition int64   // absolute sample offset of Values[0] in the input stream
	Values        []float64
}

// NewTimeSeries allocates a zeroed frame.
func NewTimeSeries(size int, dt float64) *TimeSeries {
	return &TimeSeries{
		Size:   size,
		Dt:     dt,
		Values: make([]float64, size),
	}
}

// Duration returns the time covered by the frame in seconds.
func (ts *TimeSeries) Duration() float64 {
	return float64(ts.Size) * ts.Dt
}

// EndTime returns the stream time at the end of the frame in seconds.
func (ts *TimeSeries) EndTime() float64 {
	return float64(ts.FramePosition+int64(ts.Size)) * ts.Dt
}
