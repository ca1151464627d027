package signal

import "testing"

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}

	return out
}

func TestHopSize(t *testing.T) {
	tests := []struct {
		size    int
		overlap float64
		want    int
	}{
		{4096, 0, 4096},
		{4096, 0.25, 3072},
		{4096, 0.5, 2048},
		{128, 0.999, 1},
	}

	for _, tc := range tests {
		if got := HopSize(tc.size, tc.overlap); got != tc.want {
			t.Fatalf("HopSize(%d, %v) = %d, want %d", tc.size, tc.overlap, got, tc.want)
		}
	}
}

func TestFramerEmitsOverlappingFrames(t *testing.T) {
	framer := NewFramer(8, 6, 100)
	ts := NewTimeSeries(8, 0)

	framer.Push(ramp(7))

	if framer.Next(ts) {
		t.Fatalf("frame emitted before enough samples")
	}

	// Push in uneven chunks to check continuity.
	all := ramp(30)
	framer.Push(all[7:11])
	framer.Push(all[11:30])

	var positions []int64

	for framer.Next(ts) {
		positions = append(positions, ts.FramePosition)

		for i, v := range ts.Values {
			if v != float64(ts.FramePosition)+float64(i) {
				t.Fatalf("frame at %d: value %d = %v", ts.FramePosition, i, v)
			}
		}

		if ts.Dt != 0.01 || ts.Size != 8 {
			t.Fatalf("dt = %v, size = %d", ts.Dt, ts.Size)
		}
	}

	want := []int64{0, 6, 12, 18}
	if len(positions) != len(want) {
		t.Fatalf("positions = %v, want %v", positions, want)
	}

	for i := range want {
		if positions[i] != want[i] {
			t.Fatalf("positions = %v, want %v", positions, want)
		}
	}
}

func TestTimeSeriesTimes(t *testing.T) {
	ts := NewTimeSeries(100, 0.01)
	ts.FramePosition = 50

	if ts.Duration() != 1 {
		t.Fatalf("duration = %v", ts.Duration())
	}

	if ts.EndTime() != 1.5 {
		t.Fatalf("end time = %v", ts.EndTime())
	}
}
