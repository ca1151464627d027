// Package peaks locates maxima in spectrum-like arrays. Finders return -1 when no acceptable peak exists.
package peaks

import "math"

const minGlobalRange = 3

// FindGlobalMaximumIndex returns the index of the largest value in [begin, end).
//
// The first and last array elements are never candidates. A maximum sitting on begin or end-1 is
// treated as the slope of a peak outside the range and rejected. Ranges shorter than three
// elements yield -1.
func FindGlobalMaximumIndex(begin, end int, values []float64) int {
	if end-begin < minGlobalRange {
		return -1
	}

	lo := max(begin, 1)
	hi := min(end, len(values)-1)

	if hi <= lo {
		return -1
	}

	idx := lo
	for i := lo + 1; i < hi; i++ {
		if values[i] > values[idx] {
			idx = i
		}
	}

	if idx == begin || idx == end-1 {
		return -1
	}

	return idx
}

// FindLocalMaximumIndex looks for a peak within searchRadius of the fractional index center.
//
// The candidate is the largest interior value in [center-searchRadius, center+searchRadius]. It is
// accepted when it is a local maximum, strictly larger than the mean of its halfWidth neighbors
// on each side (itself excluded, clipped to the array), and at least minPeakRatio times that mean.
func FindLocalMaximumIndex(values []float64, center, searchRadius, minPeakRatio float64, halfWidth int) int {
	begin := max(int(math.Ceil(center-searchRadius)), 1)
	end := min(int(math.Floor(center+searchRadius))+1, len(values)-1)

	if end <= begin {
		return -1
	}

	idx := begin
	for i := begin + 1; i < end; i++ {
		if values[i] > values[idx] {
			idx = i
		}
	}

	if values[idx] < values[idx-1] || values[idx] < values[idx+1] {
		return -1
	}

	lo := max(idx-halfWidth, 0)
	hi := min(idx+halfWidth+1, len(values))

	var (
		sum   float64
		count int
	)

	for i := lo; i < hi; i++ {
		if i != idx {
			sum += values[i]
			count++
		}
	}

	if count == 0 {
		return -1
	}

	mean := sum / float64(count)
	if values[idx] <= mean || values[idx] < minPeakRatio*mean {
		return -1
	}

	return idx
}
