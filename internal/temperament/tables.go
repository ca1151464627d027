package temperament

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultReferenceFrequency is the frequency of A4.
const DefaultReferenceFrequency = 440.0

var chromaticNames = []string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "G#", "A", "Bb", "B"}

const (
	referenceStep   = 9 // A
	referenceOctave = 4
)

// Cents above C of the twelve notes of well known historical temperaments.
var twelveToneTables = map[string][]float64{
	"pythagorean": {
		0, 113.685, 203.910, 294.135, 407.820, 498.045, 611.730, 701.955, 815.640, 905.865, 996.090, 1109.775,
	},
	"pure": {
		0, 111.731, 203.910, 315.641, 386.314, 498.045, 590.224, 701.955, 813.686, 884.359, 1017.596, 1088.269,
	},
	"quarter-comma-meantone": {
		0, 76.049, 193.157, 310.265, 386.314, 503.422, 579.471, 696.578, 772.627, 889.735, 1006.843, 1082.892,
	},
	"werckmeister3": {
		0, 90.225, 192.180, 294.135, 390.225, 498.045, 588.270, 696.090, 792.180, 888.270, 996.090, 1092.180,
	},
}

var equalDivisions = []int{12, 17, 19, 24, 31, 41, 53}

// Temperaments lists the names accepted by NewTemperament.
func Temperaments() []string {
	names := make([]string, 0, len(equalDivisions)+len(twelveToneTables))
	for _, n := range equalDivisions {
		names = append(names, fmt.Sprintf("edo%d", n))
	}

	for name := range twelveToneTables {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// NewTemperament returns the named scale with A4 (or its closest step) at referenceFrequency.
func NewTemperament(name string, referenceFrequency float64) (*Scale, error) {
	if referenceFrequency <= 0 {
		referenceFrequency = DefaultReferenceFrequency
	}

	name = strings.ToLower(name)
	if name == "" {
		name = "edo12"
	}

	if table, ok := twelveToneTables[name]; ok {
		return NewScale(name, table, chromaticNames, referenceStep, referenceOctave, referenceFrequency), nil
	}

	for _, n := range equalDivisions {
		if name == fmt.Sprintf("edo%d", n) {
			return equalTemperament(name, n, referenceFrequency), nil
		}
	}

	return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownTemperament, name, strings.Join(Temperaments(), ", "))
}

func equalTemperament(name string, divisions int, referenceFrequency float64) *Scale {
	cents := make([]float64, divisions)
	for i := range cents {
		cents[i] = 1200 * float64(i) / float64(divisions)
	}

	if divisions == len(chromaticNames) {
		return NewScale(name, cents, chromaticNames, referenceStep, referenceOctave, referenceFrequency)
	}

	// Steps are named after the closest chromatic note, with a step offset when they differ.
	names := make([]string, divisions)
	reference := 0

	for i, c := range cents {
		nearest := int(c/100 + 0.5)
		offset := c - float64(nearest)*100
		base := chromaticNames[nearest%len(chromaticNames)]

		switch {
		case offset > 1:
			names[i] = base + "^"
		case offset < -1:
			names[i] = base + "v"
		default:
			names[i] = base
		}

		if absFloat(c-900) < absFloat(cents[reference]-900) {
			reference = i
		}
	}

	// Several steps may share the same label; suffix them to keep names unique.
	seen := map[string]int{}
	for i, n := range names {
		seen[n]++
		if seen[n] > 1 {
			names[i] = fmt.Sprintf("%s%s", n, strings.Repeat("'", seen[n]-1))
		}
	}

	return NewScale(name, cents, names, reference, referenceOctave, referenceFrequency)
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}

	return x
}
