package pcm

const (
	MaxValue16 = 32768.0      // 2^15, 16-bit signed PCM normalization divisor
	MaxValue24 = 8388608.0    // 2^23, 24-bit signed PCM normalization divisor
	MaxValue32 = 2147483648.0 // 2^31, 32-bit signed PCM normalization divisor
)

// maxValue returns the normalization divisor for a bit depth, or 0 when unsupported.
func maxValue(bitDepth int) float64 {
	switch bitDepth {
	case 16:
		return MaxValue16
	case 24:
		return MaxValue24
	case 32:
		return MaxValue32
	default:
		return 0
	}
}
