package ffmpeg

import (
	"strconv"
	"time"

	"github.com/farcloser/diapason/internal/types"
)

const (
	name = "ffmpeg"
	// Decoding a long recording from a slow disk takes a while.
	timeout = 5 * time.Minute
)

// sampleSpec returns the raw output format and codec for a bit depth, s32le and pcm_s32le for 32.
func sampleSpec(bitDepth types.BitDepth) (string, string) {
	//nolint:gosec // bit depths are small constants
	spec := "s" + strconv.Itoa(int(bitDepth)) + "le"

	return spec, "pcm_" + spec
}
