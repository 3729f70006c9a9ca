package inflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanDecoderInitPanicsOnOverfullLengths(t *testing.T) {
	// Three symbols all claiming a 1-bit code is an overfull/incomplete
	// Kraft sum; the sanity check catches it rather than building a bad table.
	var h huffmanDecoder
	require.Panics(t, func() {
		h.init([]int{1, 1, 1})
	})
}

func TestHuffmanDecoderInitAcceptsFixedLiteralLengths(t *testing.T) {
	fixedOnce.Do(func() {})
	var h huffmanDecoder
	lengths := make([]int, maxNumLit+2)
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	ok := h.init(lengths)
	require.True(t, ok)
	require.Greater(t, h.min, 0)
}

func TestHuffmanDecoderInitHandlesSingleCodeLength(t *testing.T) {
	var h huffmanDecoder
	// A single symbol with a nonzero length is a valid degenerate code.
	ok := h.init([]int{1})
	require.True(t, ok)
}

func TestHuffmanDecoderInitAllZeroLengthsIsEmptyCode(t *testing.T) {
	var h huffmanDecoder
	ok := h.init([]int{0, 0, 0})
	require.True(t, ok)
}
