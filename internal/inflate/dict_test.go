package inflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDictDecoderSnapshotBeforeWrap(t *testing.T) {
	var dd dictDecoder
	dd.init(16, nil)
	for _, c := range []byte("hello") {
		dd.writeByte(c)
	}
	dd.readFlush()

	require.Equal(t, []byte("hello"), dd.snapshot())
}

func TestDictDecoderSnapshotAfterWrapIsChronological(t *testing.T) {
	var dd dictDecoder
	dd.init(8, nil)

	// Write more than the window size so it wraps at least once.
	for i := 0; i < 20; i++ {
		dd.writeByte(byte('a' + i%8))
		if dd.availWrite() == 0 {
			dd.readFlush()
		}
	}
	dd.readFlush()

	snap := dd.snapshot()
	require.Len(t, snap, 8)
	// The last 8 bytes written, oldest first: indices 12..19 -> 'a'+(12%8)..'a'+(19%8)
	want := []byte{'a' + 4, 'a' + 5, 'a' + 6, 'a' + 7, 'a' + 0, 'a' + 1, 'a' + 2, 'a' + 3}
	require.Equal(t, want, snap)
}

func TestDictDecoderInitSeedsFromDictionary(t *testing.T) {
	var dd dictDecoder
	dd.init(8, []byte("abcdefgh"))
	require.True(t, dd.full)
	require.Equal(t, 8, dd.histSize())
}

func TestDictDecoderInitTruncatesOversizeDictionary(t *testing.T) {
	var dd dictDecoder
	dd.init(4, []byte("abcdefgh"))
	require.True(t, dd.full)
	require.Equal(t, []byte("efgh"), dd.snapshot())
}
