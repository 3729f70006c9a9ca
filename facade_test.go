package gzidx

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamDeferredSeekCollapses(t *testing.T) {
	original := randomData(t, 50_000, 21, 22)
	compressed := buildGzip(t, original, 4096)

	idx, err := NewIndex(newMemStream(compressed), Gzip, 32768)
	require.NoError(t, err)
	require.NoError(t, idx.BuildIndex(4096, true))

	s := NewStream(idx)
	_, err = s.Seek(100, SeekSet)
	require.NoError(t, err)
	_, err = s.Seek(200, SeekSet)
	require.NoError(t, err)
	require.Equal(t, int64(200), s.Tell())

	out := make([]byte, 500)
	n, err := s.Read(out)
	require.NoError(t, err)
	require.Equal(t, original[200:200+int64(n)], out[:n])
}

func TestStreamCheckpointDirectory(t *testing.T) {
	original := randomData(t, 100_000, 23, 24)
	compressed := buildGzip(t, original, 4096)

	idx, err := NewIndex(newMemStream(compressed), Gzip, 32768)
	require.NoError(t, err)
	require.NoError(t, idx.BuildIndex(4096, true))

	s := NewStream(idx)
	count := s.CheckpointCount()
	require.Greater(t, count, 0)

	h, ok := s.CheckpointAt(0)
	require.True(t, ok)
	off, ok := s.CheckpointOffset(h)
	require.True(t, ok)
	require.GreaterOrEqual(t, off.Uncomp, int64(0))

	_, ok = s.CheckpointAt(count)
	require.False(t, ok)
}

func TestStreamEofAndLength(t *testing.T) {
	original := randomData(t, 10_000, 25, 26)
	compressed := buildGzip(t, original, 2048)

	idx, err := NewIndex(newMemStream(compressed), Gzip, 32768)
	require.NoError(t, err)

	s := NewStream(idx)
	require.False(t, s.Eof())

	var out bytes.Buffer
	buf := make([]byte, 1024)
	for !s.Eof() {
		n, err := s.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err != nil {
			require.NoError(t, err)
		}
		if n == 0 && s.Eof() {
			break
		}
	}

	require.Equal(t, original, out.Bytes())
	require.Equal(t, int64(len(original)), s.Length())

	// Sanity-check buildGzip/gzip.Writer usage still matches the stdlib gzip
	// format itself (no bespoke framing sneaking in).
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	var stdOut bytes.Buffer
	_, err = stdOut.ReadFrom(r)
	require.NoError(t, err)
	require.Equal(t, original, stdOut.Bytes())
}
