package gzidx

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportRejectsBadMagic(t *testing.T) {
	idx, err := NewIndex(newMemStream(nil), Gzip, 32768)
	require.NoError(t, err)

	bad := make([]byte, headerSize)
	copy(bad, "NOPE")
	err = Import(idx, bytes.NewReader(bad))
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, Corrupted, code)
}

func TestImportLeavesIndexUntouchedOnFailure(t *testing.T) {
	original := randomData(t, 40_000, 31, 32)
	compressed := buildGzip(t, original, 4096)

	idx, err := NewIndex(newMemStream(compressed), Gzip, 32768)
	require.NoError(t, err)
	require.NoError(t, idx.BuildIndex(4096, true))

	before := idx.Checkpoints()

	// Magic is valid and the header claims one checkpoint entry, but the
	// entry table itself is missing entirely, so the read must fail.
	truncated := make([]byte, headerSize)
	copy(truncated, magicZIDX)
	binary.LittleEndian.PutUint32(truncated[38:42], 1)
	err = Import(idx, bytes.NewReader(truncated))
	require.Error(t, err)

	require.Equal(t, before, idx.Checkpoints())
}

func TestImportRejectsOversizeWindowLength(t *testing.T) {
	idx, err := NewIndex(newMemStream(nil), Gzip, 32768)
	require.NoError(t, err)

	header := make([]byte, headerSize)
	copy(header, magicZIDX)
	binary.LittleEndian.PutUint32(header[38:42], 1) // one checkpoint entry

	entry := make([]byte, checkpointHdrSize)
	binary.LittleEndian.PutUint16(entry[26:28], 0xFFFF) // window length far exceeding 32768

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(entry)

	err = Import(idx, bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, Corrupted, code)
}
