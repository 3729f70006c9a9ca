package gzidx

import (
	"encoding/binary"
	"io"
)

// Persisted index format (little-endian). See SPEC_FULL.md §6.3. The fixed
// header is 50 bytes; each checkpoint header table entry is 32 bytes (the
// distilled spec's prose says "24 bytes each" but its own byte-offset table
// runs through offset 32 — this implementation follows the explicit field
// table, since that is the bit-exact authority, and records the prose
// figure as inconsistent rather than silently picking one without note;
// see DESIGN.md).
const (
	magicZIDX        = "ZIDX"
	headerSize       = 50
	checkpointHdrSize = 32
	fileTypeGzip     = 1
)

// Export serializes idx's checkpoint store and known sizes to w in the
// fixed binary layout.
func Export(idx *Index, w io.Writer) error {
	n := idx.store.count()

	header := make([]byte, headerSize)
	copy(header[0:4], magicZIDX)
	binary.LittleEndian.PutUint16(header[4:6], 0) // version
	binary.LittleEndian.PutUint16(header[6:8], 0) // checksum algorithm kind (reserved)

	runningChecksum, err := idx.WholeStreamChecksum()
	if err != nil {
		runningChecksum = 0
	}
	binary.LittleEndian.PutUint32(header[8:12], runningChecksum)
	binary.LittleEndian.PutUint32(header[12:16], 0) // header checksum (reserved)
	binary.LittleEndian.PutUint16(header[16:18], fileTypeGzip)
	binary.LittleEndian.PutUint64(header[18:26], uint64(idx.compressedSize))
	binary.LittleEndian.PutUint64(header[26:34], uint64(idx.uncompressedSize))
	binary.LittleEndian.PutUint32(header[34:38], 0) // file checksum (reserved)
	binary.LittleEndian.PutUint32(header[38:42], uint32(n))
	binary.LittleEndian.PutUint32(header[42:46], 0) // metadata checksum (reserved)
	binary.LittleEndian.PutUint32(header[46:50], 0) // flags (reserved)

	if _, err := w.Write(header); err != nil {
		return wrapErr(StreamWrite, err, "write index header")
	}

	// Compute each checkpoint's absolute window-bytes file offset up front:
	// header + all checkpoint-table entries + the running sum of prior
	// windows.
	tableBytes := int64(n) * checkpointHdrSize
	windowStart := int64(headerSize) + tableBytes

	offsets := make([]int64, n)
	cursor := windowStart
	for i := 0; i < n; i++ {
		ckp, _ := idx.store.get(i)
		offsets[i] = cursor
		cursor += int64(ckp.windowLength())
	}

	entry := make([]byte, checkpointHdrSize)
	for i := 0; i < n; i++ {
		ckp, _ := idx.store.get(i)
		binary.LittleEndian.PutUint64(entry[0:8], uint64(ckp.Offset.Uncomp))
		binary.LittleEndian.PutUint64(entry[8:16], uint64(ckp.Offset.Comp))
		entry[16] = ckp.Offset.BitsCount
		entry[17] = ckp.Offset.Byte
		binary.LittleEndian.PutUint64(entry[18:26], uint64(offsets[i]))
		binary.LittleEndian.PutUint16(entry[26:28], uint16(ckp.windowLength()))
		binary.LittleEndian.PutUint32(entry[28:32], ckp.Checksum)
		if _, err := w.Write(entry); err != nil {
			return wrapErr(StreamWrite, err, "write checkpoint header")
		}
	}

	for i := 0; i < n; i++ {
		ckp, _ := idx.store.get(i)
		if len(ckp.Window) == 0 {
			continue
		}
		if _, err := w.Write(ckp.Window); err != nil {
			return wrapErr(StreamWrite, err, "write checkpoint window")
		}
	}

	return nil
}

// Import reads a serialized index from r and, only on success, transplants
// its checkpoints and discovered sizes into idx. On any failure idx is left
// completely untouched (the shadow-index commit pattern): the read and
// parse work happens against a freshly built shadow Index-like structure,
// and only the final assignment touches the caller's Index.
func Import(idx *Index, r io.ReaderAt) error {
	if idx == nil {
		return newErr(Params, "nil Index")
	}

	header := make([]byte, headerSize)
	if _, err := readFullAt(r, header, 0); err != nil {
		return wrapErr(StreamRead, err, "read index header")
	}
	if string(header[0:4]) != magicZIDX {
		return newErr(Corrupted, "bad magic")
	}

	compressedSize := int64(binary.LittleEndian.Uint64(header[18:26]))
	uncompressedSize := int64(binary.LittleEndian.Uint64(header[26:34]))
	n := binary.LittleEndian.Uint32(header[38:42])
	if n > (1<<31)/checkpointHdrSize {
		return newErr(Overflow, "checkpoint count does not fit")
	}

	shadow := newCheckpointStore()
	tableStart := int64(headerSize)

	type rawEntry struct {
		uncomp, comp      int64
		bitsCount, ckByte byte
		winOffset         int64
		winLen            uint16
		crc               uint32
	}
	entries := make([]rawEntry, n)

	entryBuf := make([]byte, checkpointHdrSize)
	for i := uint32(0); i < n; i++ {
		if _, err := readFullAt(r, entryBuf, tableStart+int64(i)*checkpointHdrSize); err != nil {
			return wrapErr(StreamRead, err, "read checkpoint header")
		}
		e := rawEntry{
			uncomp:    int64(binary.LittleEndian.Uint64(entryBuf[0:8])),
			comp:      int64(binary.LittleEndian.Uint64(entryBuf[8:16])),
			bitsCount: entryBuf[16],
			ckByte:    entryBuf[17],
			winOffset: int64(binary.LittleEndian.Uint64(entryBuf[18:26])),
			winLen:    binary.LittleEndian.Uint16(entryBuf[26:28]),
			crc:       binary.LittleEndian.Uint32(entryBuf[28:32]),
		}
		if e.winLen > maxWindowLength {
			return newErr(Corrupted, "window length exceeds 32768")
		}
		entries[i] = e
	}

	for _, e := range entries {
		window := make([]byte, e.winLen)
		if e.winLen > 0 {
			if _, err := readFullAt(r, window, e.winOffset); err != nil {
				return wrapErr(StreamRead, err, "read checkpoint window")
			}
		}
		ckp := Checkpoint{
			Offset: Offset{
				Uncomp:    e.uncomp,
				Comp:      e.comp,
				BitsCount: e.bitsCount,
				Byte:      e.ckByte,
			},
			Window:   window,
			Checksum: e.crc,
		}
		if err := shadow.add(ckp); err != nil {
			return err
		}
	}

	// Commit: only now do we touch the caller's Index.
	idx.store = shadow
	idx.compressedSize = compressedSize
	idx.uncompressedSize = uncompressedSize
	return nil
}

func readFullAt(r io.ReaderAt, buf []byte, off int64) (int, error) {
	return io.ReadFull(&sectionReader{r: r, off: off}, buf)
}

// sectionReader is a minimal stand-in for io.SectionReader limited to
// sequential reads from a fixed starting offset, avoiding a dependency on
// knowing the underlying reader's total length.
type sectionReader struct {
	r   io.ReaderAt
	off int64
}

func (s *sectionReader) Read(p []byte) (int, error) {
	n, err := s.r.ReadAt(p, s.off)
	s.off += int64(n)
	return n, err
}
