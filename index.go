// Package gzidx builds and consumes a random-access index into a gzip,
// zlib, or raw DEFLATE byte stream, letting a caller seek to an arbitrary
// uncompressed offset without replaying the stream from the start.
package gzidx

import (
	"io"

	"github.com/dselans/gzidx/internal/gzipheader"
	"github.com/dselans/gzidx/internal/inflate"
)

// StreamState is the IndexEngine's state machine position.
type StreamState int

const (
	Invalid StreamState = iota
	FileHeaders
	DeflateBlocks
	FileTrailer
	EndOfFile
)

// StreamType selects which framing wraps the raw DEFLATE payload.
type StreamType int

const (
	Deflate StreamType = iota
	Gzip
	GzipOrZlib
)

// ChecksumMode names a checksum policy, carried over from the original C
// implementation's zidx_checksum_option (see DESIGN.md / SPEC_FULL.md
// SUPPLEMENTED FEATURES). An Index stores its mode, but no operation
// consults it: checkpoint checksums are never validated against the
// stream's own trailer, whatever the mode.
type ChecksumMode int

const (
	ChecksumDisabled ChecksumMode = iota
	ChecksumDefault
	ChecksumForceCrc32
	ChecksumForceAdler32
)

// BoundaryFunc is invoked at every DEFLATE block boundary reached during
// Read, Seek, or BuildIndex. Returning a non-nil error aborts the enclosing
// operation and surfaces a Callback-coded Error.
type BoundaryFunc func(idx *Index, at Offset) error

const (
	defaultInputBufSize  = 32 * 1024
	defaultSeekDiscard   = 32 * 1024
)

// Index owns a CheckpointStore, a bound ByteStream, an InflateDriver, and
// the current OffsetTracker position. It is the central type of this
// package; see SPEC_FULL.md §3–4 for its full contract.
type Index struct {
	stream       ByteStream
	driver       *inflate.Driver
	tracker      *offsetTracker
	store        *checkpointStore
	state        StreamState
	streamType   StreamType
	checksumMode ChecksumMode
	windowSize   int

	inBuf        []byte
	seekDiscard  []byte

	compressedSize   int64 // -1 until known
	uncompressedSize int64 // -1 until known
}

// NewIndex creates an Index bound to stream, ready to read from the
// beginning. windowSize is validated as a power of 2 in [512, 32768]; per
// an Open Question resolution (see DESIGN.md) values below 32768 are
// accepted but rounded up, since the adapted inflate engine's dictionary is
// fixed at 32768 bytes.
func NewIndex(stream ByteStream, streamType StreamType, windowSize int) (*Index, error) {
	if stream == nil {
		return nil, newErr(Params, "nil ByteStream")
	}
	if windowSize <= 0 {
		return nil, newErr(Params, "window_size must be positive")
	}
	if windowSize&(windowSize-1) != 0 || windowSize < 512 || windowSize > maxWindowLength {
		return nil, newErr(Params, "window_size must be a power of 2 in [512, 32768]")
	}
	if windowSize < maxWindowLength {
		windowSize = maxWindowLength
	}

	idx := &Index{
		stream:           stream,
		driver:           inflate.NewDriver(),
		tracker:          newOffsetTracker(),
		store:            newCheckpointStore(),
		state:            FileHeaders,
		streamType:       streamType,
		checksumMode:     ChecksumDefault,
		windowSize:       windowSize,
		inBuf:            make([]byte, defaultInputBufSize),
		seekDiscard:      make([]byte, defaultSeekDiscard),
		compressedSize:   -1,
		uncompressedSize: -1,
	}
	return idx, nil
}

// SetChecksumMode records mode on the Index. The mode is only stored: every
// value, ForceAdler32 included, is accepted and changes no operation's
// behaviour.
func (idx *Index) SetChecksumMode(mode ChecksumMode) {
	idx.checksumMode = mode
}

// State reports the current StreamState.
func (idx *Index) State() StreamState {
	return idx.state
}

// CompressedSize returns the discovered compressed length, or -1 if not yet
// known (the trailer hasn't been reached and no imported index supplied it).
func (idx *Index) CompressedSize() int64 {
	return idx.compressedSize
}

// UncompressedSize returns the discovered uncompressed length, or -1 if not
// yet known.
func (idx *Index) UncompressedSize() int64 {
	return idx.uncompressedSize
}

// Destroy releases the Index's owned resources. It is a defined no-op on an
// already-destroyed Index.
func (idx *Index) Destroy() error {
	if idx == nil {
		return newErr(Params, "destroy of nil Index")
	}
	if idx.driver != nil {
		idx.driver.End()
		idx.driver = nil
	}
	idx.store = nil
	idx.inBuf = nil
	idx.seekDiscard = nil
	idx.state = EndOfFile
	return nil
}

type streamByteReader struct {
	s   ByteStream
	one [1]byte
}

func (r *streamByteReader) Read(p []byte) (int, error) {
	n, err := r.s.Read(p)
	if n == 0 && err == nil && r.s.Eof() {
		return 0, io.EOF
	}
	return n, err
}

func (r *streamByteReader) ReadByte() (byte, error) {
	n, err := r.Read(r.one[:])
	if n == 1 {
		return r.one[0], err
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

// Read behaves as specified in SPEC_FULL.md §4.5. cb may be nil.
func (idx *Index) Read(buf []byte, cb BoundaryFunc) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	switch idx.state {
	case Invalid:
		return 0, newErr(Corrupted, "index is in an invalid state")
	case EndOfFile:
		return 0, nil
	case FileHeaders:
		if err := idx.readHeaders(cb); err != nil {
			idx.state = Invalid
			return 0, err
		}
		idx.state = DeflateBlocks
		fallthrough
	case DeflateBlocks:
		return idx.readBlocks(buf, cb)
	case FileTrailer:
		if err := idx.readTrailer(); err != nil {
			idx.state = Invalid
			return 0, err
		}
		idx.state = EndOfFile
		return 0, nil
	}
	return 0, newErr(Corrupted, "unreachable state")
}

func (idx *Index) readHeaders(cb BoundaryFunc) error {
	idx.driver.Reset()

	if idx.streamType != Deflate {
		br := &streamByteReader{s: idx.stream}
		var consumed int64
		var err error
		switch idx.streamType {
		case Gzip:
			_, consumed, err = gzipheader.ReadGzipHeader(br)
		case GzipOrZlib:
			var peek [2]byte
			n, rerr := io.ReadFull(br, peek[:])
			consumed += int64(n)
			if rerr != nil {
				return wrapErr(StreamRead, rerr, "read stream-type probe bytes")
			}
			_, n2, rerr := gzipheader.DetectAndRead(peek, br)
			consumed += n2
			err = rerr
		}
		if err != nil {
			return wrapErr(StreamRead, err, "read stream header")
		}
		idx.tracker.cur.Comp += consumed
	}

	if cb != nil {
		if err := cb(idx, idx.tracker.cur); err != nil {
			return wrapErr(Callback, err, "header boundary callback")
		}
	}
	return nil
}

func (idx *Index) readBlocks(buf []byte, cb BoundaryFunc) (int, error) {
	total := 0
	needInput := false
	for total < len(buf) {
		if needInput || idx.driver.Pending() == 0 {
			needInput = false
			n, err := idx.stream.Read(idx.inBuf)
			if n > 0 {
				idx.driver.Feed(idx.inBuf[:n])
			}
			if n == 0 {
				if idx.stream.Eof() {
					return total, wrapErr(StreamEof, io.EOF, "unexpected end of compressed stream")
				}
				if err == nil {
					err = idx.stream.Err()
				}
				if err != nil {
					return total, wrapErr(StreamRead, err, "read compressed stream")
				}
			}
		}

		beforeC := idx.driver.BytesConsumed()
		beforeP := idx.driver.BytesProduced()
		n, report, err := idx.driver.InflateUntilBoundary(buf[total:])
		afterC := idx.driver.BytesConsumed()
		afterP := idx.driver.BytesProduced()

		produced := buf[total : total+n]
		idx.tracker.advance(afterC-beforeC, afterP-beforeP, produced, report.Boundary, report.UnusedBits, idx.driver.StraddleByte())
		total += n

		if err != nil && err != io.EOF {
			if err == inflate.ErrNeedMoreInput {
				needInput = true
				continue
			}
			return total, wrapErr(Zlib, err, "inflate error")
		}

		if report.Boundary {
			if report.IsLastBlock {
				if idx.streamType == Deflate {
					idx.state = EndOfFile
					idx.compressedSize = idx.tracker.cur.Comp
					idx.uncompressedSize = idx.tracker.cur.Uncomp
				} else {
					idx.state = FileTrailer
				}
			}
			if cb != nil {
				if cberr := cb(idx, idx.tracker.cur); cberr != nil {
					return total, wrapErr(Callback, cberr, "block boundary callback")
				}
			}
			if report.IsLastBlock {
				return total, nil
			}
		}

		if err == io.EOF {
			return total, nil
		}
	}
	return total, nil
}

func (idx *Index) readTrailer() error {
	need := gzipheader.TrailerLen
	pending := idx.driver.DrainPending(need)
	idx.tracker.cur.Comp += int64(len(pending))
	need -= len(pending)

	for need > 0 {
		n, err := idx.stream.Read(idx.seekDiscard[:need])
		idx.tracker.cur.Comp += int64(n)
		need -= n
		if n == 0 {
			if idx.stream.Eof() {
				return wrapErr(StreamEof, io.EOF, "truncated trailer")
			}
			if err != nil {
				return wrapErr(StreamRead, err, "read trailer")
			}
		}
	}

	idx.compressedSize = idx.tracker.cur.Comp
	idx.uncompressedSize = idx.tracker.cur.Uncomp
	return nil
}

// Seek repositions the Index to target, the uncompressed byte offset to
// read from next. See SPEC_FULL.md §4.5 for the algorithm.
func (idx *Index) Seek(target int64, cb BoundaryFunc) error {
	if target < 0 {
		return newErr(Params, "negative seek target")
	}
	if idx.state == Invalid {
		return newErr(Corrupted, "index is in an invalid state")
	}

	ckpIdx, err := idx.store.lowerBoundByUncomp(target)
	if err != nil {
		if _, err := idx.stream.Seek(0, SeekSet); err != nil {
			return wrapErr(StreamSeek, err, "seek to start")
		}
		idx.state = FileHeaders
		idx.tracker.reset(Offset{})
		idx.driver.Reset()
	} else {
		ckp, _ := idx.store.get(ckpIdx)
		if idx.tracker.cur.Uncomp < ckp.Offset.Uncomp || idx.tracker.cur.Uncomp > target {
			idx.driver.Reset()
			if _, err := idx.stream.Seek(ckp.Offset.Comp, SeekSet); err != nil {
				return wrapErr(StreamSeek, err, "seek to checkpoint")
			}
			if ckp.Offset.BitsCount > 0 {
				b := ckp.Offset.Byte >> (8 - ckp.Offset.BitsCount)
				idx.driver.PrimeBits(int(ckp.Offset.BitsCount), b)
			}
			idx.driver.SetDictionary(ckp.Window)
			idx.state = DeflateBlocks
			idx.tracker.reset(ckp.Offset)
		}
	}

	toDiscard := target - idx.tracker.cur.Uncomp
	for toDiscard > 0 {
		n := int64(len(idx.seekDiscard))
		if n > toDiscard {
			n = toDiscard
		}
		read, err := idx.Read(idx.seekDiscard[:n], cb)
		toDiscard -= int64(read)
		if err != nil {
			return err
		}
		if read == 0 {
			return newErr(StreamEof, "seek target beyond end of stream")
		}
	}
	return nil
}

// BuildIndex drives Read to completion, inserting a checkpoint at each
// boundary where the distance since the last one (in compressed or
// uncompressed bytes, per spaceIsUncompressed) reaches or exceeds spacing.
func (idx *Index) BuildIndex(spacing int64, spaceIsUncompressed bool) error {
	if spacing <= 0 {
		return newErr(Params, "spacing must be positive")
	}

	var lastSaved int64
	cb := func(idx *Index, at Offset) error {
		cur := at.Comp
		if spaceIsUncompressed {
			cur = at.Uncomp
		}
		if cur-lastSaved < spacing {
			return nil
		}
		ckp := Checkpoint{
			Offset:   at,
			Window:   idx.driver.DictionaryCopy(),
			Checksum: idx.tracker.checksum.sum(),
		}
		if err := idx.store.add(ckp); err != nil {
			if code, ok := CodeOf(err); ok && code == InvalidOp {
				// Non-monotone insertion at an identical offset (e.g. the
				// header boundary repeats 0); ignore rather than abort.
				return nil
			}
			return err
		}
		idx.tracker.checksum.reset()
		lastSaved = cur
		return nil
	}

	buf := make([]byte, defaultInputBufSize)
	for {
		n, err := idx.Read(buf, cb)
		if err != nil {
			return err
		}
		if n == 0 && idx.state == EndOfFile {
			return nil
		}
		if n == 0 {
			return nil
		}
	}
}

// Checkpoints exposes the checkpoint store for read-only inspection (used
// by the Streamlike facade and by tests asserting §8's invariants).
func (idx *Index) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, idx.store.count())
	for i := range out {
		ckp, _ := idx.store.get(i)
		out[i] = *ckp
	}
	return out
}

// WholeStreamChecksum combines every checkpoint's per-run CRC-32, plus the
// not-yet-checkpointed run from the last checkpoint to the end of the
// stream, into the checksum of the full uncompressed stream, per the
// combine law in SPEC_FULL.md §8. Returns InvalidOp if the uncompressed
// size is not yet known.
func (idx *Index) WholeStreamChecksum() (uint32, error) {
	if idx.uncompressedSize < 0 {
		return 0, newErr(InvalidOp, "uncompressed size not yet known")
	}

	runs := idx.store.sortedRunLengths()

	var lastUncomp int64
	if n := idx.store.count(); n > 0 {
		last, _ := idx.store.get(n - 1)
		lastUncomp = last.Offset.Uncomp
	}
	runs = append(runs, checksumRun{
		crc:    idx.tracker.checksum.sum(),
		length: idx.uncompressedSize - lastUncomp,
	})

	return combineChain(runs), nil
}
