package inflate

import (
	"errors"
	"io"
)

// ErrNeedMoreInput is returned by InflateUntilBoundary when the engine has
// consumed every byte handed to it via Feed but has not yet reached a block
// boundary, end of stream, or output-buffer-full condition. The caller
// should Feed more compressed bytes and call InflateUntilBoundary again;
// engine state is left exactly as it was, so this is always safe to retry.
var ErrNeedMoreInput = errors.New("inflate: need more input")

// ErrEndOfStream is returned once the final DEFLATE block has been fully
// drained.
var ErrEndOfStream = io.EOF

// BoundaryReport describes engine state immediately after a block boundary
// is reached. Only meaningful when returned alongside a nil error (or
// ErrEndOfStream) from InflateUntilBoundary, and only when Boundary is true.
type BoundaryReport struct {
	Boundary    bool
	IsLastBlock bool
	UnusedBits  uint8
}

// Driver wraps the raw DEFLATE decompressor with the capability set an
// IndexEngine needs: feeding compressed bytes, draining uncompressed bytes
// up to the next block boundary, and saving/restoring just enough state
// (window + straddle bits) to resume decoding elsewhere in the stream.
type Driver struct {
	f *decompressor
}

// NewDriver constructs a driver starting a fresh raw DEFLATE stream (no
// gzip/zlib framing). Gzip/zlib header and trailer bytes are handled by the
// caller (internal/gzipheader) before/after driving this engine.
func NewDriver() *Driver {
	return &Driver{f: newDecompressor(nil)}
}

// Feed appends compressed bytes for the engine to consume. It never blocks
// and never copies out more than it is given.
func (d *Driver) Feed(p []byte) {
	d.f.r.feed(p)
}

// Pending reports how many fed-but-unconsumed compressed bytes remain
// buffered, so a caller doing its own compressed-offset bookkeeping can
// account for bytes it fed but the engine hasn't used yet.
func (d *Driver) Pending() int {
	return len(d.f.r.buf)
}

// DrainPending removes up to n bytes from the front of the unconsumed feed
// buffer and returns them, for a caller that needs to reclaim bytes it fed
// ahead but the engine never used (e.g. trailer bytes fed along with the
// last compressed block).
func (d *Driver) DrainPending(n int) []byte {
	buf := d.f.r.buf
	if n > len(buf) {
		n = len(buf)
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	d.f.r.buf = buf[n:]
	return out
}

// BytesConsumed reports the total number of compressed bytes the engine has
// consumed so far.
func (d *Driver) BytesConsumed() int64 {
	return d.f.roffset
}

// BytesProduced reports the total number of uncompressed bytes the engine
// has produced so far.
func (d *Driver) BytesProduced() int64 {
	return d.f.woffset
}

// InflateUntilBoundary drains decompressed bytes into out, stopping at
// whichever comes first: out is full, a block boundary is reached, the
// input is exhausted (ErrNeedMoreInput), or the stream ends (ErrEndOfStream,
// carrying a final BoundaryReport with IsLastBlock set).
func (d *Driver) InflateUntilBoundary(out []byte) (produced int, report BoundaryReport, err error) {
	f := d.f
	for {
		if len(f.toRead) > 0 {
			n := copy(out[produced:], f.toRead)
			f.toRead = f.toRead[n:]
			produced += n
			f.woffset += int64(n)
			if len(f.toRead) == 0 && f.boundaryPending {
				return produced, d.consumeBoundary(), boundaryErr(f)
			}
			if produced == len(out) {
				return produced, report, nil
			}
			continue
		}

		if f.err != nil {
			if f.err == errNeedInput {
				f.err = nil
				return produced, report, ErrNeedMoreInput
			}
			if f.err == io.EOF {
				if f.boundaryPending {
					return produced, d.consumeBoundary(), io.EOF
				}
				return produced, report, io.EOF
			}
			return produced, report, f.err
		}

		if produced == len(out) {
			return produced, report, nil
		}

		saved, savedHist, savedIn := *f, append([]byte(nil), f.dict.hist...), f.r.buf
		f.step(f)
		if f.err == errNeedInput {
			copy(f.dict.hist, savedHist)
			*f = saved
			f.r.buf = savedIn
			return produced, report, ErrNeedMoreInput
		}

		if f.err != nil && len(f.toRead) == 0 {
			f.toRead = f.dict.readFlush()
		}
		if f.boundaryPending && len(f.toRead) == 0 {
			return produced, d.consumeBoundary(), boundaryErr(f)
		}
	}
}

func boundaryErr(f *decompressor) error {
	if f.err == io.EOF {
		return io.EOF
	}
	return nil
}

func (d *Driver) consumeBoundary() BoundaryReport {
	f := d.f
	r := BoundaryReport{
		Boundary:    true,
		IsLastBlock: f.isLastBlock,
		UnusedBits:  f.unusedBits,
	}
	f.boundaryPending = false
	return r
}

// DictionaryCopy returns the current sliding-window history (up to 32768
// bytes), oldest byte first.
func (d *Driver) DictionaryCopy() []byte {
	return d.f.dict.snapshot()
}

// SetDictionary seeds the sliding window with preceding history, as when
// resuming from a checkpoint.
func (d *Driver) SetDictionary(b []byte) {
	d.f.dict.init(maxWindowSize, b)
}

// StraddleByte returns the raw compressed byte whose high UnusedBits bits
// belong to the block that will be decoded next, valid only immediately
// after a boundary report with UnusedBits > 0.
func (d *Driver) StraddleByte() byte {
	return d.f.straddleByte
}

// PrimeBits injects count pre-shifted bits (as produced by StraddleByte
// logic: value's low count bits are the next bits to be consumed) into the
// decompressor's bit accumulator ahead of any freshly fed bytes.
func (d *Driver) PrimeBits(count int, value byte) {
	d.f.b = uint32(value) & (1<<uint(count) - 1)
	d.f.nb = uint(count)
}

// Reset reinitializes the engine to decode a fresh raw DEFLATE block
// sequence, discarding any buffered input and dictionary.
func (d *Driver) Reset() {
	d.f = newDecompressor(nil)
}

// End releases engine resources. The driver must not be used afterward.
func (d *Driver) End() {
	d.f = nil
}
