package gzidx

// Offset is the position pair this package threads through reads, seeks,
// and checkpoints: how far into the uncompressed and compressed streams a
// point is, plus enough bit-level detail to resume decoding exactly there.
type Offset struct {
	// Uncomp is the byte offset into the decompressed stream.
	Uncomp int64
	// Comp is the byte offset into the compressed stream.
	Comp int64
	// BitsCount is the number of high-order bits of Byte that belong to the
	// block starting at this offset; 0 when the offset falls on a byte
	// boundary.
	BitsCount uint8
	// Byte is the compressed byte straddling this offset. Zero when
	// BitsCount is 0.
	Byte byte
}

// offsetTracker maintains the current Offset plus a running CRC-32 over
// uncompressed bytes produced since the tracker was last reset (i.e. since
// the last checkpoint emission).
type offsetTracker struct {
	cur      Offset
	checksum checksumLedger
}

func newOffsetTracker() *offsetTracker {
	t := &offsetTracker{}
	t.checksum.reset()
	return t
}

// advance folds a completed inflate step into the tracker: nConsumed and
// nProduced come straight from the InflateDriver call, and boundary details
// (when atBoundary is true) come from its BoundaryReport.
func (t *offsetTracker) advance(nConsumed, nProduced int64, produced []byte, atBoundary bool, unusedBits uint8, straddleByte byte) {
	t.cur.Comp += nConsumed
	t.cur.Uncomp += nProduced
	if len(produced) > 0 {
		t.checksum.update(produced)
	}
	if atBoundary {
		t.cur.BitsCount = unusedBits
		if unusedBits > 0 {
			if nConsumed == 0 {
				// Underflow guard: nothing was consumed this step, so the
				// straddle byte (if any) must already be current; do not
				// clobber it with a stale value.
				return
			}
			t.cur.Byte = straddleByte
		} else {
			t.cur.Byte = 0
		}
	} else {
		t.cur.BitsCount = 0
		t.cur.Byte = 0
	}
}

// reset overwrites the tracker's position wholesale, as happens after a
// seek jump to a checkpoint or back to the start of the stream.
func (t *offsetTracker) reset(at Offset) {
	t.cur = at
	t.checksum.reset()
}
