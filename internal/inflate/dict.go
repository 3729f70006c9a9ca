// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inflate

// maxWindowSize is the largest sliding-window dictionary the engine
// maintains; it is fixed regardless of the caller's configured window_size
// because the block-boundary checkpoint format always captures up to this
// many bytes of history.
const maxWindowSize = 1 << 15 // 32768

// dictDecoder implements the LZ77 sliding dictionary used during
// decompression. Ported from the standard library's internal dictDecoder,
// generalized to support exporting and overwriting its full state (hist,
// wrPos, rdPos, full) for checkpoint capture and seek/resume.
type dictDecoder struct {
	hist []byte

	// Invariant: 0 <= rdPos <= wrPos <= len(hist)
	wrPos int
	rdPos int
	full  bool
}

func (dd *dictDecoder) init(size int, dict []byte) {
	*dd = dictDecoder{hist: dd.hist}

	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	dd.hist = dd.hist[:size]

	if len(dict) > len(dd.hist) {
		dict = dict[len(dict)-len(dd.hist):]
	}
	dd.wrPos = copy(dd.hist, dict)
	if dd.wrPos == len(dd.hist) {
		dd.wrPos = 0
		dd.full = true
	}
	dd.rdPos = dd.wrPos
}

func (dd *dictDecoder) histSize() int {
	if dd.full {
		return len(dd.hist)
	}
	return dd.wrPos
}

func (dd *dictDecoder) availRead() int {
	return dd.wrPos - dd.rdPos
}

func (dd *dictDecoder) availWrite() int {
	return len(dd.hist) - dd.wrPos
}

func (dd *dictDecoder) writeSlice() []byte {
	return dd.hist[dd.wrPos:]
}

func (dd *dictDecoder) writeMark(cnt int) {
	dd.wrPos += cnt
}

func (dd *dictDecoder) writeByte(c byte) {
	dd.hist[dd.wrPos] = c
	dd.wrPos++
}

func (dd *dictDecoder) writeCopy(dist, length int) int {
	dstBase := dd.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(dd.hist) {
		endPos = len(dd.hist)
	}

	if srcPos < 0 {
		srcPos += len(dd.hist)
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:])
		srcPos = 0
	}

	for dstPos < endPos {
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:dstPos])
	}

	dd.wrPos = dstPos
	return dstPos - dstBase
}

func (dd *dictDecoder) tryWriteCopy(dist, length int) int {
	dstPos := dd.wrPos
	endPos := dstPos + length
	if dstPos < dist || endPos > len(dd.hist) {
		return 0
	}
	dstBase := dstPos
	srcPos := dstPos - dist

	for dstPos < endPos {
		dstPos += copy(dd.hist[dstPos:endPos], dd.hist[srcPos:dstPos])
	}

	dd.wrPos = dstPos
	return dstPos - dstBase
}

// readFlush returns the portion of the dictionary ready to be emitted to the
// caller. Must be fully consumed before any other dictDecoder method runs.
func (dd *dictDecoder) readFlush() []byte {
	toRead := dd.hist[dd.rdPos:dd.wrPos]
	dd.rdPos = dd.wrPos
	if dd.wrPos == len(dd.hist) {
		dd.wrPos, dd.rdPos = 0, 0
		dd.full = true
	}
	return toRead
}

// snapshot copies the current window into a right-sized slice ordered oldest
// to newest, the form the on-disk checkpoint format expects.
func (dd *dictDecoder) snapshot() []byte {
	n := dd.histSize()
	out := make([]byte, n)
	if !dd.full {
		copy(out, dd.hist[:dd.wrPos])
		return out
	}
	copy(out, dd.hist[dd.wrPos:])
	copy(out[len(dd.hist)-dd.wrPos:], dd.hist[:dd.wrPos])
	return out
}
