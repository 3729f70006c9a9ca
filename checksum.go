package gzidx

import "hash/crc32"

// checksumLedger is a running CRC-32 that IndexEngine resets every time it
// emits a checkpoint, so each checkpoint carries the checksum of just the
// uncompressed run since the previous one.
type checksumLedger struct {
	crc uint32
}

func (c *checksumLedger) reset() {
	c.crc = 0
}

func (c *checksumLedger) update(p []byte) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p)
}

func (c *checksumLedger) sum() uint32 {
	return c.crc
}

// combineCRC32 combines two CRC-32 values, where a was computed over a run
// of bytes immediately followed by the bLen-byte run b was computed over.
// This is the naive "feed zero bytes through an Update" technique rather
// than zlib's GF(2) matrix-exponentiation crc32_combine: it produces the same
// result at the cost of O(bLen) work instead of O(log bLen), which is
// acceptable here because combine is only ever used once per Index, over
// the checkpoint list, not in a hot path.
func combineCRC32(a uint32, b uint32, bLen int64) uint32 {
	if bLen == 0 {
		return a
	}
	zeroes := make([]byte, bLen)
	shifted := crc32.Update(a^0xffffffff, crc32.IEEETable, zeroes) ^ 0xffffffff
	return shifted ^ b
}

// combineChain folds an ordered list of (checksum, runLength) pairs — one
// per checkpoint, in traversal order — into the CRC-32 of the full
// concatenated stream.
func combineChain(pairs []checksumRun) uint32 {
	var acc uint32
	for i, p := range pairs {
		if i == 0 {
			acc = p.crc
			continue
		}
		acc = combineCRC32(acc, p.crc, p.length)
	}
	return acc
}

type checksumRun struct {
	crc    uint32
	length int64
}
