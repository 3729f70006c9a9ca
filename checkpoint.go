package gzidx

// maxWindowLength is the largest sliding-window history a Checkpoint may
// carry.
const maxWindowLength = 32768

// Checkpoint is a captured resume point: a position in both streams, the
// uncompressed history needed to prime a fresh decoder there, and the
// CRC-32 of the uncompressed run since the previous checkpoint.
type Checkpoint struct {
	Offset   Offset
	Window   []byte // up to maxWindowLength bytes, oldest first
	Checksum uint32 // CRC-32 over bytes produced since the previous checkpoint
}

func (c *Checkpoint) windowLength() int {
	return len(c.Window)
}

// checkpointStore is a dense, append-ordered, uncompressed-offset-sorted
// collection of Checkpoints with O(log n) lookup.
type checkpointStore struct {
	items []Checkpoint
}

func newCheckpointStore() *checkpointStore {
	return &checkpointStore{}
}

func (s *checkpointStore) count() int {
	return len(s.items)
}

func (s *checkpointStore) get(idx int) (*Checkpoint, bool) {
	if idx < 0 || idx >= len(s.items) {
		return nil, false
	}
	return &s.items[idx], true
}

// add appends ckp if its uncompressed offset is strictly greater than the
// last stored one (or the store is empty). Capacity growth is implicit via
// Go's slice append; extend/shrink/fit below manage it explicitly for
// callers that want that control (grounded on the original's zidx_extend /
// zidx_shrink / zidx_fit_checkpoints).
func (s *checkpointStore) add(ckp Checkpoint) error {
	if len(s.Window(ckp)) > maxWindowLength {
		return newErr(Params, "checkpoint window exceeds 32768 bytes")
	}
	if ckp.Offset.BitsCount == 0 && ckp.Offset.Byte != 0 {
		return newErr(Params, "bits_count == 0 requires byte == 0")
	}
	if len(s.items) > 0 && ckp.Offset.Uncomp <= s.items[len(s.items)-1].Offset.Uncomp {
		return newErr(InvalidOp, "non-monotone checkpoint insertion")
	}
	s.items = append(s.items, ckp)
	return nil
}

// Window is a tiny accessor used only by add's validation above, kept as a
// method on the store so add reads naturally.
func (s *checkpointStore) Window(ckp Checkpoint) []byte {
	return ckp.Window
}

// lowerBoundByUncomp returns the index of the last checkpoint whose
// uncompressed offset is <= target. Returns (-1, ErrNotFound) when the
// store is empty or target is before the first checkpoint.
func (s *checkpointStore) lowerBoundByUncomp(target int64) (int, error) {
	if target < 0 {
		return -1, newErr(Params, "negative target offset")
	}
	n := len(s.items)
	if n == 0 {
		return -1, newErr(NotFound, "empty checkpoint store")
	}
	// Shortcut: compare the last element first, the common case for
	// sequential forward access.
	if s.items[n-1].Offset.Uncomp <= target {
		return n - 1, nil
	}
	if s.items[0].Offset.Uncomp > target {
		return -1, newErr(NotFound, "target before first checkpoint")
	}

	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.items[mid].Offset.Uncomp <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// extend grows the backing slice's capacity by at least n entries without
// changing its length.
func (s *checkpointStore) extend(n int) {
	if n <= 0 {
		return
	}
	grown := make([]Checkpoint, len(s.items), len(s.items)+n)
	copy(grown, s.items)
	s.items = grown
}

// shrink drops capacity down to exactly the current length, same effect as
// fit but named to mirror the original's separate entry point.
func (s *checkpointStore) shrink(int) {
	s.fit()
}

// fit trims backing capacity to exactly the current element count.
func (s *checkpointStore) fit() {
	if cap(s.items) == len(s.items) {
		return
	}
	fitted := make([]Checkpoint, len(s.items))
	copy(fitted, s.items)
	s.items = fitted
}

// sortedRunLengths returns, for every checkpoint in traversal order, its
// checksum and the number of uncompressed bytes that checksum covers: the
// run immediately preceding the checkpoint, from the previous checkpoint's
// offset (or the start of the stream, for the first one) up to its own.
// Used by the checksum combine law; the caller is responsible for folding
// in the final, not-yet-checkpointed run from the last checkpoint to the
// end of the stream.
func (s *checkpointStore) sortedRunLengths() []checksumRun {
	runs := make([]checksumRun, len(s.items))
	var prevUncomp int64
	for i := range s.items {
		runs[i] = checksumRun{crc: s.items[i].Checksum, length: s.items[i].Offset.Uncomp - prevUncomp}
		prevUncomp = s.items[i].Offset.Uncomp
	}
	return runs
}
