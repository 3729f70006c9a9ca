package gzidx

// Stream presents an Index as a uniform byte source: read/seek/tell with a
// deferred seek (collapsed to the last one requested, paid for only when
// the caller actually reads again), plus a checkpoint directory for
// introspection. Grounded on SPEC_FULL.md §4.7 and cross-checked against
// jonjohnsonjr-targz's gsip.Reader, which similarly avoids reseeking until
// a read actually demands it.
type Stream struct {
	idx *Index

	pendingSeek    int64
	hasPendingSeek bool

	pos int64
	err error
}

// NewStream wraps idx as a Streamlike facade.
func NewStream(idx *Index) *Stream {
	return &Stream{idx: idx}
}

// Seek defers positioning until the next Read; repeated seeks before a read
// collapse to just the last one.
func (s *Stream) Seek(offset int64, whence Whence) (int64, error) {
	if whence != SeekSet {
		return 0, newErr(NotImplemented, "Streamlike facade only supports SeekSet")
	}
	s.pendingSeek = offset
	s.hasPendingSeek = true
	return offset, nil
}

// Read applies any deferred seek, then reads through the underlying Index.
func (s *Stream) Read(buf []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.hasPendingSeek {
		if err := s.idx.Seek(s.pendingSeek, nil); err != nil {
			s.err = err
			return 0, err
		}
		s.pos = s.pendingSeek
		s.hasPendingSeek = false
	}
	n, err := s.idx.Read(buf, nil)
	s.pos += int64(n)
	if err != nil {
		s.err = err
	}
	return n, err
}

// Tell reports the facade's logical position, including any not-yet-applied
// deferred seek.
func (s *Stream) Tell() int64 {
	if s.hasPendingSeek {
		return s.pendingSeek
	}
	return s.pos
}

// Eof reports whether the underlying Index has reached EndOfFile.
func (s *Stream) Eof() bool {
	return s.idx.State() == EndOfFile
}

// Err reports the last error observed by Read, if any.
func (s *Stream) Err() error {
	return s.err
}

// Length reports the uncompressed size if known, else -1.
func (s *Stream) Length() int64 {
	return s.idx.UncompressedSize()
}

// CheckpointHandle identifies one entry in the checkpoint directory.
type CheckpointHandle int

// CheckpointCount reports how many checkpoints the directory holds.
func (s *Stream) CheckpointCount() int {
	return s.idx.store.count()
}

// CheckpointAt returns a handle to the idx-th checkpoint, or false if out
// of range.
func (s *Stream) CheckpointAt(idx int) (CheckpointHandle, bool) {
	if idx < 0 || idx >= s.idx.store.count() {
		return 0, false
	}
	return CheckpointHandle(idx), true
}

// CheckpointOffset returns the Offset a handle refers to.
func (s *Stream) CheckpointOffset(h CheckpointHandle) (Offset, bool) {
	ckp, ok := s.idx.store.get(int(h))
	if !ok {
		return Offset{}, false
	}
	return ckp.Offset, true
}

// CheckpointWindow returns the window bytes a handle refers to.
func (s *Stream) CheckpointWindow(h CheckpointHandle) ([]byte, bool) {
	ckp, ok := s.idx.store.get(int(h))
	if !ok {
		return nil, false
	}
	return ckp.Window, true
}
