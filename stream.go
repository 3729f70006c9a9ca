package gzidx

import (
	"io"
	"os"
)

// Whence mirrors io.Seeker's constants so a ByteStream implementation can
// delegate directly to one.
type Whence int

const (
	SeekSet Whence = iota
	SeekCur
	SeekEnd
)

// ByteStream abstracts the backing source an Index decodes from. read and
// write may return a short count without an error; callers must consult
// Eof/Err to disambiguate a short read from end-of-stream versus a
// transient one. Grounded on the vendored tellReader pattern (track a
// cursor alongside a buffered reader) and generalized into the full
// capability set spec'd for this role.
type ByteStream interface {
	Read(buf []byte) (n int, err error)
	Write(buf []byte) (n int, err error)
	Seek(offset int64, whence Whence) (int64, error)
	Tell() (int64, error)
	Eof() bool
	Err() error
	Length() (int64, error)
}

// FileStream adapts an *os.File to ByteStream.
type FileStream struct {
	f        *os.File
	pos      int64
	atEOF    bool
	lastErr  error
}

// NewFileStream opens path read-only for use as a compressed-source
// ByteStream.
func NewFileStream(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(StreamRead, err, "open file stream")
	}
	return &FileStream{f: f}, nil
}

// NewFileStreamFromFile adapts an already-open file handle.
func NewFileStreamFromFile(f *os.File) *FileStream {
	return &FileStream{f: f}
}

func (s *FileStream) Read(buf []byte) (int, error) {
	n, err := s.f.Read(buf)
	s.pos += int64(n)
	if err == io.EOF {
		s.atEOF = true
		return n, nil
	}
	if err != nil {
		s.lastErr = err
		return n, err
	}
	if info, serr := s.f.Stat(); serr == nil && s.pos >= info.Size() {
		s.atEOF = true
	}
	return n, nil
}

func (s *FileStream) Write(buf []byte) (int, error) {
	n, err := s.f.Write(buf)
	s.pos += int64(n)
	if err != nil {
		s.lastErr = err
	}
	return n, err
}

func (s *FileStream) Seek(offset int64, whence Whence) (int64, error) {
	var w int
	switch whence {
	case SeekSet:
		w = io.SeekStart
	case SeekCur:
		w = io.SeekCurrent
	case SeekEnd:
		w = io.SeekEnd
	default:
		return 0, newErr(Params, "invalid whence")
	}
	pos, err := s.f.Seek(offset, w)
	if err != nil {
		s.lastErr = err
		return pos, err
	}
	s.pos = pos
	s.atEOF = false
	return pos, nil
}

func (s *FileStream) Tell() (int64, error) {
	return s.pos, nil
}

func (s *FileStream) Eof() bool {
	return s.atEOF
}

func (s *FileStream) Err() error {
	return s.lastErr
}

func (s *FileStream) Length() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, wrapErr(StreamRead, err, "stat file stream")
	}
	return info.Size(), nil
}

// Close releases the underlying file handle.
func (s *FileStream) Close() error {
	return s.f.Close()
}
