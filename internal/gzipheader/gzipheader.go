// Package gzipheader parses the gzip (RFC 1952) and zlib (RFC 1950) framing
// that surrounds a raw DEFLATE stream. It is grounded on the header-reading
// logic this lineage already carries for seekable gzip access, generalized
// to also recognise a zlib header for the GzipOrZlib stream type.
package gzipheader

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// ErrHeader reports a malformed or unrecognised header.
var ErrHeader = errors.New("gzipheader: invalid header")

// Kind identifies which framing was detected (or requested).
type Kind int

const (
	Deflate Kind = iota
	Gzip
	Zlib
)

// Header carries the subset of gzip header metadata a caller might want to
// surface; zlib headers carry none of this.
type Header struct {
	Kind    Kind
	Name    string
	Comment string
	ModTime uint32
	OS      byte
}

// byteReader is the minimal input surface header parsing needs.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// ReadGzipHeader consumes a gzip member header from r, returning the number
// of bytes consumed and the parsed header.
func ReadGzipHeader(r byteReader) (Header, int64, error) {
	var hdr Header
	hdr.Kind = Gzip

	var buf [10]byte
	n, err := io.ReadFull(r, buf[:])
	consumed := int64(n)
	if err != nil {
		return hdr, consumed, err
	}
	if buf[0] != gzipID1 || buf[1] != gzipID2 || buf[2] != gzipDeflate {
		return hdr, consumed, ErrHeader
	}
	flg := buf[3]
	hdr.ModTime = binary.LittleEndian.Uint32(buf[4:8])
	hdr.OS = buf[9]

	if flg&flagExtra != 0 {
		var lbuf [2]byte
		n, err := io.ReadFull(r, lbuf[:])
		consumed += int64(n)
		if err != nil {
			return hdr, consumed, err
		}
		extraLen := int(binary.LittleEndian.Uint16(lbuf[:]))
		extra := make([]byte, extraLen)
		n, err = io.ReadFull(r, extra)
		consumed += int64(n)
		if err != nil {
			return hdr, consumed, err
		}
	}
	if flg&flagName != 0 {
		s, n, err := readCString(r)
		consumed += n
		if err != nil {
			return hdr, consumed, err
		}
		hdr.Name = s
	}
	if flg&flagComment != 0 {
		s, n, err := readCString(r)
		consumed += n
		if err != nil {
			return hdr, consumed, err
		}
		hdr.Comment = s
	}
	if flg&flagHdrCrc != 0 {
		var cbuf [2]byte
		n, err := io.ReadFull(r, cbuf[:])
		consumed += int64(n)
		if err != nil {
			return hdr, consumed, err
		}
	}

	return hdr, consumed, nil
}

func readCString(r byteReader) (string, int64, error) {
	var out []byte
	var n int64
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", n, err
		}
		n++
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	return string(out), n, nil
}

// ReadZlibHeader consumes the 2-byte zlib header (RFC 1950 CMF/FLG), with an
// optional 4-byte FDICT preset-dictionary identifier when FDICT is set.
func ReadZlibHeader(r byteReader) (Header, int64, error) {
	hdr := Header{Kind: Zlib}
	var buf [2]byte
	n, err := io.ReadFull(r, buf[:])
	consumed := int64(n)
	if err != nil {
		return hdr, consumed, err
	}
	cmf, flg := buf[0], buf[1]
	if cmf&0x0f != 8 {
		return hdr, consumed, ErrHeader
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return hdr, consumed, ErrHeader
	}
	if flg&0x20 != 0 {
		var dictBuf [4]byte
		n, err := io.ReadFull(r, dictBuf[:])
		consumed += int64(n)
		if err != nil {
			return hdr, consumed, err
		}
	}
	return hdr, consumed, nil
}

// DetectAndRead peeks at the first two bytes already read into peek (which
// the caller must have obtained via a 2-byte read ahead of calling this) to
// decide gzip vs zlib, then reads the remainder of whichever header applies.
// Used for StreamType GzipOrZlib.
func DetectAndRead(peek [2]byte, rest byteReader) (Header, int64, error) {
	if peek[0] == gzipID1 && peek[1] == gzipID2 {
		mr := &prefixedReader{prefix: peek[:], r: rest}
		return ReadGzipHeader(mr)
	}
	mr := &prefixedReader{prefix: peek[:], r: rest}
	return ReadZlibHeader(mr)
}

// prefixedReader replays a short prefix before reading from the underlying
// reader; used to re-parse a header after peeking at its first bytes to
// disambiguate stream type.
type prefixedReader struct {
	prefix []byte
	r      byteReader
}

func (p *prefixedReader) Read(b []byte) (int, error) {
	if len(p.prefix) > 0 {
		n := copy(b, p.prefix)
		p.prefix = p.prefix[n:]
		return n, nil
	}
	return p.r.Read(b)
}

func (p *prefixedReader) ReadByte() (byte, error) {
	if len(p.prefix) > 0 {
		c := p.prefix[0]
		p.prefix = p.prefix[1:]
		return c, nil
	}
	return p.r.ReadByte()
}

// TrailerLen is the number of bytes the original implementation drains
// unconditionally after the final DEFLATE block, regardless of stream type.
// A zlib stream's real trailer is 4 bytes (Adler-32); this 8-byte figure is
// carried over bug-for-bug from the lineage this package is grounded on,
// per an explicit open-question resolution (see DESIGN.md).
const TrailerLen = 8
