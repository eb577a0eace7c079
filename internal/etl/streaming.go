package etl

// streaming.go wraps the raw file reader to handle two artifacts common in
// government CSV extracts produced on Windows: a UTF-8 BOM prefix and the
// occasional invalid UTF-8 byte. Both are handled without loading the file
// into memory.

import (
	"io"
	"unicode/utf8"
)

// bomSkippingReader wraps an io.Reader and skips the UTF-8 BOM
// (0xEF 0xBB 0xBF) if present at the start of the stream.
type bomSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
	bufOffset  int
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if n == 0 {
			return 0, err
		}

		if n >= 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.bufData = nil
		} else {
			r.bufData = r.buf[:n]
			r.bufOffset = 0
		}

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(r.bufData) > r.bufOffset {
		copied := copy(p, r.bufData[r.bufOffset:])
		r.bufOffset += copied
		if r.bufOffset >= len(r.bufData) {
			r.bufData = nil
		}
		return copied, nil
	}

	return r.reader.Read(p)
}

// sanitizingReader replaces invalid UTF-8 bytes with '?' on the fly so the
// csv parser never chokes on stray Windows-1252 bytes. Multi-byte sequences
// split across Read calls are carried over in pending.
type sanitizingReader struct {
	reader  io.Reader
	pending []byte
}

func newSanitizingReader(r io.Reader) *sanitizingReader {
	return &sanitizingReader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset

	if n == 0 {
		return 0, err
	}

	if allASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place, replacing invalid bytes with '?'.
// Returns the number of valid bytes. An incomplete trailing sequence is
// stashed in pending unless the stream is at EOF.
func (s *sanitizingReader) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && incompleteRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			// '?' instead of U+FFFD: a 1-byte replacement avoids
			// growing the buffer mid-stream.
			data[write] = '?'
			write++
			read++
		} else {
			copy(data[write:], data[read:read+size])
			write += size
			read += size
		}
	}
	return write
}

func incompleteRune(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := data[0]
	var want int
	switch {
	case b < 0x80:
		want = 1
	case b < 0xC0:
		return false // continuation byte, just invalid
	case b < 0xE0:
		want = 2
	case b < 0xF0:
		want = 3
	default:
		want = 4
	}
	return want > len(data)
}

// wrapCSVStream layers BOM skipping and UTF-8 sanitization over a raw file
// stream. BOM removal must run first.
func wrapCSVStream(r io.Reader) io.Reader {
	return newSanitizingReader(newBOMSkippingReader(r))
}
