package core

// streaming.go holds the io.Reader wrappers a CSV source passes through
// before tokenizing:
//
//   - countingReader: tracks bytes consumed for run logging
//   - utf8Sanitizer: optional, replaces invalid UTF-8 bytes with '?'
//   - skipBOM: drops a leading UTF-8 byte-order mark
//
// All of them keep memory bounded by the buffer size, never the file size.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM discards a UTF-8 BOM at the head of br. Peeking leaves a stream
// without a BOM untouched.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// countingReader counts bytes read from the underlying source.
type countingReader struct {
	r io.Reader
	n int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{r: r}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (c *countingReader) BytesRead() int64 {
	if c == nil {
		return 0
	}
	return c.n
}

// utf8Sanitizer replaces bytes that are not valid UTF-8 with '?' on the fly.
// A multi-byte sequence split across two reads is held back until the
// next read completes it. Output never grows, so sanitizing happens in place.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read requires len(p) >= utf8.UTFMax.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	for {
		n := copy(p, s.pending)
		s.pending = s.pending[:0]

		m, err := s.r.Read(p[n:])
		n += m
		if n == 0 {
			return 0, err
		}

		out := s.sanitize(p[:n], err != nil)
		if out > 0 || err != nil {
			return out, err
		}
	}
}

// sanitize rewrites data in place and returns the count of bytes to emit.
// Unless final is set, an incomplete trailing rune is moved to pending.
func (s *utf8Sanitizer) sanitize(data []byte, final bool) int {
	out := 0
	for i := 0; i < len(data); {
		b := data[i]
		if b < utf8.RuneSelf {
			data[out] = b
			out++
			i++
			continue
		}
		if !final && !utf8.FullRune(data[i:]) {
			s.pending = append(s.pending, data[i:]...)
			return out
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[out] = '?'
			out++
			i++
			continue
		}
		copy(data[out:], data[i:i+size])
		out += size
		i += size
	}
	return out
}
