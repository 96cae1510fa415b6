package core

// streaming.go provides the reader chain staged files pass through before CSV parsing.
//
//   - BOMSkippingReader: removes a UTF-8 BOM (0xEF 0xBB 0xBF) left by Windows exports
//   - charset decoding: ISO-8859-1, windows-1252 and friends to UTF-8 (golang.org/x/text)
//   - StreamingUTF8Sanitizer: replaces invalid UTF-8 bytes with '?' when no charset is set
//   - enclosure swap: maps a non-'"' enclosure onto '"' so encoding/csv can parse it
//   - StreamingCountingReader: tracks bytes read for metrics
//
// Use WrapForParsing to apply them in the correct order.

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// StreamingUTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes
// with '?' on the fly, using O(buffer) memory.
type StreamingUTF8Sanitizer struct {
	reader io.Reader

	// Leftover bytes from previous read that may form a multi-byte sequence
	pending []byte
}

// NewStreamingUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewStreamingUTF8Sanitizer(r io.Reader) *StreamingUTF8Sanitizer {
	return &StreamingUTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *StreamingUTF8Sanitizer) Read(p []byte) (int, error) {
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

	if isAllASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand out.
// Unless atEOF, a trailing partial rune is held back in pending.
func (s *StreamingUTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			// '?' rather than U+FFFD keeps the rewrite in place
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			n = 0
		}
		r.bufData = r.buf[:n]
		if err != nil && n == 0 {
			return 0, io.EOF
		}
	}

	if len(r.bufData) > 0 {
		copied := copy(p, r.bufData)
		r.bufData = r.bufData[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// StreamingCountingReader wraps an io.Reader to track bytes read.
type StreamingCountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewStreamingCountingReader creates a counting reader.
func NewStreamingCountingReader(r io.Reader) *StreamingCountingReader {
	return &StreamingCountingReader{reader: r}
}

// Read implements io.Reader.
func (r *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// LookupEncoding resolves an IANA charset name. Empty and UTF-8 names return nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown file encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported file encoding %q", name)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// swapRune exchanges the configured enclosure with '"'. Applying it twice is the identity.
func swapRune(enclosure rune) func(rune) rune {
	return func(r rune) rune {
		switch r {
		case enclosure:
			return '"'
		case '"':
			return enclosure
		}
		return r
	}
}

// WrapForParsing wraps a staged file for encoding/csv.
//
// The order matters:
//  1. the BOM is stripped from the raw bytes
//  2. bytes are decoded from the configured charset, or sanitized as UTF-8
//  3. the enclosure is swapped onto '"' on decoded runes
//  4. counting wraps the raw input so metrics see file bytes
func WrapForParsing(r io.Reader, d Dialect) (io.Reader, *StreamingCountingReader, error) {
	counter := NewStreamingCountingReader(r)
	var out io.Reader = NewBOMSkippingReader(counter)

	enc, err := LookupEncoding(d.Encoding)
	if err != nil {
		return nil, nil, err
	}
	if enc != nil {
		out = enc.NewDecoder().Reader(out)
	} else {
		out = NewStreamingUTF8Sanitizer(out)
	}

	if d.Enclosure != '"' {
		out = transform.NewReader(out, runes.Map(swapRune(d.Enclosure)))
	}

	return out, counter, nil
}
