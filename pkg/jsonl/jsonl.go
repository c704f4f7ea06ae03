// Package jsonl frames dictionary-view records as line-delimited JSON, one
// object per line. The heavy lifting (ordered objects) lives in pkg/record;
// this package only handles framing and the optional line transcoding.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/scieloorg/ioisis/pkg/charset"
	"github.com/scieloorg/ioisis/pkg/record"
)

// maxLineSize bounds a single JSONL line; master file records are capped at
// 64 KiB by the classic tools, so this leaves generous headroom.
const maxLineSize = 16 << 20

// Writer emits one JSON object per line.
type Writer struct {
	w  *bufio.Writer
	cs *charset.Charset
}

// NewWriter builds a writer. cs may be nil for plain UTF-8 output.
func NewWriter(w io.Writer, cs *charset.Charset) *Writer {
	return &Writer{w: bufio.NewWriter(w), cs: cs}
}

// Write marshals v and appends a newline.
func (w *Writer) Write(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if w.cs != nil && w.cs.Name() != "utf-8" && w.cs.Name() != "utf8" {
		eb, err := w.cs.Encode(string(b))
		if err != nil {
			return err
		}
		b = eb
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush flushes buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader parses one ordered object per line. Blank lines are skipped.
type Reader struct {
	sc   *bufio.Scanner
	cs   *charset.Charset
	line int
}

// NewReader builds a reader. cs may be nil for plain UTF-8 input.
func NewReader(r io.Reader, cs *charset.Charset) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineSize)
	return &Reader{sc: sc, cs: cs}
}

// Read returns the next record, or io.EOF.
func (r *Reader) Read() (*record.TagMap, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if r.cs != nil && r.cs.Name() != "utf-8" && r.cs.Name() != "utf8" {
			s, err := r.cs.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
			raw = []byte(s)
		}
		view := record.New()
		if err := json.Unmarshal(raw, view); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return view, nil
	}
	if err := r.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Line returns the number of the last line read, 1-based.
func (r *Reader) Line() int {
	return r.line
}
