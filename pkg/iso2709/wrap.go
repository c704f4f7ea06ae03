package iso2709

import (
	"bufio"
	"fmt"
	"io"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// WrapConfig parameterizes the fixed-width line framing historically applied
// to ISO files so they survive line-oriented tools. The newline bytes are
// pure framing: they are invisible to every length and offset in the record.
// LineLen <= 0 disables the layer entirely.
type WrapConfig struct {
	LineLen int
	Newline byte
}

// DefaultWrapConfig returns the conventional 80-column LF framing.
func DefaultWrapConfig() WrapConfig {
	return WrapConfig{
		LineLen: consts.ISO2709_DEFAULT_LINE_LEN,
		Newline: consts.ISO2709_DEFAULT_NEWLINE,
	}
}

// NoWrap returns a passthrough configuration.
func NoWrap() WrapConfig {
	return WrapConfig{}
}

func (c WrapConfig) enabled() bool {
	return c.LineLen > 0
}

// WrapWriter inserts a newline after every LineLen content bytes and, on
// Close, guarantees the stream ends with one. Write counts only content
// bytes in its return value.
type WrapWriter struct {
	w   io.Writer
	cfg WrapConfig
	col int
}

// NewWrapWriter wraps w with the given framing configuration.
func NewWrapWriter(w io.Writer, cfg WrapConfig) *WrapWriter {
	return &WrapWriter{w: w, cfg: cfg}
}

func (ww *WrapWriter) Write(p []byte) (int, error) {
	if !ww.cfg.enabled() {
		return ww.w.Write(p)
	}
	written := 0
	nl := []byte{ww.cfg.Newline}
	for len(p) > 0 {
		room := ww.cfg.LineLen - ww.col
		chunk := room
		if len(p) < chunk {
			chunk = len(p)
		}
		n, err := ww.w.Write(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}
		ww.col += chunk
		p = p[chunk:]
		if ww.col == ww.cfg.LineLen {
			if _, err := ww.w.Write(nl); err != nil {
				return written, err
			}
			ww.col = 0
		}
	}
	return written, nil
}

// Close terminates the final partial line. It does not close the underlying
// writer.
func (ww *WrapWriter) Close() error {
	if ww.cfg.enabled() && ww.col > 0 {
		if _, err := ww.w.Write([]byte{ww.cfg.Newline}); err != nil {
			return err
		}
		ww.col = 0
	}
	return nil
}

// UnwrapReader strips the framing inserted by WrapWriter: one newline after
// every LineLen content bytes plus the final trailing newline. A newline
// inside a content run shorter than LineLen is data, not framing; only the
// very last byte of the stream is ever treated as the trailing frame.
type UnwrapReader struct {
	br   *bufio.Reader
	cfg  WrapConfig
	col  int
	off  int64 // raw bytes consumed, for error reporting
	done bool
}

// NewUnwrapReader wraps r with the inverse framing configuration.
func NewUnwrapReader(r io.Reader, cfg WrapConfig) *UnwrapReader {
	return &UnwrapReader{br: bufio.NewReader(r), cfg: cfg}
}

func (ur *UnwrapReader) Read(p []byte) (int, error) {
	if !ur.cfg.enabled() {
		return ur.br.Read(p)
	}
	if ur.done {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		if ur.col == ur.cfg.LineLen {
			b, err := ur.br.ReadByte()
			if err == io.EOF {
				ur.done = true
				return n, ur.eof(n)
			}
			if err != nil {
				return n, err
			}
			ur.off++
			if b != ur.cfg.Newline {
				return n, &FormatError{
					Offset: ur.off - 1,
					Msg:    fmt.Sprintf("expected line-wrap newline 0x%02X, got 0x%02X", ur.cfg.Newline, b),
				}
			}
			ur.col = 0
		}
		b, err := ur.br.ReadByte()
		if err == io.EOF {
			ur.done = true
			return n, ur.eof(n)
		}
		if err != nil {
			return n, err
		}
		ur.off++
		if b == ur.cfg.Newline {
			// A newline mid-line is content unless nothing follows it, in
			// which case it is the trailing frame.
			if _, perr := ur.br.Peek(1); perr == io.EOF {
				ur.done = true
				return n, ur.eof(n)
			}
		}
		p[n] = b
		n++
		ur.col++
	}
	return n, nil
}

func (ur *UnwrapReader) eof(n int) error {
	if n > 0 {
		return nil
	}
	return io.EOF
}
