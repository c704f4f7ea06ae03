package iso2709

import (
	"io"

	"github.com/scieloorg/ioisis/pkg/consts"
	"github.com/scieloorg/ioisis/pkg/logging"
)

// StreamReader lazily produces records from a byte stream. Records are
// expected back to back with no delimiter beyond what the codec itself
// consumes; the reader is restartable from any byte position that starts a
// record. The first malformed record poisons the stream (the error is
// sticky), and EOF in the middle of a record surfaces as TruncatedError.
type StreamReader struct {
	geom Geometry
	r    io.Reader
	log  *logging.Logger
	off  int64
	err  error
}

// NewStreamReader builds a reader over r, transparently removing the given
// line framing before the codec sees any byte.
func NewStreamReader(r io.Reader, geom Geometry, wrap WrapConfig, log *logging.Logger) *StreamReader {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &StreamReader{
		geom: geom,
		r:    NewUnwrapReader(r, wrap),
		log:  log,
	}
}

// Read returns the next record, or io.EOF at a clean end of stream.
func (sr *StreamReader) Read() (*Record, error) {
	if sr.err != nil {
		return nil, sr.err
	}

	head := make([]byte, consts.ISO2709_LEADER_SIZE)
	n, err := io.ReadFull(sr.r, head)
	switch {
	case err == io.EOF:
		sr.err = io.EOF
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		return nil, sr.fail(&TruncatedError{Offset: sr.off + int64(n)})
	case err != nil:
		return nil, sr.fail(err)
	}

	total, err := parseNum(head[0:5], sr.off, "total_len")
	if err != nil {
		return nil, sr.fail(err)
	}
	if total < consts.ISO2709_LEADER_SIZE {
		return nil, sr.fail(&FormatError{
			Offset: sr.off,
			Msg:    "total_len shorter than the leader",
		})
	}

	buf := make([]byte, total)
	copy(buf, head)
	if n, err := io.ReadFull(sr.r, buf[consts.ISO2709_LEADER_SIZE:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, sr.fail(&TruncatedError{Offset: sr.off + int64(consts.ISO2709_LEADER_SIZE+n)})
		}
		return nil, sr.fail(err)
	}

	rec, _, err := DecodeRecord(sr.geom, buf)
	if err != nil {
		if fe, ok := err.(*FormatError); ok {
			fe.Offset += sr.off
		}
		return nil, sr.fail(err)
	}
	sr.log.Trace("decoded record", "offset", sr.off, "total_len", total, "fields", len(rec.Fields))
	sr.off += int64(total)
	return rec, nil
}

// Offset returns the number of unwrapped bytes consumed so far.
func (sr *StreamReader) Offset() int64 {
	return sr.off
}

func (sr *StreamReader) fail(err error) error {
	sr.err = err
	return err
}

// StreamWriter serializes records back to back through the line-wrap layer.
// Close must be called to terminate the final line; it does not close the
// underlying writer.
type StreamWriter struct {
	geom Geometry
	ww   *WrapWriter
	log  *logging.Logger
}

// NewStreamWriter builds a writer over w with the given framing.
func NewStreamWriter(w io.Writer, geom Geometry, wrap WrapConfig, log *logging.Logger) *StreamWriter {
	if log == nil {
		log = logging.DefaultLogger()
	}
	return &StreamWriter{
		geom: geom,
		ww:   NewWrapWriter(w, wrap),
		log:  log,
	}
}

// Write encodes one record onto the stream.
func (sw *StreamWriter) Write(rec *Record) error {
	b, err := EncodeRecord(sw.geom, rec)
	if err != nil {
		return err
	}
	sw.log.Trace("encoded record", "total_len", len(b), "fields", len(rec.Fields))
	_, err = sw.ww.Write(b)
	return err
}

// Close flushes the trailing newline of the wrap layer.
func (sw *StreamWriter) Close() error {
	return sw.ww.Close()
}
