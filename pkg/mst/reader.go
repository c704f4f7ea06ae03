// Package mst reads CDS/ISIS master files: the block-organized .mst data
// file paired with the .xrf cross-reference index that maps each MFN to the
// block and offset where its record starts. Only reading is supported.
package mst

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-logr/logr"

	"github.com/scieloorg/ioisis/pkg/consts"
	"github.com/scieloorg/ioisis/pkg/logging"
)

// Format selects the record layout width. The two variants cannot be told
// apart reliably from the files themselves, so the caller chooses; the
// default is the classic 16-bit ISIS layout.
type Format int

const (
	// FormatISIS uses 16-bit directory tag/pos/len fields.
	FormatISIS Format = iota
	// FormatFFI uses 32-bit directory fields and a 64-bit record length.
	FormatFFI
)

func (f Format) entrySize() int {
	if f == FormatFFI {
		return 12
	}
	return 6
}

// Field is one (tag, value) pair of a master file record. Tags are numeric
// in this format.
type Field struct {
	Tag   uint32
	Value []byte
}

// Record is one decoded master file record.
type Record struct {
	Mfn    uint32
	Active bool
	Status uint16
	Fields []Field
}

// Options configures a Reader.
type Options struct {
	Format     Format
	OnlyActive bool
	Logger     logr.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithFormat selects the ISIS or FFI record layout.
func WithFormat(f Format) Option {
	return func(o *Options) {
		o.Format = f
	}
}

// WithOnlyActive makes iteration skip logically deleted records.
func WithOnlyActive(enabled bool) Option {
	return func(o *Options) {
		o.OnlyActive = enabled
	}
}

// WithLogger sets the logger for the reader.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Reader provides random access to the records of one MST+XRF pair. Both
// files are mapped read-only for the reader's lifetime; a Reader is safe
// for concurrent use because every per-record lookup is serialized.
type Reader struct {
	mstFile *os.File
	xrfFile *os.File
	mstMap  mmap.MMap
	xrfMap  mmap.MMap
	mst     []byte
	xrf     []byte
	ctl     ControlRecord
	opts    Options
	log     *logging.Logger
	mu      sync.Mutex
}

// Open opens <name>.mst together with its <name>.xrf companion. The control
// record is validated against the cross-reference length before any record
// is served.
func Open(path string, opts ...Option) (*Reader, error) {
	options := Options{
		Format: FormatISIS,
		Logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	r := &Reader{
		opts: options,
		log:  logging.NewLogger(options.Logger),
	}
	if err := r.open(path); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) open(path string) (err error) {
	r.mstFile, err = os.Open(path)
	if err != nil {
		return err
	}
	if r.mstMap, r.mst, err = mapFile(r.mstFile); err != nil {
		return fmt.Errorf("failed to map %s: %w", path, err)
	}

	ctl, ok := parseControl(r.mst)
	if !ok {
		return fmt.Errorf("%s: file shorter than the control record", path)
	}
	r.ctl = ctl
	r.log.Debug("opened master file", "path", path, "next_mfn", ctl.NextMfn, "type", ctl.Type)

	xrfPath := companionPath(path)
	r.xrfFile, err = os.Open(xrfPath)
	if err != nil {
		return err
	}
	if r.xrfMap, r.xrf, err = mapFile(r.xrfFile); err != nil {
		return fmt.Errorf("failed to map %s: %w", xrfPath, err)
	}

	if need := xrfBlocksFor(ctl.NextMfn) * consts.XRF_BLOCK_SIZE; len(r.xrf) < need {
		return &XrfError{
			Msg: fmt.Sprintf("cross-reference holds %d bytes but next_mfn %d requires %d", len(r.xrf), ctl.NextMfn, need),
		}
	}
	return nil
}

// mapFile maps f read-only, falling back to a plain read when the mapping
// fails (zero-length files, exotic filesystems).
func mapFile(f *os.File) (mmap.MMap, []byte, error) {
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err == nil {
		return m, m, nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, nil, serr
	}
	b, rerr := io.ReadAll(f)
	if rerr != nil {
		return nil, nil, rerr
	}
	return nil, b, nil
}

// companionPath derives the .xrf path, matching the case of the .mst suffix.
func companionPath(mstPath string) string {
	ext := filepath.Ext(mstPath)
	stem := strings.TrimSuffix(mstPath, ext)
	if ext == strings.ToUpper(ext) && ext != strings.ToLower(ext) {
		return stem + ".XRF"
	}
	return stem + ".xrf"
}

// Close releases both mappings and file handles. It is safe on a partially
// opened reader.
func (r *Reader) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if r.mstMap != nil {
		keep(r.mstMap.Unmap())
		r.mstMap = nil
	}
	if r.xrfMap != nil {
		keep(r.xrfMap.Unmap())
		r.xrfMap = nil
	}
	if r.mstFile != nil {
		keep(r.mstFile.Close())
		r.mstFile = nil
	}
	if r.xrfFile != nil {
		keep(r.xrfFile.Close())
		r.xrfFile = nil
	}
	return first
}

// Control returns the master file's control record.
func (r *Reader) Control() ControlRecord {
	return r.ctl
}

// NextMfn returns one past the highest assigned MFN.
func (r *Reader) NextMfn() uint32 {
	return r.ctl.NextMfn
}

// Record reads one record by MFN. Never-written slots return ErrNotWritten;
// logically deleted records are returned with Active set to false so the
// caller can decide what to do with them.
func (r *Reader) Record(mfn uint32) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record(mfn)
}

func (r *Reader) record(mfn uint32) (*Record, error) {
	if mfn == 0 || mfn >= r.ctl.NextMfn {
		return nil, &XrfError{Mfn: mfn, Msg: fmt.Sprintf("outside the assigned range 1..%d", r.ctl.NextMfn-1)}
	}
	raw, err := xrfPointer(r.xrf, mfn)
	if err != nil {
		return nil, err
	}
	ptr, written := decodePointer(raw)
	if !written {
		return nil, ErrNotWritten
	}
	if ptr.Block < 1 {
		return nil, &XrfError{Mfn: mfn, Msg: fmt.Sprintf("pointer names block %d", ptr.Block)}
	}

	pos := (int64(ptr.Block)-1)*consts.MST_BLOCK_SIZE + int64(ptr.Offset)
	rec, err := r.decodeRecord(mfn, pos)
	if err != nil {
		return nil, err
	}
	rec.Active = !ptr.Deleted && rec.Status == 0
	return rec, nil
}

// decodeRecord reads the leader, directory and field bytes starting at pos.
// Records span 512-byte block boundaries transparently: the bytes of one
// record are contiguous in the file.
func (r *Reader) decodeRecord(mfn uint32, pos int64) (*Record, error) {
	le := binary.LittleEndian
	head, err := r.slice(mfn, pos, consts.MST_LEADER_SIZE)
	if err != nil {
		return nil, err
	}

	var (
		recMfn uint32
		mfrl   int64
		base   int64
		nvf    int
		status uint16
	)
	if r.opts.Format == FormatFFI {
		recMfn = le.Uint32(head[0:4])
		mfrl = int64(le.Uint64(head[4:12]))
		// head[12:16] backward block, head[16:20] backward offset
		base = int64(le.Uint32(head[20:24]))
		nvf = int(le.Uint16(head[24:26]))
		status = le.Uint16(head[26:28])
	} else {
		recMfn = le.Uint32(head[0:4])
		mfrl = int64(le.Uint32(head[4:8]))
		// head[8:12] backward block, head[12:14] backward offset
		base = int64(le.Uint16(head[14:16]))
		nvf = int(le.Uint16(head[16:18]))
		status = le.Uint16(head[18:20])
	}
	if recMfn != mfn {
		return nil, &XrfError{Mfn: mfn, Msg: fmt.Sprintf("record at block offset %d belongs to mfn %d", pos, recMfn)}
	}

	entrySize := r.opts.Format.entrySize()
	dirEnd := int64(consts.MST_LEADER_SIZE) + int64(nvf*entrySize)
	if base < dirEnd || mfrl < base {
		return nil, &XrfError{Mfn: mfn, Msg: fmt.Sprintf("inconsistent leader: len %d, base %d, nvf %d", mfrl, base, nvf)}
	}
	dir, err := r.slice(mfn, pos+consts.MST_LEADER_SIZE, nvf*entrySize)
	if err != nil {
		return nil, err
	}
	data, err := r.slice(mfn, pos+base, int(mfrl-base))
	if err != nil {
		return nil, err
	}

	rec := &Record{Mfn: mfn, Status: status, Fields: make([]Field, 0, nvf)}
	for i := 0; i < nvf; i++ {
		entry := dir[i*entrySize : (i+1)*entrySize]
		var tag, fpos, flen uint32
		if r.opts.Format == FormatFFI {
			tag = le.Uint32(entry[0:4])
			fpos = le.Uint32(entry[4:8])
			flen = le.Uint32(entry[8:12])
		} else {
			tag = uint32(le.Uint16(entry[0:2]))
			fpos = uint32(le.Uint16(entry[2:4]))
			flen = uint32(le.Uint16(entry[4:6]))
		}
		if int64(fpos)+int64(flen) > int64(len(data)) {
			return nil, &XrfError{
				Mfn: mfn,
				Msg: fmt.Sprintf("directory entry %d (tag %d) overruns the record data", i, tag),
			}
		}
		rec.Fields = append(rec.Fields, Field{
			Tag:   tag,
			Value: append([]byte(nil), data[fpos:fpos+flen]...),
		})
	}
	r.log.Trace("decoded master record", "mfn", mfn, "len", mfrl, "nvf", nvf, "status", status)
	return rec, nil
}

// slice bounds-checks a byte range of the master file.
func (r *Reader) slice(mfn uint32, pos int64, n int) ([]byte, error) {
	if n < 0 || pos < 0 || pos+int64(n) > int64(len(r.mst)) {
		return nil, &XrfError{Mfn: mfn, Msg: fmt.Sprintf("range [%d, %d) outside the master file (%d bytes)", pos, pos+int64(n), len(r.mst))}
	}
	return r.mst[pos : pos+int64(n)], nil
}

// Iterator walks records in ascending MFN order.
type Iterator struct {
	r   *Reader
	mfn uint32
}

// Iter returns an iterator starting at MFN 1. Never-written slots are
// always skipped; logically deleted records are skipped too when the reader
// was opened with WithOnlyActive.
func (r *Reader) Iter() *Iterator {
	return &Iterator{r: r}
}

// Next returns the next record, or io.EOF after the last assigned MFN.
func (it *Iterator) Next() (*Record, error) {
	for {
		it.mfn++
		if it.mfn >= it.r.ctl.NextMfn {
			return nil, io.EOF
		}
		rec, err := it.r.Record(it.mfn)
		if err == ErrNotWritten {
			continue
		}
		if err != nil {
			return nil, err
		}
		if it.r.opts.OnlyActive && !rec.Active {
			continue
		}
		return rec, nil
	}
}
