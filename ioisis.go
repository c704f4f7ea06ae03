// Package ioisis converts bibliographic data between the formats of the
// ISIS family: ISO 2709 interchange streams, CDS/ISIS master files
// (MST+XRF) and a line-oriented JSON dictionary view. The facade in this
// package ties the codecs together; the formats themselves live under
// pkg/iso2709 and pkg/mst.
package ioisis

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scieloorg/ioisis/pkg/charset"
	"github.com/scieloorg/ioisis/pkg/iso2709"
	"github.com/scieloorg/ioisis/pkg/logging"
	"github.com/scieloorg/ioisis/pkg/mst"
	"github.com/scieloorg/ioisis/pkg/options"
	"github.com/scieloorg/ioisis/pkg/record"
	"github.com/scieloorg/ioisis/pkg/subfield"
)

// Reserved dictionary-view keys emitted when reading master files.
const (
	MfnKey    = "mfn"
	ActiveKey = "active"
)

func buildOptions(opts []options.Option) options.Options {
	cfg := options.Defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func geometryFrom(cfg options.Options) iso2709.Geometry {
	return iso2709.Geometry{
		TagLen:           cfg.TagLen,
		LenLen:           cfg.LenLen,
		PosLen:           cfg.PosLen,
		CustomLen:        cfg.CustomLen,
		FieldTerminator:  cfg.FieldTerm,
		RecordTerminator: cfg.RecordTerm,
	}
}

func wrapFrom(cfg options.Options) iso2709.WrapConfig {
	return iso2709.WrapConfig{LineLen: cfg.LineLen, Newline: cfg.Newline}
}

// ISOReader produces dictionary views from an ISO 2709 byte stream.
type ISOReader struct {
	sr  *iso2709.StreamReader
	cs  *charset.Charset
	cfg options.Options
}

// NewISOReader wraps r. The stream is consumed lazily, one record per Read.
func NewISOReader(r io.Reader, opts ...options.Option) (*ISOReader, error) {
	cfg := buildOptions(opts)
	cs, err := charset.Lookup(cfg.IsoEncoding)
	if err != nil {
		return nil, err
	}
	log := logging.NewLogger(cfg.Logger)
	return &ISOReader{
		sr:  iso2709.NewStreamReader(r, geometryFrom(cfg), wrapFrom(cfg), log),
		cs:  cs,
		cfg: cfg,
	}, nil
}

// Read returns the next record as a dictionary view, or io.EOF.
func (ir *ISOReader) Read() (*record.TagMap, error) {
	rec, err := ir.sr.Read()
	if err != nil {
		return nil, err
	}
	view := record.New()
	occ := map[string]int{}
	for _, f := range rec.Fields {
		value, err := ir.cs.Decode(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Tag, err)
		}
		occ[f.Tag]++
		view.Append(f.Tag, presentValue(ir.cfg, value, occ[f.Tag]))
	}
	return view, nil
}

// ISOWriter serializes dictionary views onto an ISO 2709 byte stream.
// Close must be called to flush the final wrapped line.
type ISOWriter struct {
	sw  *iso2709.StreamWriter
	cs  *charset.Charset
	cfg options.Options
}

// NewISOWriter wraps w.
func NewISOWriter(w io.Writer, opts ...options.Option) (*ISOWriter, error) {
	cfg := buildOptions(opts)
	cs, err := charset.Lookup(cfg.IsoEncoding)
	if err != nil {
		return nil, err
	}
	log := logging.NewLogger(cfg.Logger)
	return &ISOWriter{
		sw:  iso2709.NewStreamWriter(w, geometryFrom(cfg), wrapFrom(cfg), log),
		cs:  cs,
		cfg: cfg,
	}, nil
}

// Write serializes one view. Scalar entries (the reserved master file keys)
// are dropped; tags narrower than the geometry are left-padded with zeros,
// which keeps the numeric ISIS tags canonical.
func (iw *ISOWriter) Write(view *record.TagMap) error {
	rec := &iso2709.Record{}
	for _, tag := range view.Keys() {
		list, ok := view.Get(tag).([]interface{})
		if !ok {
			continue
		}
		padded := padTag(tag, iw.cfg.TagLen)
		for _, v := range list {
			raw, err := rawValue(iw.cfg.Mode, v)
			if err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
			b, err := iw.cs.Encode(raw)
			if err != nil {
				return fmt.Errorf("tag %s: %w", tag, err)
			}
			rec.Append(padded, b)
		}
	}
	return iw.sw.Write(rec)
}

// Close flushes the line wrap layer. It does not close the underlying
// writer.
func (iw *ISOWriter) Close() error {
	return iw.sw.Close()
}

// MasterReader produces dictionary views from an MST+XRF pair.
type MasterReader struct {
	r   *mst.Reader
	it  *mst.Iterator
	cs  *charset.Charset
	cfg options.Options
}

// OpenMaster opens the master file at path and its companion index.
func OpenMaster(path string, opts ...options.Option) (*MasterReader, error) {
	cfg := buildOptions(opts)
	cs, err := charset.Lookup(cfg.IsoEncoding)
	if err != nil {
		return nil, err
	}
	r, err := mst.Open(path,
		mst.WithFormat(cfg.MstFormat),
		mst.WithOnlyActive(cfg.OnlyActive),
		mst.WithLogger(cfg.Logger),
	)
	if err != nil {
		return nil, err
	}
	return &MasterReader{r: r, it: r.Iter(), cs: cs, cfg: cfg}, nil
}

// Read returns the next record in ascending MFN order, or io.EOF.
func (mr *MasterReader) Read() (*record.TagMap, error) {
	rec, err := mr.it.Next()
	if err != nil {
		return nil, err
	}
	return mr.view(rec)
}

// Record returns one record by MFN.
func (mr *MasterReader) Record(mfn uint32) (*record.TagMap, error) {
	rec, err := mr.r.Record(mfn)
	if err != nil {
		return nil, err
	}
	return mr.view(rec)
}

// NextMfn returns one past the highest assigned MFN.
func (mr *MasterReader) NextMfn() uint32 {
	return mr.r.NextMfn()
}

// Close releases the underlying files.
func (mr *MasterReader) Close() error {
	return mr.r.Close()
}

func (mr *MasterReader) view(rec *mst.Record) (*record.TagMap, error) {
	view := record.New()
	if mr.cfg.MfnKey {
		view.Set(MfnKey, rec.Mfn)
	}
	if mr.cfg.ActiveKey {
		view.Set(ActiveKey, rec.Active)
	}
	occ := map[uint32]int{}
	for _, f := range rec.Fields {
		value, err := mr.cs.Decode(f.Value)
		if err != nil {
			return nil, fmt.Errorf("mfn %d tag %d: %w", rec.Mfn, f.Tag, err)
		}
		occ[f.Tag]++
		view.Append(strconv.FormatUint(uint64(f.Tag), 10), presentValue(mr.cfg, value, occ[f.Tag]))
	}
	return view, nil
}

// presentValue shapes one decoded field value for the dictionary view.
func presentValue(cfg options.Options, value string, occurrence int) interface{} {
	switch cfg.Mode {
	case subfield.ModePairs:
		pairs := subfield.Split(value)
		if cfg.WithNumber {
			pairs = subfield.Number(pairs, occurrence)
		}
		return pairs
	case subfield.ModeNest:
		pairs := subfield.Split(value)
		if cfg.WithNumber {
			pairs = subfield.Number(pairs, occurrence)
		}
		return subfield.Nest(pairs)
	default:
		return value
	}
}

// rawValue rebuilds the raw field string from whichever shape the view
// holds: a plain string, a pairs list or a nest object.
func rawValue(mode subfield.Mode, v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case []subfield.Pair:
		return subfield.Join(val), nil
	case []interface{}:
		pairs, err := pairsFromList(val)
		if err != nil {
			return "", err
		}
		return subfield.Join(pairs), nil
	case *record.TagMap:
		pairs, err := pairsFromObject(val)
		if err != nil {
			return "", err
		}
		return subfield.Join(pairs), nil
	default:
		return "", fmt.Errorf("cannot serialize %T as a field value in %s mode", v, mode)
	}
}

func pairsFromList(list []interface{}) ([]subfield.Pair, error) {
	pairs := make([]subfield.Pair, 0, len(list))
	for _, elem := range list {
		switch p := elem.(type) {
		case subfield.Pair:
			pairs = append(pairs, p)
		case []interface{}:
			if len(p) != 2 {
				return nil, fmt.Errorf("subfield pair has %d elements, want 2", len(p))
			}
			key, err := stringValue(p[0])
			if err != nil {
				return nil, err
			}
			value, err := stringValue(p[1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, subfield.Pair{key, value})
		default:
			return nil, fmt.Errorf("unexpected subfield pair of type %T", elem)
		}
	}
	return pairs, nil
}

func pairsFromObject(obj *record.TagMap) ([]subfield.Pair, error) {
	pairs := make([]subfield.Pair, 0, obj.Len())
	for _, key := range obj.Keys() {
		value, err := stringValue(obj.Get(key))
		if err != nil {
			return nil, fmt.Errorf("subfield %q: %w", key, err)
		}
		pairs = append(pairs, subfield.Pair{key, value})
	}
	return pairs, nil
}

func stringValue(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	default:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
}

func padTag(tag string, width int) string {
	if len(tag) >= width {
		return tag
	}
	return strings.Repeat("0", width-len(tag)) + tag
}
