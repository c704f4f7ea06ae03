package iso2709

import (
	"bytes"
	"fmt"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// EncodeRecord serializes a record under the given geometry. The output is
// the exact unwrapped byte string: leader, directory, field data, record
// terminator. Directory positions, base address and total length are
// computed here; overflow of any numeric slot and terminator bytes embedded
// in a field value fail eagerly with OverflowError.
func EncodeRecord(geom Geometry, rec *Record) ([]byte, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}

	var data bytes.Buffer
	var dir bytes.Buffer
	for i, f := range rec.Fields {
		name := fmt.Sprintf("field %d (tag %s)", i, f.Tag)
		if bytes.IndexByte(f.Value, geom.FieldTerminator) >= 0 {
			return nil, &OverflowError{
				Field: name,
				Msg:   fmt.Sprintf("value contains the field terminator 0x%02X", geom.FieldTerminator),
			}
		}
		if len(f.Tag) != geom.TagLen {
			return nil, &OverflowError{
				Field: name,
				Msg:   fmt.Sprintf("tag %q does not fit tag width %d", f.Tag, geom.TagLen),
			}
		}
		custom := f.Custom
		switch {
		case custom == nil:
			custom = bytes.Repeat([]byte{'0'}, geom.CustomLen)
		case len(custom) != geom.CustomLen:
			return nil, &OverflowError{
				Field: name,
				Msg:   fmt.Sprintf("custom bytes %q do not fit custom width %d", custom, geom.CustomLen),
			}
		}

		pos := data.Len()
		data.Write(f.Value)
		data.WriteByte(geom.FieldTerminator)

		dir.WriteString(f.Tag)
		entry, err := appendNum(nil, data.Len()-pos, geom.LenLen, name+" len")
		if err != nil {
			return nil, err
		}
		if entry, err = appendNum(entry, pos, geom.PosLen, name+" pos"); err != nil {
			return nil, err
		}
		dir.Write(entry)
		dir.Write(custom)
	}
	dir.WriteByte(geom.FieldTerminator)

	leader := rec.Leader.withDefaults()
	leader.BaseAddr = consts.ISO2709_LEADER_SIZE + dir.Len()
	leader.TotalLen = leader.BaseAddr + data.Len() + 1
	leader.LenLen = geom.LenLen
	leader.PosLen = geom.PosLen
	leader.CustomLen = geom.CustomLen

	head, err := encodeLeader(leader)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, leader.TotalLen)
	out = append(out, head...)
	out = append(out, dir.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, geom.RecordTerminator)
	return out, nil
}

// DecodeRecord parses one record from the start of b and returns it together
// with the number of bytes consumed. All layout invariants are verified:
// total length, base address arithmetic, per-entry position/length, field
// terminators and the record terminator. Violations yield FormatError with
// the offending byte offset (relative to the record start); input shorter
// than the declared total length yields TruncatedError.
func DecodeRecord(geom Geometry, b []byte) (*Record, int, error) {
	if err := geom.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid geometry: %w", err)
	}
	leader, err := parseLeader(b)
	if err != nil {
		return nil, 0, err
	}

	total := leader.TotalLen
	base := leader.BaseAddr
	minBase := consts.ISO2709_LEADER_SIZE + 1
	if base < minBase || total < base+1 {
		return nil, 0, &FormatError{
			Offset: 0,
			Msg:    fmt.Sprintf("inconsistent lengths: total_len %d, base_addr %d", total, base),
		}
	}
	if len(b) < total {
		return nil, 0, &TruncatedError{Offset: int64(len(b))}
	}

	entrySize := geom.TagLen + leader.LenLen + leader.PosLen + leader.CustomLen
	dirLen := base - consts.ISO2709_LEADER_SIZE - 1
	if dirLen%entrySize != 0 {
		return nil, 0, &FormatError{
			Offset: consts.ISO2709_LEADER_SIZE,
			Msg:    fmt.Sprintf("directory size %d is not a multiple of entry size %d", dirLen, entrySize),
		}
	}
	if b[base-1] != geom.FieldTerminator {
		return nil, 0, &FormatError{
			Offset: int64(base - 1),
			Msg:    fmt.Sprintf("missing directory terminator, got 0x%02X", b[base-1]),
		}
	}
	if b[total-1] != geom.RecordTerminator {
		return nil, 0, &FormatError{
			Offset: int64(total - 1),
			Msg:    fmt.Sprintf("missing record terminator, got 0x%02X", b[total-1]),
		}
	}

	data := b[base : total-1]
	rec := &Record{Leader: leader}
	expectPos := 0
	for i := 0; i < dirLen/entrySize; i++ {
		off := consts.ISO2709_LEADER_SIZE + i*entrySize
		entry := b[off : off+entrySize]
		name := fmt.Sprintf("entry %d", i)

		tag := string(entry[:geom.TagLen])
		length, err := parseNum(entry[geom.TagLen:geom.TagLen+leader.LenLen], int64(off+geom.TagLen), name+" len")
		if err != nil {
			return nil, 0, err
		}
		pos, err := parseNum(entry[geom.TagLen+leader.LenLen:geom.TagLen+leader.LenLen+leader.PosLen],
			int64(off+geom.TagLen+leader.LenLen), name+" pos")
		if err != nil {
			return nil, 0, err
		}
		var custom []byte
		if leader.CustomLen > 0 {
			custom = append([]byte(nil), entry[entrySize-leader.CustomLen:]...)
		}

		if pos != expectPos {
			return nil, 0, &FormatError{
				Offset: int64(off),
				Msg:    fmt.Sprintf("%s declares position %d but field data continues at %d", name, pos, expectPos),
			}
		}
		if length < 1 || pos+length > len(data) {
			return nil, 0, &FormatError{
				Offset: int64(off),
				Msg:    fmt.Sprintf("%s length %d overruns the field data region (%d bytes)", name, length, len(data)),
			}
		}
		value := data[pos : pos+length-1]
		if data[pos+length-1] != geom.FieldTerminator {
			return nil, 0, &FormatError{
				Offset: int64(base + pos + length - 1),
				Msg:    fmt.Sprintf("field %s is not terminated by 0x%02X", tag, geom.FieldTerminator),
			}
		}
		if j := bytes.IndexByte(value, geom.FieldTerminator); j >= 0 {
			return nil, 0, &FormatError{
				Offset: int64(base + pos + j),
				Msg:    fmt.Sprintf("field terminator inside field %s", tag),
			}
		}
		rec.Fields = append(rec.Fields, Field{
			Tag:    tag,
			Value:  append([]byte(nil), value...),
			Custom: custom,
		})
		expectPos = pos + length
	}
	if expectPos != len(data) {
		return nil, 0, &FormatError{
			Offset: int64(base + expectPos),
			Msg:    fmt.Sprintf("field data region holds %d bytes but the directory accounts for %d", len(data), expectPos),
		}
	}
	return rec, total, nil
}
