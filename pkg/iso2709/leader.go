package iso2709

import (
	"fmt"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// Leader is the fixed 24-byte header of an ISO 2709 record.
//
// Layout (byte positions):
//
//	 0- 4  total record length, 5 digits
//	 5     record status
//	 6     record type
//	 7- 8  custom metadata
//	 9     character coding
//	10     indicator count, 1 digit
//	11     identifier length, 1 digit
//	12-16  base address of data, 5 digits
//	17-19  custom metadata
//	20     entry map: length-of-field width, 1 digit
//	21     entry map: starting-position width, 1 digit
//	22     entry map: custom width, 1 digit
//	23     entry map: reserved
//
// TotalLen and BaseAddr are computed on build and verified on parse; the
// single-byte slots are opaque and round-trip untouched.
type Leader struct {
	TotalLen       int
	Status         byte
	Type           byte
	Coding         byte
	IndicatorCount byte
	IdentifierLen  byte
	BaseAddr       int
	Custom2        [2]byte
	Custom3        [3]byte
	LenLen         int
	PosLen         int
	CustomLen      int
	Reserved       byte
}

// withDefaults fills unset single-byte slots with ASCII '0' so that the
// zero-valued Leader builds the conventional all-zeros header.
func (l Leader) withDefaults() Leader {
	def := func(b byte) byte {
		if b == 0 {
			return '0'
		}
		return b
	}
	l.Status = def(l.Status)
	l.Type = def(l.Type)
	l.Coding = def(l.Coding)
	l.IndicatorCount = def(l.IndicatorCount)
	l.IdentifierLen = def(l.IdentifierLen)
	for i := range l.Custom2 {
		l.Custom2[i] = def(l.Custom2[i])
	}
	for i := range l.Custom3 {
		l.Custom3[i] = def(l.Custom3[i])
	}
	l.Reserved = def(l.Reserved)
	return l
}

// encodeLeader serializes the leader. TotalLen, BaseAddr and the entry map
// are expected to have been computed by the caller.
func encodeLeader(l Leader) ([]byte, error) {
	buf := make([]byte, 0, consts.ISO2709_LEADER_SIZE)
	var err error
	if buf, err = appendNum(buf, l.TotalLen, 5, "total_len"); err != nil {
		return nil, err
	}
	buf = append(buf, l.Status, l.Type)
	buf = append(buf, l.Custom2[:]...)
	buf = append(buf, l.Coding, l.IndicatorCount, l.IdentifierLen)
	if buf, err = appendNum(buf, l.BaseAddr, 5, "base_addr"); err != nil {
		return nil, err
	}
	buf = append(buf, l.Custom3[:]...)
	if buf, err = appendNum(buf, l.LenLen, 1, "len_len"); err != nil {
		return nil, err
	}
	if buf, err = appendNum(buf, l.PosLen, 1, "pos_len"); err != nil {
		return nil, err
	}
	if buf, err = appendNum(buf, l.CustomLen, 1, "custom_len"); err != nil {
		return nil, err
	}
	buf = append(buf, l.Reserved)
	return buf, nil
}

// parseLeader decodes the 24 leader bytes. Numeric slots must hold only
// ASCII digits; everything else is opaque.
func parseLeader(b []byte) (Leader, error) {
	var l Leader
	if len(b) < consts.ISO2709_LEADER_SIZE {
		return l, &TruncatedError{Offset: int64(len(b))}
	}
	var err error
	if l.TotalLen, err = parseNum(b[0:5], 0, "total_len"); err != nil {
		return l, err
	}
	l.Status = b[5]
	l.Type = b[6]
	copy(l.Custom2[:], b[7:9])
	l.Coding = b[9]
	l.IndicatorCount = b[10]
	l.IdentifierLen = b[11]
	if l.BaseAddr, err = parseNum(b[12:17], 12, "base_addr"); err != nil {
		return l, err
	}
	copy(l.Custom3[:], b[17:20])
	if l.LenLen, err = parseNum(b[20:21], 20, "len_len"); err != nil {
		return l, err
	}
	if l.PosLen, err = parseNum(b[21:22], 21, "pos_len"); err != nil {
		return l, err
	}
	if l.CustomLen, err = parseNum(b[22:23], 22, "custom_len"); err != nil {
		return l, err
	}
	l.Reserved = b[23]
	return l, nil
}

// appendNum appends v as a zero-padded ASCII decimal of the given width.
func appendNum(buf []byte, v, width int, field string) ([]byte, error) {
	if v < 0 || v >= pow10(width) {
		return nil, &OverflowError{
			Field: field,
			Msg:   fmt.Sprintf("value %d does not fit %d digit(s)", v, width),
		}
	}
	return append(buf, []byte(fmt.Sprintf("%0*d", width, v))...), nil
}

// parseNum decodes a zero-padded ASCII decimal, failing on any non-digit.
func parseNum(b []byte, offset int64, field string) (int, error) {
	v := 0
	for i, c := range b {
		if c < '0' || c > '9' {
			return 0, &FormatError{
				Offset: offset + int64(i),
				Msg:    fmt.Sprintf("non-digit byte 0x%02X in %s", c, field),
			}
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}
