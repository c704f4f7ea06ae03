package iso2709

import (
	"fmt"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// Geometry holds the directory widths and terminator bytes of one ISO 2709
// dialect. The defaults match the files produced by CDS/ISIS and friends;
// every width is overridable because real-world archives disagree on all of
// them. LenLen + PosLen + CustomLen is deliberately not forced to equal 9.
type Geometry struct {
	TagLen           int
	LenLen           int
	PosLen           int
	CustomLen        int
	FieldTerminator  byte
	RecordTerminator byte
}

// DefaultGeometry returns the CDS/ISIS interchange geometry.
func DefaultGeometry() Geometry {
	return Geometry{
		TagLen:           consts.ISO2709_DEFAULT_TAG_LEN,
		LenLen:           consts.ISO2709_DEFAULT_LEN_LEN,
		PosLen:           consts.ISO2709_DEFAULT_POS_LEN,
		CustomLen:        consts.ISO2709_DEFAULT_CUSTOM_LEN,
		FieldTerminator:  consts.ISO2709_FIELD_TERMINATOR,
		RecordTerminator: consts.ISO2709_RECORD_TERMINATOR,
	}
}

// Validate checks that the widths fit the single-digit entry map slots.
func (g Geometry) Validate() error {
	if g.TagLen < 1 {
		return fmt.Errorf("tag width %d must be at least 1", g.TagLen)
	}
	if g.LenLen < 1 || g.LenLen > 9 {
		return fmt.Errorf("len width %d outside 1..9", g.LenLen)
	}
	if g.PosLen < 1 || g.PosLen > 9 {
		return fmt.Errorf("pos width %d outside 1..9", g.PosLen)
	}
	if g.CustomLen < 0 || g.CustomLen > 9 {
		return fmt.Errorf("custom width %d outside 0..9", g.CustomLen)
	}
	return nil
}

// entrySize is the byte size of one directory entry under this geometry.
func (g Geometry) entrySize() int {
	return g.TagLen + g.LenLen + g.PosLen + g.CustomLen
}
