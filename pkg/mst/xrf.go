package mst

import (
	"encoding/binary"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// pointer is one decoded 4-byte XRF entry. The packed value is
// block*2048 + offset, where block is 1-based into the master file and the
// low 11 bits carry the 0..511 byte offset plus two status bits; a negative
// packed value flags logical deletion and zero means the slot was never
// assigned.
type pointer struct {
	Block    int32
	Offset   int32
	New      bool
	Modified bool
	Deleted  bool
}

func decodePointer(raw int32) (pointer, bool) {
	if raw == 0 {
		return pointer{}, false
	}
	p := pointer{Deleted: raw < 0}
	abs := raw
	if abs < 0 {
		abs = -abs
	}
	p.Block = abs >> 11
	offFlags := abs & 0x7FF
	p.Offset = offFlags & 0x1FF
	p.New = offFlags&0x200 != 0
	p.Modified = offFlags&0x400 != 0
	return p, true
}

// xrfPointer loads the packed pointer for one MFN. XRF blocks are 512 bytes:
// a 4-byte block pointer followed by 127 entries, so MFN m lives in block
// (m-1)/127 at slot (m-1)%127.
func xrfPointer(xrf []byte, mfn uint32) (int32, error) {
	blk := (mfn - 1) / consts.XRF_SLOTS_PER_BLOCK
	slot := (mfn - 1) % consts.XRF_SLOTS_PER_BLOCK
	off := int(blk)*consts.XRF_BLOCK_SIZE + 4 + int(slot)*4
	if off+4 > len(xrf) {
		return 0, &XrfError{Mfn: mfn, Msg: "pointer beyond the end of the cross-reference file"}
	}
	return int32(binary.LittleEndian.Uint32(xrf[off : off+4])), nil
}

// xrfBlocksFor returns how many XRF blocks a database with the given
// next_mfn must contain.
func xrfBlocksFor(nextMfn uint32) int {
	slots := int(nextMfn) - 1
	if slots <= 0 {
		return 0
	}
	return (slots + consts.XRF_SLOTS_PER_BLOCK - 1) / consts.XRF_SLOTS_PER_BLOCK
}
