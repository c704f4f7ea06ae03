package mst

import (
	"encoding/binary"

	"github.com/scieloorg/ioisis/pkg/consts"
)

// ControlRecord is the 32-byte bookkeeping record at the start of block 1.
// NextMfn is one past the highest assigned MFN and bounds every iteration;
// NextBlock/NextOffset point at the master file's write position.
type ControlRecord struct {
	CtlMfn     uint32
	NextMfn    uint32
	NextBlock  uint32
	NextOffset uint16
	Type       uint16
	RecCount   uint32
	Cxx1       uint32
	Cxx2       uint32
	Cxx3       uint32
}

func parseControl(b []byte) (ControlRecord, bool) {
	var c ControlRecord
	if len(b) < consts.MST_CONTROL_SIZE {
		return c, false
	}
	le := binary.LittleEndian
	c.CtlMfn = le.Uint32(b[0:4])
	c.NextMfn = le.Uint32(b[4:8])
	c.NextBlock = le.Uint32(b[8:12])
	c.NextOffset = le.Uint16(b[12:14])
	c.Type = le.Uint16(b[14:16])
	c.RecCount = le.Uint32(b[16:20])
	c.Cxx1 = le.Uint32(b[20:24])
	c.Cxx2 = le.Uint32(b[24:28])
	c.Cxx3 = le.Uint32(b[28:32])
	return c, true
}
