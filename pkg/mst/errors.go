package mst

import (
	"errors"
	"fmt"
)

// ErrNotWritten marks an MFN whose cross-reference slot was never assigned.
var ErrNotWritten = errors.New("mst: record was never written")

// XrfError reports a cross-reference pointer that cannot be honored: it
// lands outside the master file, its MFN does not match the record found
// there, or the XRF file is too short for the control record's next_mfn.
type XrfError struct {
	Mfn uint32
	Msg string
}

func (e *XrfError) Error() string {
	if e.Mfn == 0 {
		return fmt.Sprintf("xrf: %s", e.Msg)
	}
	return fmt.Sprintf("xrf: mfn %d: %s", e.Mfn, e.Msg)
}
