package iso2709

import "fmt"

// FormatError reports a parsed byte stream that violates the record layout:
// a length that does not add up, a non-digit in a numeric field, a missing
// terminator. Offset is the byte position where the violation was detected,
// relative to the stream when produced by StreamReader and relative to the
// record start when produced by DecodeRecord directly.
type FormatError struct {
	Offset int64
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("iso2709: %s (at byte %d)", e.Msg, e.Offset)
}

// TruncatedError reports EOF in the middle of a record.
type TruncatedError struct {
	Offset int64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("iso2709: unexpected end of data mid-record (at byte %d)", e.Offset)
}

// OverflowError reports build input that does not fit the configured
// geometry: a numeric field wider than its digit budget, or field bytes
// containing the active terminator.
type OverflowError struct {
	Field string
	Msg   string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("iso2709: %s: %s", e.Field, e.Msg)
}
