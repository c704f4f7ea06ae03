// Package charset converts between the byte encodings used by ISIS data
// files and Go's native UTF-8 strings. The legacy side of the conversion is
// delegated to golang.org/x/text; this package only resolves names and makes
// the failure mode explicit instead of silently emitting replacement runes.
package charset

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// EncodingError reports a byte sequence or rune that the configured
// character set cannot represent.
type EncodingError struct {
	Charset string
	Offset  int
	Err     error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("charset %s: %v", e.Charset, e.Err)
	}
	return fmt.Sprintf("charset %s: invalid byte sequence at offset %d", e.Charset, e.Offset)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Charset encodes and decodes byte strings under a single named encoding.
// The zero value is not usable; obtain instances through Lookup.
type Charset struct {
	name string
	enc  encoding.Encoding // nil means UTF-8 passthrough
}

var aliases = map[string]encoding.Encoding{
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"windows1252":  charmap.Windows1252,
	"cp850":        charmap.CodePage850,
	"ibm850":       charmap.CodePage850,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso8859-1":    charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"utf-8":        nil,
	"utf8":         nil,
}

// Lookup resolves an encoding name to a Charset. Names are matched case
// insensitively against the small alias table above; anything else is an
// error so a typo on the command line fails before any data is read.
func Lookup(name string) (*Charset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	enc, ok := aliases[key]
	if !ok {
		return nil, fmt.Errorf("unknown character set %q", name)
	}
	return &Charset{name: key, enc: enc}, nil
}

// MustLookup is Lookup for compile-time constant names.
func MustLookup(name string) *Charset {
	cs, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return cs
}

// Name returns the canonical (lowercased) name the Charset was resolved from.
func (c *Charset) Name() string {
	return c.name
}

// Decode converts raw bytes from the character set into a UTF-8 string.
func (c *Charset) Decode(b []byte) (string, error) {
	if c.enc == nil {
		if !utf8.Valid(b) {
			return "", &EncodingError{Charset: c.name, Offset: firstInvalidUTF8(b)}
		}
		return string(b), nil
	}
	s, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &EncodingError{Charset: c.name, Err: err}
	}
	// The charmap decoders substitute U+FFFD for unmapped bytes rather than
	// failing. Surface that as an error with the input offset; for the
	// single-byte maps output runs parallel to input positions.
	if i := strings.IndexRune(string(s), utf8.RuneError); i >= 0 {
		return "", &EncodingError{Charset: c.name, Offset: byteOffsetOfRune(string(s), i)}
	}
	return string(s), nil
}

// Encode converts a UTF-8 string into raw bytes under the character set.
func (c *Charset) Encode(s string) ([]byte, error) {
	if c.enc == nil {
		if !utf8.ValidString(s) {
			return nil, &EncodingError{Charset: c.name, Offset: firstInvalidUTF8([]byte(s))}
		}
		return []byte(s), nil
	}
	b, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &EncodingError{Charset: c.name, Err: err}
	}
	return b, nil
}

// firstInvalidUTF8 returns the byte offset of the first invalid sequence.
func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}

// byteOffsetOfRune maps a byte index in the decoded string back to the rune
// count before it, which for single-byte source maps equals the input offset.
func byteOffsetOfRune(s string, byteIdx int) int {
	return utf8.RuneCountInString(s[:byteIdx])
}
