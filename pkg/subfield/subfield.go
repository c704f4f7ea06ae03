// Package subfield implements the "^" mini-language used inside ISIS field
// values, e.g. "São Paulo^cSP^aBrasil". A field splits into ordered
// (key, value) pairs where each key is the single character after "^" and
// the text before the first "^" carries the implicit key "_".
package subfield

import (
	"strconv"
	"strings"

	"github.com/scieloorg/ioisis/pkg/consts"
	"github.com/scieloorg/ioisis/pkg/record"
)

// Mode selects how field values are presented in the dictionary view.
type Mode string

const (
	// ModeField keeps the raw field value untouched (isis2json -mt1).
	ModeField Mode = "field"
	// ModePairs splits values into ordered [key, value] pairs (-mt2).
	ModePairs Mode = "pairs"
	// ModeNest folds pairs into a mapping; repeated keys overwrite (-mt3).
	ModeNest Mode = "nest"
)

// ParseMode validates a mode name from the command line.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeField, ModePairs, ModeNest:
		return Mode(s), true
	}
	return "", false
}

// Pair is one (key, value) subfield. It marshals as a two-element JSON array.
type Pair [2]string

// Key returns the subfield key.
func (p Pair) Key() string { return p[0] }

// Value returns the subfield value.
func (p Pair) Value() string { return p[1] }

// Split parses a field value into its ordered subfield pairs. The prefix
// before the first delimiter becomes a "_" pair when non-empty. A delimiter
// as the final byte yields a pair with an empty key and value, so Join can
// reproduce the input byte for byte.
func Split(value string) []Pair {
	var pairs []Pair
	i := strings.IndexByte(value, consts.SUBFIELD_DELIMITER)
	if i < 0 {
		if value != "" {
			pairs = append(pairs, Pair{consts.SUBFIELD_PREFIX_KEY, value})
		}
		return pairs
	}
	if i > 0 {
		pairs = append(pairs, Pair{consts.SUBFIELD_PREFIX_KEY, value[:i]})
	}
	rest := value[i+1:]
	for {
		var key, val string
		if rest == "" {
			// Trailing bare "^".
			pairs = append(pairs, Pair{"", ""})
			return pairs
		}
		key = rest[:1]
		rest = rest[1:]
		next := strings.IndexByte(rest, consts.SUBFIELD_DELIMITER)
		if next < 0 {
			val = rest
			pairs = append(pairs, Pair{key, val})
			return pairs
		}
		val = rest[:next]
		rest = rest[next+1:]
		pairs = append(pairs, Pair{key, val})
	}
}

// Join rebuilds the raw field value from its pairs. A leading "_" pair is
// emitted bare; every other pair is emitted as "^" + key + value. Numbering
// pairs (key "#") are skipped since they carry no field bytes.
func Join(pairs []Pair) string {
	var sb strings.Builder
	first := true
	for _, p := range pairs {
		if p.Key() == consts.SUBFIELD_NUMBER_KEY {
			continue
		}
		if first && p.Key() == consts.SUBFIELD_PREFIX_KEY {
			sb.WriteString(p.Value())
			first = false
			continue
		}
		first = false
		sb.WriteByte(consts.SUBFIELD_DELIMITER)
		sb.WriteString(p.Key())
		sb.WriteString(p.Value())
	}
	return sb.String()
}

// Nest folds pairs into a first-appearance-ordered mapping. A repeated key
// keeps its position but takes the later value; that loss is inherent to
// the mode and is why pairs mode exists alongside it.
func Nest(pairs []Pair) *record.TagMap {
	m := record.New()
	for _, p := range pairs {
		m.Set(p.Key(), p.Value())
	}
	return m
}

// Number prepends the 1-based field occurrence index under the "#" key.
func Number(pairs []Pair, occurrence int) []Pair {
	numbered := make([]Pair, 0, len(pairs)+1)
	numbered = append(numbered, Pair{consts.SUBFIELD_NUMBER_KEY, strconv.Itoa(occurrence)})
	return append(numbered, pairs...)
}
