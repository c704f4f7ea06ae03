package iso2709

// Field is one (tag, value) pair of a record. Tag is fixed-width bytes under
// the active geometry; Value is an opaque byte string that must not contain
// the field terminator. Custom carries the per-entry vendor bytes when the
// geometry has CustomLen > 0.
type Field struct {
	Tag    string
	Value  []byte
	Custom []byte
}

// Record is the in-memory form of one ISO 2709 record: leader metadata plus
// an ordered field list. Repeated tags are legal and order is preserved
// exactly, among same-tag entries and across distinct tags alike.
type Record struct {
	Leader Leader
	Fields []Field
}

// Append adds a field at the end of the record.
func (r *Record) Append(tag string, value []byte) {
	r.Fields = append(r.Fields, Field{Tag: tag, Value: value})
}

// Tags returns the tag of every field in order.
func (r *Record) Tags() []string {
	tags := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		tags[i] = f.Tag
	}
	return tags
}
