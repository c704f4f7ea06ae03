// Package record provides the in-memory shape shared by every front end: an
// insertion-ordered mapping from tag to values. JSON object key order is
// semantically significant for ISIS data (first appearance on read, declared
// order on write), so the stock map[string] types cannot be used here.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TagMap is an ordered JSON object. Top-level values are either scalars
// (reserved keys such as "mfn" and "active") or lists of field values; a
// nested *TagMap represents a subfield mapping in nest mode.
type TagMap struct {
	keys []string
	vals map[string]interface{}
}

// New returns an empty TagMap.
func New() *TagMap {
	return &TagMap{vals: make(map[string]interface{})}
}

// Len returns the number of distinct keys.
func (m *TagMap) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (m *TagMap) Keys() []string {
	return m.keys
}

// Get returns the value stored under key, or nil.
func (m *TagMap) Get(key string) interface{} {
	return m.vals[key]
}

// Set stores a scalar (or any prebuilt value) under key, replacing an
// existing value but keeping its original position.
func (m *TagMap) Set(key string, v interface{}) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Append adds one value to the list stored under key, creating the list on
// first use. It panics if the key holds a non-list value; reserved scalar
// keys and field tags never collide in practice.
func (m *TagMap) Append(key string, v interface{}) {
	cur, ok := m.vals[key]
	if !ok {
		m.keys = append(m.keys, key)
		m.vals[key] = []interface{}{v}
		return
	}
	list, ok := cur.([]interface{})
	if !ok {
		panic(fmt.Sprintf("record: key %q holds a scalar, cannot append", key))
	}
	m.vals[key] = append(list, v)
}

// List returns the value list under key, or nil if the key is absent or
// holds a scalar.
func (m *TagMap) List(key string) []interface{} {
	list, _ := m.vals[key].([]interface{})
	return list
}

// MarshalJSON writes the object with keys in insertion order.
func (m *TagMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object preserving key order, recursing so nested
// objects keep their order too.
func (m *TagMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}
	if m.vals == nil {
		m.vals = make(map[string]interface{})
	}
	m.keys = m.keys[:0]
	if err := m.decodeMembers(dec); err != nil {
		return err
	}
	return nil
}

func (m *TagMap) decodeMembers(dec *json.Decoder) error {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record: non-string object key %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return err
		}
		m.Set(key, val)
	}
	// Closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// decodeValue reads one JSON value from dec, turning objects into *TagMap so
// their key order survives.
func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := New()
			if err := obj.decodeMembers(dec); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var list []interface{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if list == nil {
				list = []interface{}{}
			}
			return list, nil
		default:
			return nil, fmt.Errorf("record: unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}
