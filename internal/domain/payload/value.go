package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind enumerates the JSON value variants.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Member is one key/value pair of an object, in source order.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON document. The zero Value is null.
// Objects keep the key order of the source text.
type Value struct {
	kind    Kind
	boolean bool
	number  json.Number
	str     string
	items   []Value
	members []Member
}

// Null returns the JSON null value.
func Null() Value { return Value{} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number wraps a JSON number literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, number: n} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps items.
func Array(items ...Value) Value { return Value{kind: KindArray, items: items} }

// Object builds an object from members. Later duplicates overwrite earlier values in place.
func Object(members ...Member) Value {
	v := Value{kind: KindObject}
	index := make(map[string]int, len(members))
	for _, m := range members {
		v.set(index, m.Key, m.Value)
	}
	return v
}

func (v *Value) set(index map[string]int, key string, val Value) {
	if i, ok := index[key]; ok {
		v.members[i].Value = val
		return
	}
	index[key] = len(v.members)
	v.members = append(v.members, Member{Key: key, Value: val})
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsNumber returns the number literal.
func (v Value) AsNumber() (json.Number, bool) { return v.number, v.kind == KindNumber }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// Items returns the elements of an array, or nil.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Members returns the object members in source order, or nil.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.members
}

// Len is the member count of an object or the item count of an array.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.members)
	case KindArray:
		return len(v.items)
	default:
		return 0
	}
}

// Keys lists object keys in source order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Get looks up an object member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether key is an own member of an object.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Parse decodes exactly one JSON document from data.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, errors.New("unexpected data after top-level value")
		}
		return Value{}, err
	}
	return v, nil
}

// ParseString is Parse for text input.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

// MaxDepth bounds array and object nesting, the same limit encoding/json applies.
const MaxDepth = 10000

// ErrTooDeep is returned for documents nested deeper than MaxDepth.
var ErrTooDeep = errors.New("json nesting exceeds maximum depth")

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		if t == '{' || t == '[' {
			if depth >= MaxDepth {
				return Value{}, ErrTooDeep
			}
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	obj := Value{kind: KindObject}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		val, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		obj.set(index, key, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	arr := Value{kind: KindArray}
	for dec.More() {
		val, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		arr.items = append(arr.items, val)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return arr, nil
}

// MarshalJSON encodes v preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes data preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.number == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(v.number.String())
	case KindString:
		return writeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode %s", v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}
