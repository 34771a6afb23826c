// Package value implements a dynamically typed document tree.
//
// A Value is one of Null, Boolean, Integer, Floating, String, Array or Object.
// Objects are ordered lists of key/value members rather than maps: keys are not
// required to be unique and lookups return the first match. Values render to a
// JSON-like text with Stringify and are read back with Parse.
//
// Code produced by the cppx transpiler builds Values through the L and A literal
// types and From.
package value

import (
	"errors"
	"fmt"
)

// Kind is the discriminant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloating
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloating:
		return "floating"
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

// Access errors
var (
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrNotAnObject     = errors.New("value is not an object")
	ErrNotAnArray      = errors.New("value is not an array")
	ErrKeyNotFound     = errors.New("key not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidLiteral  = errors.New("invalid object literal")
	ErrUnsupportedType = errors.New("unsupported Go type")
	ErrIntegerOverflow = errors.New("integer does not fit in int64")
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Value is a tagged union. The zero Value is Null.
// Only the payload field matching kind is meaningful.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  []Member
}

// Null returns the Null value.
func Null() Value { return Value{} }

// Bool returns a Boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Int returns an Integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float returns a Floating value.
func Float(f float64) Value { return Value{kind: KindFloating, f: f} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an Array holding elems. The slice is used as is.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Object returns an Object holding members in order. The slice is used as is.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, obj: members}
}

// FromLiteral builds an Object from a flat list of alternating keys and values.
// Every key element must be a String and every key needs a following value.
func FromLiteral(elems ...Value) (Value, error) {
	if len(elems)%2 != 0 {
		return Value{}, fmt.Errorf("%w: odd number of elements (%d), expected key/value pairs", ErrInvalidLiteral, len(elems))
	}
	members := make([]Member, 0, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		key := elems[i]
		if key.kind != KindString {
			return Value{}, fmt.Errorf("%w: element %d is a %s, keys must be strings", ErrInvalidLiteral, i, key.kind)
		}
		if i+1 >= len(elems) {
			return Value{}, fmt.Errorf("%w: missing value for key %q", ErrInvalidLiteral, key.s)
		}
		members = append(members, Member{Key: key.s, Value: elems[i+1]})
	}
	return Object(members...), nil
}

// MustLiteral is like FromLiteral but panics on error.
func MustLiteral(elems ...Value) Value {
	v, err := FromLiteral(elems...)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind reports the discriminant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: cannot view %s as %s", ErrTypeMismatch, v.kind, want)
}

// AsBool returns the payload of a Boolean value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBoolean {
		return false, v.mismatch(KindBoolean)
	}
	return v.b, nil
}

// AsInt returns the payload of an Integer value. Floating values are a mismatch.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInteger {
		return 0, v.mismatch(KindInteger)
	}
	return v.i, nil
}

// AsFloat returns the payload of a Floating value. Integer values are a mismatch.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloating {
		return 0, v.mismatch(KindFloating)
	}
	return v.f, nil
}

// AsString returns the payload of a String value.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

// AsArray returns the elements of an Array value. The slice is shared with v.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.mismatch(KindArray)
	}
	return v.arr, nil
}

// AsObject returns the members of an Object value. The slice is shared with v.
func (v Value) AsObject() ([]Member, error) {
	if v.kind != KindObject {
		return nil, v.mismatch(KindObject)
	}
	return v.obj, nil
}

// Len returns the number of elements, members or bytes for Array, Object and
// String values, and 0 for everything else.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Set replaces v with nv.
func (v *Value) Set(nv Value) { *v = nv }

// CoerceToObjectAndIndex returns the value stored under key, creating it as Null
// when missing.
//
// If v is not an Object it is reset to an empty Object first and its previous
// payload is discarded. The returned pointer stays valid until the next member
// is appended to v.
func (v *Value) CoerceToObjectAndIndex(key string) *Value {
	if v.kind != KindObject {
		*v = Object()
	}
	for i := range v.obj {
		if v.obj[i].Key == key {
			return &v.obj[i].Value
		}
	}
	v.obj = append(v.obj, Member{Key: key})
	return &v.obj[len(v.obj)-1].Value
}

// Get returns the first member value stored under key.
func (v Value) Get(key string) (Value, error) {
	if v.kind != KindObject {
		return Value{}, fmt.Errorf("%w: got %s", ErrNotAnObject, v.kind)
	}
	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

// Index returns the element at position i of an Array.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindArray {
		return Value{}, fmt.Errorf("%w: got %s", ErrNotAnArray, v.kind)
	}
	if i < 0 || i >= len(v.arr) {
		return Value{}, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, len(v.arr))
	}
	return v.arr[i], nil
}

// Equal reports whether a and b are structurally equal. Values of different
// kinds are never equal, and Objects compare their members in order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.b == b.b
	case KindInteger:
		return a.i == b.i
	case KindFloating:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for i := range a.obj {
			if a.obj[i].Key != b.obj[i].Key || !Equal(a.obj[i].Value, b.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal reports whether v and o are structurally equal.
func (v Value) Equal(o Value) bool { return Equal(v, o) }

// String renders v for display: the raw text of a String value, Stringify
// for everything else.
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}
	return Stringify(v)
}
