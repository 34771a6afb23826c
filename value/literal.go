package value

import (
	"fmt"
	"math"
)

// L is a flat object literal of alternating keys and values, as emitted by the
// transpiler:
//
//	value.L{"p", value.L{"children", value.A{"Hello,", name}}}
//
// Convert it with From or MustFrom.
type L []any

// A is an array literal. Convert it with From or MustFrom.
type A []any

// From converts a Go value into a Value.
//
// Supported inputs are nil, bool, the integer and float kinds, string, Value,
// *Value, []Value, []Member, A and []any (Array) and L (Object, built with
// FromLiteral). Elements of A and L are converted recursively. Unsigned values
// above math.MaxInt64 fail with ErrIntegerOverflow.
func From(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Value:
		if t == nil {
			return Null(), nil
		}
		return *t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUnsigned(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUnsigned(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []Value:
		return Array(t...), nil
	case []Member:
		return Object(t...), nil
	case A:
		return fromSlice(t)
	case []any:
		return fromSlice(t)
	case L:
		elems, err := convertAll(t)
		if err != nil {
			return Value{}, err
		}
		return FromLiteral(elems...)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
}

// MustFrom is like From but panics on error.
func MustFrom(x any) Value {
	v, err := From(x)
	if err != nil {
		panic(err)
	}
	return v
}

func fromUnsigned(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d", ErrIntegerOverflow, u)
	}
	return Int(int64(u)), nil
}

func fromSlice(items []any) (Value, error) {
	elems, err := convertAll(items)
	if err != nil {
		return Value{}, err
	}
	return Array(elems...), nil
}

func convertAll(items []any) ([]Value, error) {
	elems := make([]Value, len(items))
	for i, item := range items {
		v, err := From(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		elems[i] = v
	}
	return elems, nil
}
