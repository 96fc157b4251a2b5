package ast

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ValueKind identifies the scalar shape of a bind parameter.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindBytes
	KindJSON
	KindUUID
	KindTimestamp
	KindEnum
	KindArray
)

var valueKindNames = [...]string{
	KindNull:      "null",
	KindText:      "text",
	KindInt:       "int",
	KindFloat:     "float",
	KindBool:      "bool",
	KindBytes:     "bytes",
	KindJSON:      "json",
	KindUUID:      "uuid",
	KindTimestamp: "timestamp",
	KindEnum:      "enum",
	KindArray:     "array",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", k)
}

// Scalar is the set of host types that convert to a Value. Passing any other
// type to Val or Array is a compile error.
type Scalar interface {
	string | int | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 |
		float32 | float64 | bool | []byte | json.RawMessage | uuid.UUID | time.Time
}

// EnumType names a database enum type, optionally schema qualified.
type EnumType struct {
	Schema string
	Name   string
}

// Value is a bind parameter. The zero Value is SQL NULL.
//
// Values are immutable: constructors copy their input and no method mutates
// the receiver.
type Value struct {
	kind  ValueKind
	elem  ValueKind
	text  string
	num   int64
	float float64
	flag  bool
	raw   []byte
	id    uuid.UUID
	ts    time.Time
	items []Value
	enum  *EnumType
}

// Val converts a scalar into a Value.
func Val[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case string:
		return Value{kind: KindText, text: x}
	case int:
		return Value{kind: KindInt, num: int64(x)}
	case int8:
		return Value{kind: KindInt, num: int64(x)}
	case int16:
		return Value{kind: KindInt, num: int64(x)}
	case int32:
		return Value{kind: KindInt, num: int64(x)}
	case int64:
		return Value{kind: KindInt, num: x}
	case uint8:
		return Value{kind: KindInt, num: int64(x)}
	case uint16:
		return Value{kind: KindInt, num: int64(x)}
	case uint32:
		return Value{kind: KindInt, num: int64(x)}
	case float32:
		return Value{kind: KindFloat, float: float64(x)}
	case float64:
		return Value{kind: KindFloat, float: x}
	case bool:
		return Value{kind: KindBool, flag: x}
	case []byte:
		return Value{kind: KindBytes, raw: clone(x)}
	case json.RawMessage:
		return JSON(x)
	case uuid.UUID:
		return Value{kind: KindUUID, id: x}
	case time.Time:
		return Value{kind: KindTimestamp, ts: x}
	}
	panic("unreachable")
}

// Null returns an untyped SQL NULL.
func Null() Value { return Value{} }

// JSON wraps an encoded JSON document. A nil document is the JSON null
// literal, not SQL NULL.
func JSON(doc json.RawMessage) Value {
	if doc == nil {
		doc = json.RawMessage("null")
	}
	return Value{kind: KindJSON, raw: clone(doc)}
}

// Enum returns a label of a database enum. The renderer casts the
// placeholder to the enum type.
func Enum(typ EnumType, label string) Value {
	return Value{kind: KindEnum, text: label, enum: &typ}
}

// EnumArray returns an array of labels of one enum type.
func EnumArray(typ EnumType, labels ...string) Value {
	items := make([]Value, len(labels))
	for i, l := range labels {
		items[i] = Enum(typ, l)
	}
	return Value{kind: KindArray, elem: KindEnum, items: items, enum: &typ}
}

// Array returns a homogeneous array value.
func Array[T Scalar](vs ...T) Value {
	var zero T
	items := make([]Value, len(vs))
	for i, v := range vs {
		items[i] = Val(v)
	}
	return Value{kind: KindArray, elem: Val(zero).kind, items: items}
}

// ValueOf converts a dynamically typed host value, such as one decoded from
// a JSON or YAML document. Unsupported types return ErrUnsupportedValue.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return Val(x), nil
	case int:
		return Val(x), nil
	case int8:
		return Val(x), nil
	case int16:
		return Val(x), nil
	case int32:
		return Val(x), nil
	case int64:
		return Val(x), nil
	case uint8:
		return Val(x), nil
	case uint16:
		return Val(x), nil
	case uint32:
		return Val(x), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, x)
		}
		return Val(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, x)
		}
		return Val(int64(x)), nil
	case float32:
		return Val(x), nil
	case float64:
		return Val(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Val(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: number %q", ErrUnsupportedValue, x)
		}
		return Val(f), nil
	case bool:
		return Val(x), nil
	case []byte:
		return Val(x), nil
	case json.RawMessage:
		return JSON(x), nil
	case uuid.UUID:
		return Val(x), nil
	case time.Time:
		return Val(x), nil
	case []string:
		return Array(x...), nil
	case []int64:
		return Array(x...), nil
	case []int:
		return Array(x...), nil
	case []float64:
		return Array(x...), nil
	case []bool:
		return Array(x...), nil
	case []any:
		return arrayOf(x)
	case map[string]any:
		doc, err := json.Marshal(x)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return JSON(doc), nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func arrayOf(xs []any) (Value, error) {
	out := Value{kind: KindArray, elem: KindText, items: make([]Value, len(xs))}
	for i, x := range xs {
		v, err := ValueOf(x)
		if err != nil {
			return Value{}, err
		}
		if v.kind == KindNull || v.kind == KindArray || v.kind == KindEnum {
			return Value{}, fmt.Errorf("%w: array element %d is %s", ErrUnsupportedValue, i, v.kind)
		}
		if i == 0 {
			out.elem = v.kind
		} else if v.kind != out.elem {
			return Value{}, fmt.Errorf("%w: mixed array of %s and %s", ErrUnsupportedValue, out.elem, v.kind)
		}
		out.items[i] = v
	}
	return out, nil
}

// Kind reports the scalar shape of v.
func (v Value) Kind() ValueKind { return v.kind }

// ElemKind reports the element kind of an array value, and KindNull for
// anything else.
func (v Value) ElemKind() ValueKind {
	if v.kind != KindArray {
		return KindNull
	}
	return v.elem
}

// IsNull reports whether v is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of elements of an array value.
func (v Value) Len() int { return len(v.items) }

// Enum returns the enum type of an enum label or enum array.
func (v Value) Enum() (EnumType, bool) {
	if v.enum == nil {
		return EnumType{}, false
	}
	return *v.enum, true
}

// Any returns the value in the form database/sql drivers accept. Arrays are
// returned as typed slices; callers passing them to a driver that does not
// understand slices wrap them first (pgexec uses pq.Array).
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindText, KindEnum:
		return v.text
	case KindInt:
		return v.num
	case KindFloat:
		return v.float
	case KindBool:
		return v.flag
	case KindBytes:
		return clone(v.raw)
	case KindJSON:
		return string(v.raw)
	case KindUUID:
		return v.id.String()
	case KindTimestamp:
		return v.ts
	case KindArray:
		return v.arrayAny()
	}
	return nil
}

func (v Value) arrayAny() any {
	switch v.elem {
	case KindInt:
		out := make([]int64, len(v.items))
		for i, it := range v.items {
			out[i] = it.num
		}
		return out
	case KindFloat:
		out := make([]float64, len(v.items))
		for i, it := range v.items {
			out[i] = it.float
		}
		return out
	case KindBool:
		out := make([]bool, len(v.items))
		for i, it := range v.items {
			out[i] = it.flag
		}
		return out
	case KindBytes:
		out := make([][]byte, len(v.items))
		for i, it := range v.items {
			out[i] = clone(it.raw)
		}
		return out
	case KindTimestamp:
		out := make([]string, len(v.items))
		for i, it := range v.items {
			out[i] = it.ts.Format(time.RFC3339Nano)
		}
		return out
	}
	out := make([]string, len(v.items))
	for i, it := range v.items {
		out[i] = it.Any().(string)
	}
	return out
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindTimestamp:
		return v.ts.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v.Any())
}

// ToExpression makes a value usable wherever an expression is expected. It
// renders as a placeholder.
func (v Value) ToExpression() Expression {
	return Expression{Kind: Param{Value: v}}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
