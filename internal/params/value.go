package params

import (
	"fmt"
	"strconv"
)

// Kind tags the type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat64
	KindInt
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a tagged scalar. The zero Value has KindInvalid.
type Value struct {
	kind Kind
	num  float64
	i    int64
	b    bool
	s    string
}

func Float64(v float64) Value { return Value{kind: KindFloat64, num: v} }
func Int(v int64) Value       { return Value{kind: KindInt, i: v} }
func Bool(v bool) Value       { return Value{kind: KindBool, b: v} }
func String(v string) Value   { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsFloat64() (float64, error) {
	if v.kind != KindFloat64 {
		return 0, v.mismatch(KindFloat64)
	}
	return v.num, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, v.mismatch(KindInt)
	}
	return v.i, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.b, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.s, nil
}

func (v Value) String() string {
	switch v.kind {
	case KindFloat64:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	default:
		return "<invalid>"
	}
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.kind, want)
}
