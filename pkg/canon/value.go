// Package canon implements the deterministic canonical JSON encoding
// shared by the signature verifier, the capability issuer, and the
// audit log's hash chain. Two callers that canonicalize the same
// logical document must produce byte-identical output, independent of
// map key iteration order or numeric formatting.
package canon

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a closed sum type over the JSON data model. Constructing one
// directly (rather than through the helpers below) risks an
// inconsistent Kind/payload pairing, so prefer Null, Bool, Int, Float,
// Str, Arr, and Obj.
type Value struct {
	kind   Kind
	bool_  bool
	num    Number
	str    string
	arr    []Value
	obj    []Member
}

// Member is a single key/value pair of an Object, in insertion order.
// Encode re-sorts members by key; order here does not matter.
type Member struct {
	Key   string
	Value Value
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, bool_: b} }
func Str(s string) Value         { return Value{kind: KindString, str: s} }
func Arr(items ...Value) Value   { return Value{kind: KindArray, arr: items} }

// Obj builds an Object value from key/value members.
func Obj(members ...Member) Value {
	return Value{kind: KindObject, obj: members}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() bool      { return v.bool_ }
func (v Value) Str() string     { return v.str }
func (v Value) Num() Number     { return v.num }
func (v Value) Items() []Value  { return v.arr }
func (v Value) Members() []Member { return v.obj }

// String renders a debug representation; it is not the canonical
// encoding. Use Encode for that.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.bool_)
	case KindNumber:
		return v.num.String()
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.arr))
	case KindObject:
		return fmt.Sprintf("object[%d]", len(v.obj))
	default:
		return "invalid"
	}
}
