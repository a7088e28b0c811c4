package gura

import (
	"math"
	"math/big"
)

// Kind identifies the concrete type held by a Value.
type Kind int

const (
	// Null is the `null` keyword.
	Null Kind = iota
	// Bool is a `true` or `false` value.
	Bool
	// Int is a signed 64-bit integer.
	Int
	// BigInt is an integer too large for 64 bits.
	BigInt
	// Float is a 64-bit float, including nan and ±inf.
	Float
	// String is a text value.
	String
	// Array is an ordered sequence of values.
	Array
	// Object is an ordered string-keyed mapping.
	Object
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "integer"
	case BigInt:
		return "big integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a single node of a parsed gura document: a scalar, an array, or
// an object. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	BigInt *big.Int
	Float  float64
	Str    string
	List   []Value
	Obj    *Obj
}

// NullValue returns a null Value.
func NullValue() Value { return Value{Kind: Null} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: Bool, Bool: b} }

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{Kind: Int, Int: i} }

// BigIntValue returns a big-integer Value.
func BigIntValue(i *big.Int) Value { return Value{Kind: BigInt, BigInt: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// ArrayValue returns an array Value holding the given elements.
func ArrayValue(elems ...Value) Value { return Value{Kind: Array, List: elems} }

// ObjectValue returns an object Value wrapping obj. A nil obj yields an
// empty object.
func ObjectValue(obj *Obj) Value {
	if obj == nil {
		obj = NewObj()
	}
	return Value{Kind: Object, Obj: obj}
}

// String renders the value as gura text.
func (v Value) String() string { return Dump(v) }

// Equal reports whether two values are deeply equal. Unlike the float
// equality operator, NaN compares equal to NaN; Int and BigInt values
// compare numerically regardless of representation.
func (v Value) Equal(other Value) bool {
	switch {
	case v.Kind == Int && other.Kind == BigInt:
		return other.BigInt.IsInt64() && other.BigInt.Int64() == v.Int
	case v.Kind == BigInt && other.Kind == Int:
		return v.BigInt.IsInt64() && v.BigInt.Int64() == other.Int
	}

	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.Bool == other.Bool
	case Int:
		return v.Int == other.Int
	case BigInt:
		return v.BigInt.Cmp(other.BigInt) == 0
	case Float:
		if math.IsNaN(v.Float) && math.IsNaN(other.Float) {
			return true
		}
		return v.Float == other.Float
	case String:
		return v.Str == other.Str
	case Array:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case Object:
		return v.Obj.Equal(other.Obj)
	default:
		return false
	}
}

// Obj is a string-keyed mapping that preserves insertion order, matching
// the order keys appear in the document.
type Obj struct {
	keys []string
	vals map[string]Value
}

// NewObj returns an empty object.
func NewObj() *Obj {
	return &Obj{vals: make(map[string]Value)}
}

// Len returns the number of keys.
func (o *Obj) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Has reports whether key is present.
func (o *Obj) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.vals[key]
	return ok
}

// Get returns the value stored under key.
func (o *Obj) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the iteration
// order; an existing key keeps its position.
func (o *Obj) Set(key string, value Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = value
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (o *Obj) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Equal reports whether both objects hold equal values under the same key
// set. Insertion order does not participate in equality.
func (o *Obj) Equal(other *Obj) bool {
	if o.Len() != other.Len() {
		return false
	}
	for _, k := range o.Keys() {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}
		v, _ := o.Get(k)
		if !v.Equal(ov) {
			return false
		}
	}
	return true
}
