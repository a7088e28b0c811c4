package gura

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// indentUnit is the canonical indentation block: four spaces.
const indentUnit = "    "

// dumpEscapes maps grapheme clusters that need escaping inside a dumped
// basic string to their escape sequences.
var dumpEscapes = map[string]string{
	"\b": `\b`,
	"\f": `\f`,
	"\n": `\n`,
	"\r": `\r`,
	"\t": `\t`,
	`"`:  `\"`,
	`\`:  `\\`,
	"$":  `\$`,
}

// Dump serializes a value tree back to document text. Parsing the result
// yields a tree equal to the original (comments, variables and imports do
// not survive a parse, so they never reappear).
func Dump(v Value) string {
	return strings.TrimSpace(dumpValue(v))
}

func dumpValue(v Value) string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case BigInt:
		return v.BigInt.String()
	case Float:
		return formatFloat(v.Float)
	case String:
		return `"` + escapeString(v.Str) + `"`
	case Array:
		return dumpArray(v.List)
	case Object:
		return dumpObject(v.Obj)
	}
	return ""
}

func dumpObject(obj *Obj) string {
	if obj.Len() == 0 {
		return "empty"
	}

	var b strings.Builder
	for _, k := range obj.Keys() {
		child, _ := obj.Get(k)
		b.WriteString(k)
		b.WriteString(":")
		if child.Kind == Object && child.Obj.Len() > 0 {
			b.WriteString("\n")
			body := strings.TrimRight(dumpValue(child), " \t\n")
			for _, line := range strings.Split(body, "\n") {
				b.WriteString(indentUnit)
				b.WriteString(line)
				b.WriteString("\n")
			}
		} else {
			b.WriteString(" ")
			b.WriteString(dumpValue(child))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func dumpArray(elems []Value) string {
	// Arrays stay on one line unless an element is a non-empty object,
	// which needs its own indented block.
	multiline := false
	for _, e := range elems {
		if e.Kind == Object && e.Obj.Len() > 0 {
			multiline = true
			break
		}
	}

	if !multiline {
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = dumpValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}

	var b strings.Builder
	b.WriteString("[")
	for i, e := range elems {
		b.WriteString("\n")
		body := strings.TrimRight(dumpValue(e), " \t\n")
		lines := strings.Split(body, "\n")
		for j, line := range lines {
			b.WriteString(indentUnit)
			b.WriteString(line)
			if j < len(lines)-1 {
				b.WriteString("\n")
			}
		}
		if i < len(elems)-1 {
			b.WriteString(",")
		}
	}
	b.WriteString("\n]")
	return b.String()
}

// escapeString escapes a string for a dumped basic string, walking
// grapheme clusters so multi-byte text passes through untouched.
func escapeString(s string) string {
	var b strings.Builder
	for _, cl := range graphemes(s) {
		if rep, ok := dumpEscapes[cl]; ok {
			b.WriteString(rep)
		} else {
			b.WriteString(cl)
		}
	}
	return b.String()
}

// formatFloat renders a float so it reparses as a float: integral values
// get a trailing ".0" since a bare integer literal would come back as an
// integer.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Marshal returns the document encoding of v.
//
// It works like json.Marshal: structs and string-keyed maps become
// objects, slices and arrays become lists, nil pointers become null.
// Struct fields can be renamed or skipped with `gura` tags:
//
//	Field int `gura:"my_field"`
//	Field int `gura:"-"`
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// An Encoder writes document text to an output stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the document encoding of v to the stream, followed by a
// newline. See the documentation for Marshal for details.
func (enc *Encoder) Encode(v any) error {
	val, err := toValue(reflect.ValueOf(v))
	if err != nil {
		return err
	}
	_, err = io.WriteString(enc.w, Dump(val)+"\n")
	return err
}

var (
	valueType  = reflect.TypeOf(Value{})
	bigIntType = reflect.TypeOf(big.Int{})
)

// toValue converts an arbitrary Go value into a value tree.
func toValue(v reflect.Value) (Value, error) {
	v = indirect(v)
	if !v.IsValid() {
		return NullValue(), nil
	}

	// Already-built trees pass through unchanged.
	switch v.Type() {
	case valueType:
		return v.Interface().(Value), nil
	case bigIntType:
		bi := v.Interface().(big.Int)
		return BigIntValue(&bi), nil
	}

	switch v.Kind() {
	case reflect.Map:
		return mapToValue(v)
	case reflect.Struct:
		return structToValue(v)
	case reflect.Slice, reflect.Array:
		elems := make([]Value, v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, err := toValue(v.Index(i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return ArrayValue(elems...), nil
	case reflect.String:
		return StringValue(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return BigIntValue(new(big.Int).SetUint64(u)), nil
		}
		return IntValue(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return FloatValue(v.Float()), nil
	case reflect.Bool:
		return BoolValue(v.Bool()), nil
	}

	return Value{}, fmt.Errorf("gura: unsupported type: %s", v.Type())
}

func mapToValue(v reflect.Value) (Value, error) {
	if v.Type().Key().Kind() != reflect.String {
		return Value{}, fmt.Errorf("gura: map key type must be a string, not %s", v.Type().Key())
	}

	// Sort map keys so the output is deterministic.
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})

	obj := NewObj()
	for _, key := range keys {
		child, err := toValue(v.MapIndex(key))
		if err != nil {
			return Value{}, err
		}
		obj.Set(key.String(), child)
	}
	return ObjectValue(obj), nil
}

func structToValue(v reflect.Value) (Value, error) {
	obj := NewObj()
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}
		child, err := toValue(v.Field(i))
		if err != nil {
			return Value{}, err
		}
		obj.Set(name, child)
	}
	return ObjectValue(obj), nil
}

// fieldName resolves a struct field's document key from its `gura` tag.
func fieldName(field reflect.StructField) (name string, skip bool) {
	tag := field.Tag.Get("gura")
	if tag == "-" {
		return "", true
	}
	if tag != "" {
		return tag, false
	}
	return field.Name, false
}

// indirect walks down pointers and interfaces to the concrete value. A
// nil pointer yields an invalid value, which encodes as null.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
