package gura

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
)

// Decoder reads a document from an input stream and decodes it into Go
// values.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the whole document from the input stream and stores the
// result in the pointer v.
func (dec *Decoder) Decode(v any) error {
	data, err := io.ReadAll(dec.r)
	if err != nil {
		return err
	}
	return Unmarshal(data, v)
}

// Unmarshal parses document data and stores the result in the value
// pointed to by v. If v is nil or not a pointer, it returns an error.
//
// The document maps onto Go values as follows:
//   - strings become string
//   - integers become int64 (or *big.Int beyond 64 bits)
//   - floats become float64, including nan and ±inf
//   - true/false become bool
//   - null becomes nil (the zero value of the destination)
//   - lists become []any or any slice type
//   - objects become map[string]any, a string-keyed map, or a struct
//
// Struct fields can be renamed or skipped with `gura` tags, the same tags
// Marshal honors. A destination of type Value receives the parsed tree
// unchanged, preserving key order.
func Unmarshal(data []byte, v any) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	return assign(v, parsed)
}

// assign validates the destination pointer and dispatches to the
// reflection walk.
func assign(dst any, src Value) error {
	if dst == nil {
		return errors.New("cannot unmarshal into a nil value")
	}
	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Pointer {
		return errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return errors.New("destination pointer is nil")
	}
	return setValueReflect(val.Elem(), src)
}

// toGoValue converts a value tree into the generic any form used for
// interface destinations. Object key order is lost in the map form.
func toGoValue(v Value) any {
	switch v.Kind {
	case Null:
		return nil
	case Bool:
		return v.Bool
	case Int:
		return v.Int
	case BigInt:
		return v.BigInt
	case Float:
		return v.Float
	case String:
		return v.Str
	case Array:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = toGoValue(e)
		}
		return out
	case Object:
		out := make(map[string]any, v.Obj.Len())
		for _, k := range v.Obj.Keys() {
			child, _ := v.Obj.Get(k)
			out[k] = toGoValue(child)
		}
		return out
	}
	return nil
}

// setValueReflect recursively assigns src to dst using reflection.
func setValueReflect(dst reflect.Value, src Value) error {
	// A Value destination takes the tree as-is.
	if dst.Type() == valueType {
		dst.Set(reflect.ValueOf(src))
		return nil
	}

	if src.Kind == Null {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		dst.Set(reflect.ValueOf(toGoValue(src)))
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Map:
		return setMap(dst, src)
	case reflect.Pointer:
		return setPtr(dst, src)
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		return setBool(dst, src)
	default:
		return fmt.Errorf("cannot unmarshal %s into %s", src.Kind, dst.Type())
	}
}

// setStruct unmarshals an object into a struct, honoring `gura` tags.
func setStruct(dst reflect.Value, src Value) error {
	if dst.Type() == bigIntType {
		return setBigInt(dst, src)
	}
	if src.Kind != Object {
		return fmt.Errorf("cannot unmarshal %s into struct", src.Kind)
	}

	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)
		if !fieldValue.CanSet() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}
		if child, ok := src.Obj.Get(name); ok {
			if err := setValueReflect(fieldValue, child); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

func setBigInt(dst reflect.Value, src Value) error {
	switch src.Kind {
	case Int:
		dst.Set(reflect.ValueOf(*big.NewInt(src.Int)))
		return nil
	case BigInt:
		dst.Set(reflect.ValueOf(*new(big.Int).Set(src.BigInt)))
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into big.Int", src.Kind)
}

// setSlice unmarshals an array into a slice.
func setSlice(dst reflect.Value, src Value) error {
	if src.Kind != Array {
		return fmt.Errorf("cannot unmarshal %s into slice", src.Kind)
	}

	newSlice := reflect.MakeSlice(dst.Type(), len(src.List), len(src.List))
	for i, elem := range src.List {
		if err := setValueReflect(newSlice.Index(i), elem); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}
	dst.Set(newSlice)
	return nil
}

// setMap unmarshals an object into a string-keyed map.
func setMap(dst reflect.Value, src Value) error {
	if src.Kind != Object {
		return fmt.Errorf("cannot unmarshal %s into map", src.Kind)
	}

	mapType := dst.Type()
	if mapType.Key().Kind() != reflect.String {
		return errors.New("maps with non-string keys are not supported")
	}

	newMap := reflect.MakeMap(mapType)
	elemType := mapType.Elem()
	for _, key := range src.Obj.Keys() {
		child, _ := src.Obj.Get(key)
		elemValue := reflect.New(elemType).Elem()
		if err := setValueReflect(elemValue, child); err != nil {
			return fmt.Errorf("error setting map value for key %s: %w", key, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(key), elemValue)
	}
	dst.Set(newMap)
	return nil
}

// setPtr allocates and unmarshals into a pointer destination.
func setPtr(dst reflect.Value, src Value) error {
	newPtr := reflect.New(dst.Type().Elem())
	if err := setValueReflect(newPtr.Elem(), src); err != nil {
		return err
	}
	dst.Set(newPtr)
	return nil
}

func setString(dst reflect.Value, src Value) error {
	if src.Kind != String {
		return fmt.Errorf("cannot unmarshal %s into string", src.Kind)
	}
	dst.SetString(src.Str)
	return nil
}

func setInt(dst reflect.Value, src Value) error {
	switch src.Kind {
	case Int:
		if dst.OverflowInt(src.Int) {
			return fmt.Errorf("value %d overflows %s", src.Int, dst.Type())
		}
		dst.SetInt(src.Int)
		return nil
	case BigInt:
		if !src.BigInt.IsInt64() {
			return fmt.Errorf("value %s overflows %s", src.BigInt, dst.Type())
		}
		return setInt(dst, IntValue(src.BigInt.Int64()))
	case Float:
		// Floats only convert when they carry a whole number.
		if src.Float != math.Trunc(src.Float) {
			return fmt.Errorf("cannot unmarshal float %g into integer type", src.Float)
		}
		return setInt(dst, IntValue(int64(src.Float)))
	}
	return fmt.Errorf("cannot unmarshal %s into integer", src.Kind)
}

func setUint(dst reflect.Value, src Value) error {
	switch src.Kind {
	case Int:
		if src.Int < 0 {
			return fmt.Errorf("cannot unmarshal negative value %d into unsigned integer", src.Int)
		}
		u := uint64(src.Int)
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %d overflows %s", src.Int, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case BigInt:
		if !src.BigInt.IsUint64() {
			return fmt.Errorf("value %s overflows %s", src.BigInt, dst.Type())
		}
		u := src.BigInt.Uint64()
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %s overflows %s", src.BigInt, dst.Type())
		}
		dst.SetUint(u)
		return nil
	case Float:
		if src.Float < 0 || src.Float != math.Trunc(src.Float) {
			return fmt.Errorf("cannot unmarshal float %g into unsigned integer", src.Float)
		}
		u := uint64(src.Float)
		if dst.OverflowUint(u) {
			return fmt.Errorf("value %g overflows %s", src.Float, dst.Type())
		}
		dst.SetUint(u)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into unsigned integer", src.Kind)
}

func setFloat(dst reflect.Value, src Value) error {
	switch src.Kind {
	case Int:
		dst.SetFloat(float64(src.Int))
		return nil
	case Float:
		if dst.OverflowFloat(src.Float) {
			return fmt.Errorf("value %g overflows %s", src.Float, dst.Type())
		}
		dst.SetFloat(src.Float)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float", src.Kind)
}

func setBool(dst reflect.Value, src Value) error {
	if src.Kind != Bool {
		return fmt.Errorf("cannot unmarshal %s into bool", src.Kind)
	}
	dst.SetBool(src.Bool)
	return nil
}
