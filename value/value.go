// Package value defines the runtime values produced by formulas and the coercion
// rules applied when operators combine them.
package value

import (
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Value is any value a formula can produce: nil (null), Undefined, bool, float64,
// *big.Int, string, time.Time, an error value, or an object (slice, map, struct).
type Value = any

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of the `undefined` reserved word and of an empty grouping.
var Undefined Value = undefined{}

// Kind classifies a Value for the coercion table.
type Kind int

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindNumber
	KindBigInt
	KindString
	KindTime
	KindError
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindTime:
		return "date"
	case KindError:
		return "error"
	default:
		return "object"
	}
}

// KindOf reports the kind of a normalized value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case undefined:
		return KindUndefined
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case *big.Int:
		return KindBigInt
	case string:
		return KindString
	case time.Time:
		return KindTime
	case error:
		return KindError
	default:
		return KindObject
	}
}

// IsNullish reports whether v is null or undefined.
func IsNullish(v Value) bool {
	k := KindOf(v)
	return k == KindNull || k == KindUndefined
}

// Normalize converts Go values coming from records or functions into the formula
// value model. Integers become float64, decimals become float64, pointers to basic
// types are dereferenced. Slices, maps and structs are kept as objects.
func Normalize(v any) Value {
	switch val := v.(type) {
	case nil, undefined, bool, float64, string, time.Time, *big.Int:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case big.Int:
		return new(big.Int).Set(&val)
	case decimal.Decimal:
		return val.InexactFloat64()
	case *decimal.Decimal:
		if val == nil {
			return nil
		}

		return val.InexactFloat64()
	case []byte:
		return string(val)
	case *time.Time:
		if val == nil {
			return nil
		}

		return *val
	case error:
		return val
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}

		switch rv.Elem().Kind() {
		case reflect.Bool, reflect.String, reflect.Float32, reflect.Float64,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Normalize(rv.Elem().Interface())
		}
	}

	return v
}

// sameObject compares objects by reference where Go allows it.
func sameObject(a, b Value) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != rb.Kind() {
		return false
	}

	switch ra.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan:
		return ra.Pointer() == rb.Pointer() && (ra.Kind() != reflect.Slice || ra.Len() == rb.Len())
	default:
		return comparableEqual(a, b)
	}
}

// comparableEqual is a == b for values whose dynamic type is comparable. A struct
// holding a slice in an interface field has a comparable type but would panic.
func comparableEqual(a, b Value) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return !ra.IsValid() && !rb.IsValid()
	}

	if ra.Type() != rb.Type() || !ra.Comparable() || !rb.Comparable() {
		return false
	}

	return a == b
}
