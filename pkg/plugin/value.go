package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is the dynamic result of a command: null, string, number, bool,
// list of values or string-keyed map of values. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps f.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int wraps i as a number.
func Int(i int) Value { return Number(float64(i)) }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List wraps items. The slice is copied.
func List(items ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), items...)}
}

// Strings is a convenience for a list of string values.
func Strings(items []string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return Value{kind: KindList, list: list}
}

// Map wraps fields. The map is copied.
func Map(fields map[string]Value) Value {
	m := make(map[string]Value, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Len returns the number of list items or map fields.
func (v Value) Len() int { return len(v.list) + len(v.m) }

// Items returns a copy of the list payload.
func (v Value) Items() []Value { return append([]Value(nil), v.list...) }

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean payload.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Field looks up key in a map value.
func (v Value) Field(key string) (Value, bool) {
	f, ok := v.m[key]
	return f, ok
}

// Keys returns the sorted keys of a map value.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Interface converts the value to plain Go types: nil, string, float64,
// bool, []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality. NaN numbers compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, item := range v.m {
			other, ok := o.m[k]
			if !ok || !item.Equal(other) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the value for terminal output: strings verbatim, numbers
// in shortest form, everything else as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(raw)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// MarshalJSON encodes non-finite numbers as the strings "NaN",
// "Infinity" and "-Infinity" since JSON has no literal for them.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.jsonable())
}

func (v Value) jsonable() any {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return formatNumber(v.num)
		}
		return v.num
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.jsonable()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.jsonable()
		}
		return out
	default:
		return v.Interface()
	}
}

// UnmarshalJSON decodes any JSON document into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts plain Go data into a Value. Integer, float, string,
// bool, slice and string-keyed map kinds are accepted.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case int:
		return Int(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("decode number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []string:
		return Strings(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = val
		}
		return Value{kind: KindList, list: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = val
		}
		return Value{kind: KindMap, m: fields}, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			val, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}
			items[i] = val
		}
		return Value{kind: KindList, list: items}, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, err
			}
			fields[iter.Key().String()] = val
		}
		return Value{kind: KindMap, m: fields}, nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", x)
}
