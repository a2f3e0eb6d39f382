package toml

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Unmarshal parses TOML data and stores the result in the value pointed to by v
func Unmarshal(data []byte, v any) error {
	doc, err := NewParser(data).Parse()
	if err != nil {
		return err
	}
	return Decode(doc, v)
}

// Decode maps a parsed document onto v using reflection
// Struct fields are matched by `toml` tag, falling back to the field name.
// time.Duration accepts a duration string ("1.5s") or integer milliseconds
func Decode(data any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	return decodeValue(data, val.Elem())
}

func decodeValue(data any, val reflect.Value) error {
	if data == nil {
		return nil
	}

	if val.Type() == durationType {
		return decodeDuration(data, val)
	}

	switch val.Kind() {
	case reflect.Ptr:
		elem := reflect.New(val.Type().Elem())
		if err := decodeValue(data, elem.Elem()); err != nil {
			return err
		}
		val.Set(elem)

	case reflect.Struct:
		table, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected table for struct, got %T", data)
		}
		return decodeStruct(table, val)

	case reflect.Slice:
		items, err := asList(data)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(val.Type(), len(items), len(items))
		for i, item := range items {
			if err := decodeValue(item, out.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		val.Set(out)

	case reflect.Array:
		items, err := asList(data)
		if err != nil {
			return err
		}
		if len(items) != val.Len() {
			return fmt.Errorf("expected %d elements, got %d", val.Len(), len(items))
		}
		for i, item := range items {
			if err := decodeValue(item, val.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("only map[string]T is supported")
		}
		table, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected table, got %T", data)
		}
		out := reflect.MakeMapWithSize(val.Type(), len(table))
		for k, item := range table {
			elem := reflect.New(val.Type().Elem()).Elem()
			if err := decodeValue(item, elem); err != nil {
				return fmt.Errorf("map key %s: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(val.Type().Key()), elem)
		}
		val.Set(out)

	case reflect.Interface:
		val.Set(reflect.ValueOf(data))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := data.(int64)
		if !ok {
			return fmt.Errorf("cannot convert %T to int", data)
		}
		if val.OverflowInt(n) {
			return fmt.Errorf("integer %d overflows %s", n, val.Type())
		}
		val.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := data.(int64)
		if !ok {
			return fmt.Errorf("cannot convert %T to uint", data)
		}
		if n < 0 || val.OverflowUint(uint64(n)) {
			return fmt.Errorf("integer %d overflows %s", n, val.Type())
		}
		val.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		switch f := data.(type) {
		case float64:
			val.SetFloat(f)
		case int64:
			val.SetFloat(float64(f))
		default:
			return fmt.Errorf("cannot convert %T to float", data)
		}

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("cannot convert %T to string", data)
		}
		val.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return fmt.Errorf("cannot convert %T to bool", data)
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("unsupported kind %s", val.Kind())
	}

	return nil
}

func decodeDuration(data any, val reflect.Value) error {
	switch d := data.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return err
		}
		val.SetInt(int64(parsed))
	case int64:
		if d > math.MaxInt64/int64(time.Millisecond) || d < math.MinInt64/int64(time.Millisecond) {
			return fmt.Errorf("duration %dms overflows", d)
		}
		val.SetInt(d * int64(time.Millisecond))
	default:
		return fmt.Errorf("cannot convert %T to duration", data)
	}
	return nil
}

// asList normalizes inline arrays and arrays of tables
func asList(data any) ([]any, error) {
	switch l := data.(type) {
	case []any:
		return l, nil
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected array, got %T", data)
}

func decodeStruct(data map[string]any, val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		key, skip := fieldKey(field)
		if skip {
			continue
		}

		if item, ok := data[key]; ok {
			if err := decodeValue(item, val.Field(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", typ.Name(), field.Name, err)
			}
		}
	}
	return nil
}

// fieldKey returns the document key for a struct field
func fieldKey(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("toml")
	if tag == "" {
		return field.Name, false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		return field.Name, false
	}
	return name, false
}

func hasOption(field reflect.StructField, option string) bool {
	_, opts, _ := strings.Cut(field.Tag.Get("toml"), ",")
	for _, o := range strings.Split(opts, ",") {
		if o == option {
			return true
		}
	}
	return false
}
