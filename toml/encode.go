package toml

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Marshal returns the TOML encoding of v, which must be a struct or map[string]T
// Scalars of a table are written before its sub-tables. Struct fields keep
// declaration order, map keys are sorted. Nil pointers and `omitempty` zero
// values are skipped; durations are written as strings
func Marshal(v any) ([]byte, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("marshal: nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct && val.Kind() != reflect.Map {
		return nil, fmt.Errorf("marshal: root must be struct or map, got %v", val.Kind())
	}

	e := &encoder{}
	if err := e.table(val, ""); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf bytes.Buffer
}

type entry struct {
	key string
	val reflect.Value
}

func (e *encoder) table(rv reflect.Value, prefix string) error {
	entries, err := tableEntries(rv)
	if err != nil {
		return err
	}

	var tables []entry
	for _, en := range entries {
		if isTable(en.val) {
			tables = append(tables, en)
			continue
		}
		e.key(en.key)
		e.buf.WriteString(" = ")
		if err := e.value(en.val); err != nil {
			return fmt.Errorf("key %q: %w", en.key, err)
		}
		e.buf.WriteByte('\n')
	}

	for _, en := range tables {
		path := quoteKey(en.key)
		if prefix != "" {
			path = prefix + "." + path
		}

		if en.val.Kind() == reflect.Struct || en.val.Kind() == reflect.Map {
			e.buf.WriteString("\n[" + path + "]\n")
			if err := e.table(en.val, path); err != nil {
				return err
			}
			continue
		}

		for i := 0; i < en.val.Len(); i++ {
			elem := indirect(en.val.Index(i))
			if !elem.IsValid() {
				continue
			}
			e.buf.WriteString("\n[[" + path + "]]\n")
			if err := e.table(elem, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableEntries lists the encodable members of a struct or map
func tableEntries(rv reflect.Value) ([]entry, error) {
	var out []entry

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key must be string, got %v", rv.Type().Key())
		}
		for _, k := range rv.MapKeys() {
			v := indirect(rv.MapIndex(k))
			if !v.IsValid() {
				continue
			}
			out = append(out, entry{key: k.String(), val: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })

	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			key, skip := fieldKey(field)
			if skip {
				continue
			}
			v := indirect(rv.Field(i))
			if !v.IsValid() {
				continue
			}
			if hasOption(field, "omitempty") && v.IsZero() {
				continue
			}
			out = append(out, entry{key: key, val: v})
		}
	}
	return out, nil
}

// indirect unwraps interfaces and pointers; nil yields the zero Value
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isTable reports whether v renders as [table] or [[array of tables]]
func isTable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return false
		}
		elem := indirect(v.Index(0))
		return elem.IsValid() && (elem.Kind() == reflect.Struct || elem.Kind() == reflect.Map)
	}
	return false
}

func (e *encoder) value(v reflect.Value) error {
	if v.Type() == durationType {
		e.str(time.Duration(v.Int()).String())
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		e.buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.String:
		e.str(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > 1<<63-1 {
			return fmt.Errorf("unsigned value %d exceeds int64", v.Uint())
		}
		e.buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		s := strconv.FormatFloat(v.Float(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		e.buf.WriteString(s)
	case reflect.Slice, reflect.Array:
		e.buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				e.buf.WriteString(", ")
			}
			elem := indirect(v.Index(i))
			if !elem.IsValid() {
				return fmt.Errorf("nil element at index %d", i)
			}
			if err := e.value(elem); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	default:
		return fmt.Errorf("unsupported type %v", v.Type())
	}
	return nil
}

func (e *encoder) key(k string) {
	e.buf.WriteString(quoteKey(k))
}

func (e *encoder) str(s string) {
	e.buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			e.buf.WriteString(`\"`)
		case '\\':
			e.buf.WriteString(`\\`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\r':
			e.buf.WriteString(`\r`)
		case '\t':
			e.buf.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&e.buf, `\u%04X`, r)
			} else {
				e.buf.WriteRune(r)
			}
		}
	}
	e.buf.WriteByte('"')
}

// quoteKey quotes keys the lexer would not read back as a bare identifier
func quoteKey(k string) string {
	bare := k != ""
	for _, r := range k {
		if !isAlpha(r) && !isDigit(r) && r != '_' && r != '-' {
			bare = false
			break
		}
	}
	if bare && classifyWord(k) == TokenIdent {
		return k
	}
	return strconv.Quote(k)
}
