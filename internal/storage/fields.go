package storage

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	crmerrors "github.com/maruel/pcrm/internal/errors"
)

// idField is the JSON key every record type must carry as an int field.
const idField = "ID"

// fields maps the JSON keys of a record struct to its fields so that records
// can be read and updated by field name.
type fields[T any] struct {
	typ    reflect.Type
	byName map[string]int
	id     int
}

func fieldsOf[T any]() (*fields[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type must be a struct, got %s", t)
	}
	f := &fields[T]{
		typ:    t,
		byName: make(map[string]int, t.NumField()),
	}
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("json"); ok {
			n, _, _ := strings.Cut(tag, ",")
			if n == "-" {
				continue
			}
			if n != "" {
				name = n
			}
		}
		f.byName[name] = i
	}
	id, ok := f.byName[idField]
	if !ok || t.Field(id).Type.Kind() != reflect.Int {
		return nil, fmt.Errorf("record type %s needs an int field with JSON key %q", t, idField)
	}
	f.id = id
	return f, nil
}

// lookup returns the struct field index of the JSON key name.
func (f *fields[T]) lookup(name string) (int, bool) {
	i, ok := f.byName[name]
	return i, ok
}

func (f *fields[T]) getID(rec *T) int {
	return int(reflect.ValueOf(rec).Elem().Field(f.id).Int())
}

func (f *fields[T]) setID(rec *T, id int) {
	reflect.ValueOf(rec).Elem().Field(f.id).SetInt(int64(id))
}

func (f *fields[T]) get(rec *T, i int) reflect.Value {
	return reflect.ValueOf(rec).Elem().Field(i)
}

func (f *fields[T]) set(rec *T, i int, v reflect.Value) {
	reflect.ValueOf(rec).Elem().Field(i).Set(v)
}

// coerce converts value to typ. Strings are accepted for every field type:
// integers are parsed and string lists are split on commas.
func coerce(name string, value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Value{}, crmerrors.BadInput(fmt.Sprintf("no value for field %s", name))
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(typ) {
		return v, nil
	}
	s, isString := value.(string)
	switch typ.Kind() {
	case reflect.String:
		if v.Kind() == reflect.String {
			return v.Convert(typ), nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if isString {
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return reflect.Value{}, crmerrors.BadInput(fmt.Sprintf("field %s needs an integer, got %q", name, s))
			}
			return reflect.ValueOf(n).Convert(typ), nil
		}
		if v.CanInt() {
			return v.Convert(typ), nil
		}
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.String && isString {
			return reflect.ValueOf(splitList(s)).Convert(typ), nil
		}
	}
	return reflect.Value{}, crmerrors.BadInput(fmt.Sprintf("field %s cannot hold %v (%T)", name, value, value))
}

// splitList parses "a, b,c" into [a b c].
func splitList(s string) []string {
	out := []string{}
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// equal compares two values of the same type. Nil and empty slices are equal.
func equal(a, b reflect.Value) bool {
	if a.Kind() == reflect.Slice {
		if a.Len() != b.Len() {
			return false
		}
		for i := range a.Len() {
			if !reflect.DeepEqual(a.Index(i).Interface(), b.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}
