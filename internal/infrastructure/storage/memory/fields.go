package memory

import (
	"fmt"
	"reflect"
	"sync"
)

// columnIndex maps "db" tags to field index paths, embedded structs included.
type columnIndex map[string][]int

var columnCache sync.Map // map[reflect.Type]columnIndex

func columnsOf(t reflect.Type) columnIndex {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.(columnIndex)
	}

	idx := make(columnIndex)
	collectColumns(t, nil, idx)
	columnCache.Store(t, idx)
	return idx
}

func collectColumns(t reflect.Type, prefix []int, idx columnIndex) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectColumns(f.Type, path, idx)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		idx[tag] = path
	}
}

// column reads the field tagged tag from a struct pointer.
func column(ptr any, tag string) (any, bool) {
	rv := reflect.ValueOf(ptr).Elem()
	path, ok := columnsOf(rv.Type())[tag]
	if !ok {
		return nil, false
	}
	return rv.FieldByIndex(path).Interface(), true
}

// setColumns assigns fields onto a struct pointer, treating nil as the zero value.
// Unknown columns and unassignable values are errors, like they would be in SQL.
func setColumns(ptr any, fields map[string]any) error {
	rv := reflect.ValueOf(ptr).Elem()
	idx := columnsOf(rv.Type())

	for tag, value := range fields {
		path, ok := idx[tag]
		if !ok {
			return fmt.Errorf("unknown column %q", tag)
		}
		f := rv.FieldByIndex(path)
		if err := assign(f, value); err != nil {
			return fmt.Errorf("column %q: %w", tag, err)
		}
	}
	return nil
}

func assign(f reflect.Value, value any) error {
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case f.Kind() == reflect.Ptr && v.Type().AssignableTo(f.Type().Elem()):
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(v)
		f.Set(p)
	case v.Kind() == reflect.Ptr && v.Type().Elem().AssignableTo(f.Type()):
		if v.IsNil() {
			f.Set(reflect.Zero(f.Type()))
		} else {
			f.Set(v.Elem())
		}
	case v.Type().ConvertibleTo(f.Type()):
		f.Set(v.Convert(f.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", v.Type(), f.Type())
	}
	return nil
}
