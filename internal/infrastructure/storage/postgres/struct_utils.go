package postgres

import (
	"reflect"
	"sync"
)

// column is one db-tagged field, addressed by its index path through embedded structs.
type column struct {
	name  string
	index []int
}

var columnCache sync.Map // map[reflect.Type][]column

func columnsOf(t reflect.Type) []column {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	var cols []column
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			path := append(append([]int(nil), prefix...), i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				walk(f.Type, path)
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			cols = append(cols, column{name: tag, index: path})
		}
	}
	if t.Kind() == reflect.Struct {
		walk(t, nil)
	}

	columnCache.Store(t, cols)
	return cols
}

// Columns returns the db column names of T in field order, embedded structs included.
//
//	cols := Columns[product.Product]()
//	// ["id", "active", "version", ..., "code", "normalized_code", "name", "price", ...]
func Columns[T any]() []string {
	cols := columnsOf(reflect.TypeFor[T]())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap maps every db-tagged field of v to its value.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return out
}
