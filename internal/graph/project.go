package graph

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// project reads name from a map or from a struct field whose json tag (or Go
// name, case-insensitively) matches.
func project(source any, name string) (any, error) {
	switch s := source.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return s[name], nil
	}
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		idx, ok := structFieldIndex(rv.Type(), name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", rv.Type(), name)
		}
		fv := rv.FieldByIndex(idx)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				return nil, nil
			}
			// Optional leaves are dereferenced; nested objects stay pointers.
			if fv.Elem().Kind() != reflect.Struct {
				return fv.Elem().Interface(), nil
			}
		}
		return fv.Interface(), nil
	}
	return nil, fmt.Errorf("cannot read %q from %T", name, source)
}

type structKey struct {
	t    reflect.Type
	name string
}

var structIndexCache sync.Map // structKey -> []int

func structFieldIndex(t reflect.Type, name string) ([]int, bool) {
	key := structKey{t, name}
	if idx, ok := structIndexCache.Load(key); ok {
		return idx.([]int), idx.([]int) != nil
	}
	var found []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name {
			found = f.Index
			break
		}
		if tag == "" && found == nil && strings.EqualFold(f.Name, name) {
			found = f.Index
		}
	}
	structIndexCache.Store(key, found)
	return found, found != nil
}
