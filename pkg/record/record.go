// Package record resolves dot-paths such as "owner.address.city" or
// "items[0].sku" against arbitrary records: maps, structs, pointers and
// slices, in any nesting.
package record

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/locvowork/reportbook/pkg/workbook"
)

// Get walks path through rec and returns the raw Go value it points at.
// ok is false as soon as a segment cannot be resolved.
func Get(rec interface{}, path string) (interface{}, bool) {
	if path == "" {
		return rec, rec != nil
	}
	if strings.HasSuffix(path, ".") {
		return nil, false
	}
	cur := reflect.ValueOf(rec)
	rest := path
	for rest != "" {
		seg, tail := nextSeg(rest)
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
		rest = tail
	}
	cur = indirect(cur)
	if !cur.IsValid() {
		return nil, true
	}
	return cur.Interface(), true
}

// Lookup is Get followed by workbook.Classify. A path that resolves to nil
// yields an empty Value with ok set.
func Lookup(rec interface{}, path string) (workbook.Value, bool) {
	v, ok := Get(rec, path)
	if !ok {
		return workbook.Value{}, false
	}
	return workbook.Classify(v), true
}

// Slice flattens a slice or array of any element type into []interface{}.
// A nil input gives an empty result.
func Slice(data interface{}) ([]interface{}, error) {
	if data == nil {
		return nil, nil
	}
	if s, ok := data.([]interface{}); ok {
		return s, nil
	}
	rv := indirect(reflect.ValueOf(data))
	if !rv.IsValid() {
		return nil, nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("record: expected slice, got %T", data)
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// step resolves one segment. Empty segments never match.
func step(cur reflect.Value, seg string) (reflect.Value, bool) {
	if seg == "" || seg == "[]" {
		return reflect.Value{}, false
	}
	cur = indirect(cur)
	if !cur.IsValid() {
		return reflect.Value{}, false
	}
	if strings.HasPrefix(seg, "[") {
		return index(cur, strings.Trim(seg, "[]"))
	}
	switch cur.Kind() {
	case reflect.Map:
		if cur.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		v := cur.MapIndex(reflect.ValueOf(seg).Convert(cur.Type().Key()))
		return v, v.IsValid()
	case reflect.Struct:
		return field(cur, seg)
	case reflect.Slice, reflect.Array:
		return index(cur, seg)
	}
	return reflect.Value{}, false
}

func index(cur reflect.Value, idx string) (reflect.Value, bool) {
	if cur.Kind() != reflect.Slice && cur.Kind() != reflect.Array {
		return reflect.Value{}, false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= cur.Len() {
		return reflect.Value{}, false
	}
	return cur.Index(i), true
}

// field matches an exported field by name first, then by json tag.
func field(cur reflect.Value, name string) (reflect.Value, bool) {
	t := cur.Type()
	if sf, ok := t.FieldByName(name); ok && sf.PkgPath == "" {
		return cur.FieldByIndex(sf.Index), true
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		tag := strings.Split(sf.Tag.Get("json"), ",")[0]
		if tag == name || (tag == "" && strings.EqualFold(sf.Name, name)) {
			return cur.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func nextSeg(path string) (seg string, tail string) {
	if path[0] == '[' {
		if i := strings.Index(path, "]"); i >= 0 {
			seg = path[:i+1]
			tail = strings.TrimPrefix(path[i+1:], ".")
			return seg, tail
		}
	}
	i := 0
	for i < len(path) && path[i] != '.' && path[i] != '[' {
		i++
	}
	seg = path[:i]
	if i < len(path) && path[i] == '.' {
		tail = path[i+1:]
	} else {
		tail = path[i:]
	}
	return seg, tail
}
