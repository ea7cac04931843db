package shallow

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
)

var (
	// ErrUnsupported is returned when a state type cannot be merged.
	// Mergeable states are structs, pointers to structs and maps with string keys.
	ErrUnsupported = errors.New("shallow: state is not a struct or string-keyed map")

	// ErrUnknownKey is returned when a patch key does not name a struct field.
	ErrUnknownKey = errors.New("shallow: unknown key")

	// ErrTypeMismatch is returned when a patch value cannot be stored in its target.
	ErrTypeMismatch = errors.New("shallow: value type mismatch")
)

// Merge returns prev with the top-level keys of patch overwritten.
// prev itself is never modified: maps are copied and struct pointers are
// cloned before the patch is applied.
//
// Struct keys resolve to fields by `model` tag, then by the `json` tag name,
// then by the exact Go field name. Map keys are map keys, so unknown keys are
// added.
func Merge[S any](prev S, patch map[string]any) (S, error) {
	out, err := mergeValue(reflect.ValueOf(&prev).Elem(), patch)
	if err != nil {
		return prev, err
	}
	return out.Interface().(S), nil
}

func mergeValue(rv reflect.Value, patch map[string]any) (reflect.Value, error) {
	switch rv.Kind() {
	case reflect.Map:
		return mergeMap(rv, patch)

	case reflect.Struct:
		out := reflect.New(rv.Type()).Elem()
		out.Set(rv)
		if err := patchStruct(out, patch); err != nil {
			return reflect.Value{}, err
		}
		return out, nil

	case reflect.Pointer:
		elem := rv.Type().Elem()
		if elem.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupported, rv.Type())
		}
		out := reflect.New(elem)
		if !rv.IsNil() {
			out.Elem().Set(rv.Elem())
		}
		if err := patchStruct(out.Elem(), patch); err != nil {
			return reflect.Value{}, err
		}
		return out, nil

	case reflect.Interface:
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil interface", ErrUnsupported)
		}
		merged, err := mergeValue(rv.Elem(), patch)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(merged)
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupported, rv.Type())
}

func mergeMap(rv reflect.Value, patch map[string]any) (reflect.Value, error) {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}

	out := reflect.MakeMapWithSize(t, rv.Len()+len(patch))
	iter := rv.MapRange()
	for iter.Next() {
		out.SetMapIndex(iter.Key(), iter.Value())
	}
	for k, v := range patch {
		val, err := Coerce(v, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), val)
	}
	return out, nil
}

func patchStruct(out reflect.Value, patch map[string]any) error {
	fields := fieldsOf(out.Type())
	for k, v := range patch {
		idx, ok := fields[k]
		if !ok {
			return fmt.Errorf("%w %q on %s", ErrUnknownKey, k, out.Type())
		}
		f := out.Field(idx)
		val, err := Coerce(v, f.Type())
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		f.Set(val)
	}
	return nil
}

// fieldCache maps a struct type to its patch key -> field index table.
var fieldCache sync.Map // map[reflect.Type]map[string]int

func fieldsOf(t reflect.Type) map[string]int {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]int)
	}

	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fields[sf.Name] = i
		if name := tagName(sf.Tag.Get("json")); name != "" {
			fields[name] = i
		}
		if name := tagName(sf.Tag.Get("model")); name != "" {
			fields[name] = i
		}
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.(map[string]int)
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// Coerce converts v into a value assignable to t.
// nil becomes the zero value of t. Numeric values convert between numeric
// kinds, which covers numbers decoded from JSON into interface values.
// A numeric conversion that would change the value (a fraction into an
// integer, a negative into an unsigned, or an out-of-range value) fails with
// ErrTypeMismatch. Narrowing between float kinds only fails on overflow.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		out, ok := convertNumber(rv, t)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit %s", ErrTypeMismatch, v, t)
		}
		return out, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
		// Named types over the same underlying kind, e.g. type Status string.
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %s as %s", ErrTypeMismatch, rv.Type(), t)
}

// convertNumber converts rv to t and reports whether the value survived.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if isFloat(rv.Kind()) && isFloat(t.Kind()) {
		f := rv.Float()
		if !math.IsInf(f, 0) && !math.IsNaN(f) && reflect.Zero(t).OverflowFloat(f) {
			return reflect.Value{}, false
		}
		return rv.Convert(t), true
	}

	out := rv.Convert(t)
	if out.Convert(rv.Type()).Interface() != rv.Interface() {
		return reflect.Value{}, false
	}
	// The round trip can wrap back onto the same bits, e.g. -1 to uint64
	// and back; signs must agree as well.
	if isNegative(rv) != isNegative(out) {
		return reflect.Value{}, false
	}
	return out, true
}

func isNegative(v reflect.Value) bool {
	switch {
	case isFloat(v.Kind()):
		return v.Float() < 0
	case v.CanInt():
		return v.Int() < 0
	}
	return false
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
