package relay

import (
	"math"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Canonical converts v into the representation the relay stores and
// transports. Integer kinds (enumerations included) become int, or int64
// when they do not fit; floats become float64; UUIDs become strings. Slices
// and maps decoded from a transport as []any or map[string]any are accepted
// when every element is a string.
func Canonical(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int, float64, []string, map[string]string:
		return v, nil
	case time.Time:
		return t, nil
	case uuid.UUID:
		return t.String(), nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Wrapf(ErrUnsupportedType, "element %d of type %T", i, e)
			}
			out[i] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Wrapf(ErrUnsupportedType, "entry %q of type %T", k, e)
			}
			out[k] = s
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return canonicalInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errors.Wrapf(ErrUnsupportedType, "%T value %d overflows int64", v, u)
		}
		return canonicalInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.String {
			out := make([]string, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).String()
			}
			return out, nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String && rv.Type().Elem().Kind() == reflect.String {
			out := make(map[string]string, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = iter.Value().String()
			}
			return out, nil
		}
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return rv.Convert(timeType).Interface(), nil
		}
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%T", v)
}

func canonicalInt(i int64) any {
	if i < math.MinInt || i > math.MaxInt {
		return i
	}
	return int(i)
}

// intValue reports the integer carried by a canonical value.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
