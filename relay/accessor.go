package relay

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Accessor reads a batch of values from a Store and flushes it once at the
// end of the batch:
//
//	var (
//		desc    = "Sunny with a chance of meatballs."
//		day     time.Weekday
//		hasDesc bool
//	)
//	err := relay.Read(store).
//		TryGet("Description", &desc, &hasDesc).
//		TryGet("SelectedDay", &day, nil).
//		Flush()
//
// The destination's current value is the default. A key that exists but
// cannot be converted to the destination type leaves the default in place
// and still reports present.
type Accessor struct {
	store   Store
	flushed bool
	hasAny  bool
	err     error
}

// Read starts a batch over s. A nil s reads as empty.
func Read(s Store) *Accessor {
	return &Accessor{store: s}
}

// TryGet reads key into dst, which must be a non-nil pointer. present, when
// not nil, receives whether the key existed.
func (a *Accessor) TryGet(key string, dst any, present *bool) *Accessor {
	found := a.tryGet(key, dst)
	a.hasAny = a.hasAny || found
	if present != nil {
		*present = found
	}
	return a
}

func (a *Accessor) tryGet(key string, dst any) bool {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		if a.err == nil {
			a.err = errors.Wrapf(ErrInvalidDestination, "key %q got %T", key, dst)
		}
		return false
	}
	if a.store == nil {
		return false
	}
	raw, ok := a.store.Get(key)
	if !ok {
		return false
	}

	target := rv.Elem()
	if raw == nil {
		if nilable(target.Kind()) {
			target.Set(reflect.Zero(target.Type()))
		}
		return true
	}
	if v, ok := convert(raw, target.Type()); ok {
		target.Set(v)
	}
	return true
}

// Lookup reads a single key through a.
//
//	day, ok := relay.Lookup(a, "SelectedDay", time.Monday)
func Lookup[T any](a *Accessor, key string, def T) (T, bool) {
	v := def
	var ok bool
	a.TryGet(key, &v, &ok)
	return v, ok
}

// HasAnyData reports whether any TryGet in this batch found its key. It is
// unaffected by Flush and by keys the batch never asked for.
func (a *Accessor) HasAnyData() bool { return a.hasAny }

// Err returns the first misuse recorded by TryGet.
func (a *Accessor) Err() error { return a.err }

// Flush flushes the store on the first call and is a no-op afterwards.
func (a *Accessor) Flush() error {
	if a.flushed || a.store == nil {
		return nil
	}
	a.flushed = true
	return a.store.Flush()
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// convert maps a canonical value onto t. Enumerations take integer ordinals
// and reject undeclared members.
func convert(raw any, t reflect.Type) (reflect.Value, bool) {
	if t.Kind() == reflect.Pointer {
		v, ok := convert(raw, t.Elem())
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	}

	if defined := enumCheck(t); defined != nil {
		i, ok := intValue(raw)
		if !ok {
			return reflect.Value{}, false
		}
		v := reflect.New(t).Elem()
		if !setInt(v, i) || !defined(v) {
			return reflect.Value{}, false
		}
		return v, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}

	switch {
	case t == uuidType:
		s, ok := raw.(string)
		if !ok {
			return reflect.Value{}, false
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(id), true
	case isIntegerKind(t.Kind()):
		i, ok := intValue(raw)
		if !ok {
			return reflect.Value{}, false
		}
		v := reflect.New(t).Elem()
		if !setInt(v, i) {
			return reflect.Value{}, false
		}
		return v, true
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		f, ok := raw.(float64)
		if !ok {
			return reflect.Value{}, false
		}
		v := reflect.New(t).Elem()
		if v.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		v.SetFloat(f)
		return v, true
	case t.Kind() == reflect.String, t == timeType, t.ConvertibleTo(timeType):
		if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
			return rv.Convert(t), true
		}
	}
	return reflect.Value{}, false
}
