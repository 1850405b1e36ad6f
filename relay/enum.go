package relay

import (
	"reflect"
	"sync"
)

// Enum is implemented by named integer types the reader should treat as
// enumerations. Defined reports whether the value is a declared member.
//
//	type Severity int
//	func (s Severity) Defined() bool { return s >= Normal && s <= Error }
type Enum interface {
	Defined() bool
}

// Integer is the set of types RegisterEnum accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

var (
	enumMu       sync.RWMutex
	enumRegistry = map[reflect.Type]func(reflect.Value) bool{}
	enumIface    = reflect.TypeOf((*Enum)(nil)).Elem()
)

// RegisterEnum declares E an enumeration for types that cannot implement
// Enum, such as time.Weekday:
//
//	relay.RegisterEnum(func(d time.Weekday) bool { return d >= time.Sunday && d <= time.Saturday })
func RegisterEnum[E Integer](defined func(E) bool) {
	t := reflect.TypeOf(*new(E))
	enumMu.Lock()
	defer enumMu.Unlock()
	enumRegistry[t] = func(v reflect.Value) bool { return defined(v.Interface().(E)) }
}

// enumCheck returns the membership test for t, or nil when t is not an
// enumeration.
func enumCheck(t reflect.Type) func(reflect.Value) bool {
	if !isIntegerKind(t.Kind()) {
		return nil
	}
	enumMu.RLock()
	fn := enumRegistry[t]
	enumMu.RUnlock()
	if fn != nil {
		return fn
	}
	if t.Implements(enumIface) {
		return func(v reflect.Value) bool { return v.Interface().(Enum).Defined() }
	}
	return nil
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// setInt stores i into v (an integer kind) and reports false on overflow.
func setInt(v reflect.Value, i int64) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.OverflowInt(i) {
			return false
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i < 0 || v.OverflowUint(uint64(i)) {
			return false
		}
		v.SetUint(uint64(i))
	default:
		return false
	}
	return true
}
