package ctx

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// fieldSentinel is a light-weight error used for sentinel comparisons.
type fieldSentinel string

func (e fieldSentinel) Error() string { return string(e) }

// Sentinel errors to detect field error categories with errors.Is.
//
//	var fe ctx.FieldErrors
//	if errors.As(err, &fe) && errors.Is(fe, ctx.ErrFieldUnexpected) {
//		// the form carried a field the model does not declare
//	}
var (
	// ErrFieldUnexpected matches unknown input fields.
	ErrFieldUnexpected error = fieldSentinel("unexpected")
	// ErrFieldInvalidType matches type mismatches without a known expected type.
	ErrFieldInvalidType error = fieldSentinel("invalid type")
	// ErrFieldTypeExpected matches messages ending in " type expected".
	ErrFieldTypeExpected error = fieldSentinel("type expected")
)

// FieldError is a binding or validation error for one field.
type FieldError interface {
	Field() string
	Message() string
}

// FieldErrors aggregates field errors. It supports errors.Is against the
// sentinels above.
type FieldErrors interface {
	error
	All() []FieldError
	Map() map[string]string
}

type fieldError struct {
	field   string
	message string
}

func (e fieldError) Field() string   { return e.field }
func (e fieldError) Message() string { return e.message }
func (e fieldError) Error() string   { return fmt.Sprintf("field %s: %s", e.field, e.message) }

type fieldErrorsMap struct {
	m map[string]string
}

func (f fieldErrorsMap) Error() string {
	keys := make([]string, 0, len(f.m))
	for k := range f.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "field errors: " + strings.Join(keys, ", ")
}

func (f fieldErrorsMap) Is(target error) bool {
	s, ok := target.(fieldSentinel)
	if !ok {
		return false
	}
	for _, msg := range f.m {
		switch s {
		case ErrFieldTypeExpected:
			if strings.HasSuffix(msg, " "+ErrFieldTypeExpected.Error()) {
				return true
			}
		default:
			if msg == s.Error() {
				return true
			}
		}
	}
	return false
}

// All returns the contained field errors sorted by field name.
func (f fieldErrorsMap) All() []FieldError {
	out := make([]FieldError, 0, len(f.m))
	for k, v := range f.m {
		out = append(out, fieldError{field: k, message: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field() < out[j].Field() })
	return out
}

// Map returns a copy of the field -> message pairs.
func (f fieldErrorsMap) Map() map[string]string {
	out := make(map[string]string, len(f.m))
	for k, v := range f.m {
		out[k] = v
	}
	return out
}

// NewFieldErrors builds a FieldErrors from field -> message pairs.
// It returns nil for an empty map.
func NewFieldErrors(m map[string]string) FieldErrors {
	if len(m) == 0 {
		return nil
	}
	return fieldErrorsMap{m: m}
}

// AsFieldErrors unwraps err into FieldErrors when possible.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
