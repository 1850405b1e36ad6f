// Package validate wraps go-playground/validator and turns its errors into
// ctx.FieldErrors keyed by form field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mq-gh-dev/blazor-ssr-tempdata/ctx"
)

// Validator is the shared instance. Register custom rules on it at startup.
var Validator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Struct validates v with the shared Validator.
func Struct(v any) error { return Validator.Struct(v) }

// ToFieldErrors converts binding and validation errors into field -> message
// pairs. It returns nil when err carries no field information.
func ToFieldErrors(err error) ctx.FieldErrors { return ToFieldErrorsWith(err, nil) }

// ToFieldErrorsWith is ToFieldErrors with per rule messages keyed by
// "Field.tag", for example "Description.required".
func ToFieldErrorsWith(err error, messages map[string]string) ctx.FieldErrors {
	if err == nil {
		return nil
	}
	if fe, ok := ctx.AsFieldErrors(err); ok {
		return fe
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, e := range ve {
		name := fieldPath(e)
		if _, seen := out[name]; seen {
			continue
		}
		if msg, ok := messages[name+"."+e.Tag()]; ok {
			out[name] = msg
		} else {
			out[name] = Message(e)
		}
	}
	return ctx.NewFieldErrors(out)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// Message renders a human readable message for one failed rule.
func Message(e validator.FieldError) string {
	f := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", f)
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at most %s characters long.", f, e.Param())
		}
		return fmt.Sprintf("The %s field must be at most %s.", f, e.Param())
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters long.", f, e.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", f, e.Param())
	case "oneof":
		return fmt.Sprintf("The %s field must be one of: %s.", f, e.Param())
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("The %s field must be %s %s.", f, e.Tag(), e.Param())
	}
	return fmt.Sprintf("The %s field is invalid (%s).", f, e.Tag())
}
