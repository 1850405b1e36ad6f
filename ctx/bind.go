package ctx

import (
	"reflect"
	"strings"

	ms "github.com/mitchellh/mapstructure"
)

// newMSDecoder is a package-level hook to allow tests to stub decoder creation.
var newMSDecoder = ms.NewDecoder

// FormTag is the struct tag consulted by the binders.
const FormTag = "form"

// BindOptions customizes how maps and forms are decoded into structs.
//
// Defaults when options are omitted:
//   - ErrorUnused = true (unknown fields cause an error)
//   - WeaklyTypedInput = false (no implicit coercion)
//
// Forms carry every value as a string, so BindForm is usually called with
// WeaklyTypedInput enabled:
//
//	var in WeatherForm
//	err := c.BindForm(&in, ctx.BindOptions{WeaklyTypedInput: true})
type BindOptions struct {
	// WeaklyTypedInput allows coercions such as "2" -> 2 for int fields.
	WeaklyTypedInput bool
	// ErrorUnused returns an error for fields the target does not declare.
	ErrorUnused bool
	// IgnoreFields are dropped from the input before decoding. Handy for
	// framework fields such as the CSRF token.
	IgnoreFields []string
}

// BindMap binds the map into v using mapstructure and the `form` tag.
// Decoding errors are mapped to FieldErrors when the field can be identified.
func (c *DefaultContext) BindMap(v any, m map[string]any, opts ...BindOptions) error {
	return bindMap(v, m, opts...)
}

func bindMap(v any, m map[string]any, opts ...BindOptions) error {
	var o BindOptions
	if len(opts) > 0 {
		o = opts[0]
	} else {
		o.ErrorUnused = true
	}
	for _, f := range o.IgnoreFields {
		delete(m, f)
	}

	var targetType reflect.Type
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
		targetType = rv.Elem().Type()
	}

	dec, err := newMSDecoder(&ms.DecoderConfig{
		TagName:          FormTag,
		Result:           v,
		WeaklyTypedInput: o.WeaklyTypedInput,
		ErrorUnused:      o.ErrorUnused,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		if fe := mapMapStructureError(err, o, targetType); fe != nil {
			return fe
		}
		return err
	}
	return nil
}

// BindForm collects urlencoded or multipart text fields (first value per key)
// and binds them into v.
func (c *DefaultContext) BindForm(v any, opts ...BindOptions) error {
	m, err := c.collectFormMap()
	if err != nil {
		return err
	}
	return c.BindMap(v, m, opts...)
}

func (c *DefaultContext) collectFormMap() (map[string]any, error) {
	if err := c.r.ParseForm(); err != nil {
		return nil, err
	}
	if ct := c.r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/") && c.r.MultipartForm == nil {
		if err := c.r.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
	}
	out := map[string]any{}
	for k, vals := range c.r.PostForm {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	if c.r.MultipartForm != nil {
		for k, vals := range c.r.MultipartForm.Value {
			if _, ok := out[k]; !ok && len(vals) > 0 {
				out[k] = vals[0]
			}
		}
	}
	return out, nil
}

// mapMapStructureError converts mapstructure errors into FieldErrors.
func mapMapStructureError(err error, o BindOptions, targetType reflect.Type) error {
	s := err.Error()
	if o.ErrorUnused {
		const marker = "has invalid keys:"
		if idx := strings.Index(s, marker); idx != -1 {
			list := s[idx+len(marker):]
			if nl := strings.IndexByte(list, '\n'); nl != -1 {
				list = list[:nl]
			}
			fe := map[string]string{}
			for _, p := range strings.Split(list, ",") {
				k := strings.TrimLeft(strings.TrimSpace(p), "* '`\"")
				k = strings.Trim(k, "'`\" .;:")
				if k != "" {
					fe[k] = ErrFieldUnexpected.Error()
				}
			}
			if len(fe) > 0 {
				return NewFieldErrors(fe)
			}
		}
	}
	if field, ok := extractFieldFromMapStructureTypeError(s); ok {
		if targetType != nil {
			if ft, ok := findExpectedFieldType(targetType, field); ok {
				return NewFieldErrors(map[string]string{field: expectedTypeLabel(ft) + " " + ErrFieldTypeExpected.Error()})
			}
		}
		return NewFieldErrors(map[string]string{field: ErrFieldInvalidType.Error()})
	}
	return err
}

// extractFieldFromMapStructureTypeError pulls the field name out of messages
// such as "cannot decode 'age' from string into int" or
// "* 'SelectedDay' expected type 'time.Weekday', got unconvertible type 'string'".
func extractFieldFromMapStructureTypeError(s string) (string, bool) {
	if strings.Contains(s, "error(s) decoding:") {
		lines := strings.Split(s, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if line := strings.TrimSpace(lines[i]); line != "" {
				s = line
				break
			}
		}
	}
	for _, prefix := range []string{"cannot decode '", "invalid type for '", "cannot parse '"} {
		if start := strings.Index(s, prefix); start != -1 {
			start += len(prefix)
			end := strings.Index(s[start:], "'")
			if end == -1 {
				return "", false
			}
			return s[start : start+end], true
		}
	}
	s2 := strings.TrimSpace(strings.TrimPrefix(s, "* "))
	q1 := strings.IndexByte(s2, '\'')
	if q1 == -1 {
		return "", false
	}
	q2 := strings.IndexByte(s2[q1+1:], '\'')
	if q2 == -1 {
		return "", false
	}
	if strings.Contains(s2[q1+1+q2+1:], " expected type '") {
		return s2[q1+1 : q1+1+q2], true
	}
	return "", false
}

// findExpectedFieldType finds the struct field matching the form tag name (or
// the field name when untagged).
func findExpectedFieldType(t reflect.Type, field string) (reflect.Type, bool) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if name, _, _ := strings.Cut(f.Tag.Get(FormTag), ","); name != "" && name != "-" {
			if strings.EqualFold(name, field) {
				return f.Type, true
			}
			continue
		}
		if strings.EqualFold(f.Name, field) {
			return f.Type, true
		}
	}
	return nil, false
}

func expectedTypeLabel(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.String:
		return "string"
	case reflect.Array, reflect.Slice:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}
