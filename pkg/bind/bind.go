// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/validate"
)

// maxBodyBytes returns the configured request body size limit (default 1 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// Body returns r.Body capped at MAX_BODY_BYTES.
func Body(r *http.Request) io.Reader {
	return http.MaxBytesReader(nil, r.Body, maxBodyBytes())
}

// JSON decodes the capped r.Body into dest and validates it.
func JSON(r *http.Request, dest interface{}) error {
	return Decode(Body(r), dest)
}

// Normalizer is implemented by inputs that tidy themselves (trim strings,
// fill derived defaults) after decoding and before validation.
type Normalizer interface {
	Normalize()
}

// Decode reads one JSON document into dest, normalises it and validates it.
// Every failure is an *apperr.ValidationError: malformed JSON is reported
// against "body", a value of the wrong JSON type against its field, and tag
// rules per field. Type and rule failures are reported together, one entry per
// field in declaration order.
func Decode(body io.Reader, dest interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return decodeError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return decodeError(io.EOF)
	}

	var typeErrs map[string]apperr.FieldError
	if err := json.Unmarshal(raw, dest); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return decodeError(err)
		}
		typeErrs = fieldTypeErrors(raw, dest)
		if len(typeErrs) == 0 {
			return decodeError(err)
		}
	}

	if n, ok := dest.(Normalizer); ok {
		n.Normalize()
	}
	errs := merge(dest, typeErrs, validate.Struct(dest))
	if len(errs) > 0 {
		return apperr.Validation(errs...)
	}
	return nil
}

// fieldTypeErrors decodes each top-level member separately so that every
// mistyped field is found, not only the first one encoding/json reports.
func fieldTypeErrors(raw []byte, dest interface{}) map[string]apperr.FieldError {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil
	}
	rt := structType(dest)
	if rt == nil {
		return nil
	}

	out := make(map[string]apperr.FieldError)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := validate.JSONFieldName(f)
		member, ok := members[name]
		if !ok {
			continue
		}
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(member, reflect.New(f.Type).Interface()); errors.As(err, &typeErr) {
			out[name] = typeError(name, f.Type)
		}
	}
	return out
}

// merge orders failures by field declaration; a field with a type error does
// not also report its rule failure.
func merge(dest interface{}, typeErrs map[string]apperr.FieldError, ruleErrs []apperr.FieldError) []apperr.FieldError {
	if len(typeErrs) == 0 {
		return ruleErrs
	}
	rules := make(map[string]apperr.FieldError, len(ruleErrs))
	for _, fe := range ruleErrs {
		rules[fe.Field] = fe
	}

	rt := structType(dest)
	var out []apperr.FieldError
	for i := 0; i < rt.NumField(); i++ {
		name := validate.JSONFieldName(rt.Field(i))
		if fe, ok := typeErrs[name]; ok {
			out = append(out, fe)
		} else if fe, ok := rules[name]; ok {
			out = append(out, fe)
		}
	}
	return out
}

func structType(v interface{}) reflect.Type {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil
	}
	return rt
}

func typeError(field string, t reflect.Type) apperr.FieldError {
	return apperr.FieldError{
		Field:   field,
		Message: fmt.Sprintf("The %s field must be of type %s.", field, jsonKind(t.Kind().String())),
	}
}

func decodeError(err error) error {
	var (
		typeErr *json.UnmarshalTypeError
		maxErr  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return apperr.Validation(typeError(typeErr.Field, typeErr.Type))
	case errors.As(err, &maxErr):
		return apperr.Validation(apperr.FieldError{
			Field:   "body",
			Message: fmt.Sprintf("The request body must not exceed %d bytes.", maxErr.Limit),
		})
	case errors.Is(err, io.EOF):
		return apperr.Validation(apperr.FieldError{Field: "body", Message: "The request body is required."})
	default:
		return apperr.Validation(apperr.FieldError{Field: "body", Message: "The request body must be valid JSON."})
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "string"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "integer"
	case "float32", "float64":
		return "number"
	case "bool":
		return "boolean"
	case "map", "struct":
		return "object"
	case "slice", "array":
		return "array"
	}
	return goKind
}
