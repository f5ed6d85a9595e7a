package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator *validator.Validate
	validatorOnce   sync.Once
)

// FieldError describes one failed struct-tag rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// RequestError collects every failed rule for a request body.
type RequestError struct {
	Fields []FieldError
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared validator. Field names in errors use the json tag.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return structValidator
}

// Struct validates s against its `validate` tags. It returns nil or a *RequestError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestError{Fields: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}}}
	}

	out := &RequestError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: message(fe)}
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "email":
		return field + " must be a valid email address"
	case "dive":
		return field + " contains an invalid entry"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
