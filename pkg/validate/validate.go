package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	tagNonBlank = "nonblank"
	tagPositive = "positive_int"
)

var v = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(tagNonBlank, nonBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation(tagPositive, positiveInt); err != nil {
		panic(err)
	}
	return v
}

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// RequiredString rejects nil, non-string and blank values.
func RequiredString(field string, value any) error {
	if err := v.Var(value, tagNonBlank); err != nil {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s is required and must be a non-empty string", field),
		}
	}
	return nil
}

// PositiveInteger rejects nil, non-integer and values <= 0.
func PositiveInteger(field string, value any) error {
	if err := v.Var(value, tagPositive); err != nil {
		return &FieldError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a positive integer", field),
		}
	}
	return nil
}

func nonBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	return f.Kind() == reflect.String && strings.TrimSpace(f.String()) != ""
}

func positiveInt(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() > 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return f.Uint() > 0
	default:
		return false
	}
}
