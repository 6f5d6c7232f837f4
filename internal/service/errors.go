package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrInvalidStay  = errors.New("Check-out date must be after check-in date")
	ErrNotAvailable = errors.New("lodge is not available for the selected dates")
)

// ValidationError carries a user-facing message and the offending fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string, fields ...string) error {
	return &ValidationError{Message: msg, Fields: fields}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// failedFields lists the JSON names of fields that failed validation and whether
// any failure was something other than a missing value.
func failedFields(err error) (fields []string, malformed bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
		if fe.Tag() != "required" {
			malformed = true
		}
	}
	return fields, malformed
}
