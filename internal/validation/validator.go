// Package validation rejects malformed roster input before it reaches the store.
//
// It wraps go-playground/validator with a singleton instance, reports field
// names by their JSON names, and translates failures into field-level
// messages the UI can render next to the offending input.
//
//	if err := validation.ValidateStruct(&participant); err != nil {
//	    for _, fe := range err.Errors() {
//	        render(fe.Field(), fe.Error())
//	    }
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/toastmixer/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the JSON name of the field that failed.
func (e *FieldError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string {
	return e.tag
}

// Param returns the tag parameter (e.g. "100" for "max=100").
func (e *FieldError) Param() string {
	return e.param
}

// Value returns the rejected value.
func (e *FieldError) Value() interface{} {
	return e.value
}

// Error returns a human-readable message.
func (e *FieldError) Error() string {
	return e.message
}

// RequestValidationError is the distinct error kind for rejected input.
type RequestValidationError struct {
	errors []FieldError
}

// NewError builds a RequestValidationError for a single field. It is used for
// checks that struct tags cannot express.
func NewError(field, tag, message string) *RequestValidationError {
	return &RequestValidationError{
		errors: []FieldError{{field: field, tag: tag, message: message}},
	}
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

// Error joins all field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Fields returns a field -> message map, convenient for error details.
func (ve *RequestValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(ve.errors))
	for _, err := range ve.errors {
		fields[err.field] = err.message
	}
	return fields
}

// IsValidationError reports whether err is, or wraps, a RequestValidationError.
func IsValidationError(err error) bool {
	var ve *RequestValidationError
	return errors.As(err, &ve)
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		// birthdate: "YYYY" or "YYYY-MM-DD"
		_ = validate.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
			return models.IsBirthDate(fl.Field().String())
		})
	})

	return validate
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	fieldErrors := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			value:   fe.Value(),
			message: translateError(fe),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"birthdate": "%s must be a 4-digit year or a YYYY-MM-DD date",
}

var errorMessageWithParam = map[string]string{
	"oneof":    "%s must be one of: %s",
	"gte":      "%s must be greater than or equal to %s",
	"lte":      "%s must be less than or equal to %s",
	"gt":       "%s must be greater than %s",
	"datetime": "%s must match the layout %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
