// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package validation wraps a shared go-playground/validator instance.
// Field names in errors are the JSON names, so messages line up with the
// payloads the platform sends.
//
//	if err := validation.ValidateStruct(&payload); err != nil {
//	    logging.Warn().Str("error", err.Error()).Msg("Rejected webhook payload")
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError is one failed field.
type ValidationError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the JSON field name.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the failed tag.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the tag parameter, if any.
func (e *ValidationError) Param() string { return e.param }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failed field of one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the failed fields.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		msgs = append(msgs, ve.errors[i].message)
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		// Registration only fails for empty tags or nil funcs.
		_ = validate.RegisterValidation("rfc3339", isRFC3339)
	})
	return validate
}

// ValidateStruct returns nil or a *RequestValidationError.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translateError(fe),
		}
	}
	return &RequestValidationError{errors: out}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func isRFC3339(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339Nano, fl.Field().String())
	return err == nil
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"rfc3339":  "%s must be an RFC 3339 timestamp",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"max":   "%s must be at most %s",
	"min":   "%s must be at least %s",
}

func translateError(fe validator.FieldError) string {
	if tmpl, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
