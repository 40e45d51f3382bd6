// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule. Field is the JSON name of the field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// RequestValidationError lists every rule a payload failed.
type RequestValidationError struct {
	errs []FieldError
}

// NewFieldError reports a rule that struct tags cannot express, such as a
// rating that is only allowed for watched entries.
func NewFieldError(field, rule, message string) *RequestValidationError {
	return &RequestValidationError{errs: []FieldError{{Field: field, Rule: rule, Message: message}}}
}

func (e *RequestValidationError) Errors() []FieldError {
	return e.errs
}

func (e *RequestValidationError) Error() string {
	if len(e.errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.errs))
	for i, fe := range e.errs {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields maps field name to message, for API error details.
func (e *RequestValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.errs))
	for _, fe := range e.errs {
		out[fe.Field] = fe.Message
	}
	return out
}

var (
	instance *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator. Field names come from json tags.
func GetValidator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(jsonName)
	})
	return instance
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// ValidateStruct checks v against its validate tags. It returns nil when v
// is valid.
//
//	if verr := validation.ValidateStruct(&update); verr != nil {
//	    return remote.NewValidationError("watchlist.update", verr)
//	}
func ValidateStruct(v interface{}) *RequestValidationError {
	err := GetValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewFieldError("", "invalid", err.Error())
	}
	out := &RequestValidationError{errs: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.errs = append(out.errs, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, p)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, p)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", f, p)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", f, p)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", f, p)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, p)
		}
		return fmt.Sprintf("%s must be at most %s", f, p)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, p)
		}
		return fmt.Sprintf("%s must be at least %s", f, p)
	}
	return fmt.Sprintf("%s failed %s", f, fe.Tag())
}
