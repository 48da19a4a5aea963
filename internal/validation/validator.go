// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package validation provides struct validation using go-playground/validator
// v10. A thread-safe singleton carries the application's custom validators,
// and failures translate into the API's VALIDATION_ERROR envelope.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/rvense/efvcompass/internal/efv"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Message
}

// RequestError is a collection of field validation failures for one request.
type RequestError struct {
	Fields []FieldError `json:"fields"`
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

// GetValidator returns the singleton validator, initializing it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// efvkind accepts the string form of a known EFV kind.
		_ = validate.RegisterValidation("efvkind", func(fl validator.FieldLevel) bool {
			_, err := efv.ParseKind(fl.Field().String())
			return err == nil
		})

		// reportyear accepts plausible credit report publication years.
		_ = validate.RegisterValidation("reportyear", func(fl validator.FieldLevel) bool {
			y := fl.Field().Int()
			return y >= 1900 && y <= 2200
		})
	})
	return validate
}

// ValidateStruct validates s against its struct tags. Returns nil on success
// or a *RequestError describing every failing field.
func ValidateStruct(s interface{}) *RequestError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe),
		}
	}
	return &RequestError{Fields: fields}
}

func translate(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "efvkind":
		return fmt.Sprintf("%s must be one of event, factor, variable", fe.Field())
	case "reportyear":
		return fmt.Sprintf("%s must be a plausible report year", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
