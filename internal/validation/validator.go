// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package validation wraps go-playground/validator v10 for inventory records
// and API query parameters.
//
// Field names in errors come from json tags, so a bad manifest record is
// reported as "package_name" rather than the Go field name:
//
//	if errs := validation.ValidateStruct(&app); errs != nil {
//	    logging.Warn().Strs("fields", errs.Fields()).Msg("Repaired invalid inventory record")
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CodeValidation is the API error code for validation failures.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// packageNamePattern accepts dotted identifiers such as com.example.app.
var packageNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Errors is the set of rules a value failed, in field order.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e))
	for i := range e {
		messages[i] = e[i].Message
	}
	return strings.Join(messages, "; ")
}

// Fields returns the names of the failing fields.
func (e Errors) Fields() []string {
	names := make([]string, len(e))
	for i := range e {
		names[i] = e[i].Field
	}
	return names
}

// APIError mirrors models.APIError so this package stays import-free of models.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts e into the API error body. A single failure carries
// field, tag and value; several failures are listed under "fields".
func (e Errors) ToAPIError() *APIError {
	switch len(e) {
	case 0:
		return &APIError{Code: CodeValidation, Message: "Validation failed"}
	case 1:
		return &APIError{
			Code:    CodeValidation,
			Message: e[0].Message,
			Details: map[string]interface{}{
				"field": e[0].Field,
				"tag":   e[0].Tag,
				"value": e[0].Value,
			},
		}
	}

	fields := make([]map[string]interface{}, len(e))
	for i := range e {
		fields[i] = map[string]interface{}{
			"field":   e[i].Field,
			"tag":     e[i].Tag,
			"message": e[i].Message,
		}
	}
	return &APIError{
		Code:    CodeValidation,
		Message: e.Error(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("pkgname", func(fl validator.FieldLevel) bool {
			return ValidPackageName(fl.Field().String())
		})
	})
	return validate
}

// jsonFieldName reports the json name of a field; an empty result makes
// the validator fall back to the Go name.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// ValidPackageName reports whether s is a well-formed package identifier.
func ValidPackageName(s string) bool {
	return packageNamePattern.MatchString(s)
}

// ValidateStruct validates s and returns nil when every rule passes.
func ValidateStruct(s interface{}) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: message(fe),
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "pkgname":
		return field + " must be a dotted package identifier"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
