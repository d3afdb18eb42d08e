package composite

import (
	"errors"
	"fmt"
)

// Error codes carried by ValidationError.
const (
	CodeInvalid       = "invalid"
	CodeMissing       = "missing_attribute"
	CodeExtra         = "extra_value"
	CodeUnknown       = "unknown_attribute"
	CodeBadJSON       = "bad_json"
	CodeWrongType     = "wrong_type"
	CodeValueTooLong  = "value_too_long"
	CodeOutOfRange    = "out_of_range"
	CodeNotComposite  = "not_composite"
	CodeUnregistered  = "unregistered"
	CodeShapeMismatch = "shape_mismatch"
)

// ValidationError reports a value that does not match a descriptor.
type ValidationError struct {
	// Type is the composite type name the value was checked against
	Type string
	// Attribute is the offending attribute, empty when the error concerns the whole value
	Attribute string
	// Code is a machine readable error code (see the Code* constants)
	Code string
	// Message is a human readable description
	Message string
	// Err is the underlying conversion error, if any
	Err error
}

func (e *ValidationError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Type, e.Attribute, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid composite type declaration.
type ConfigurationError struct {
	Type    string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Type == "" {
		return "composite type: " + e.Message
	}
	return fmt.Sprintf("composite type %s: %s", e.Type, e.Message)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}

func validationErrorf(typeName, attr, code, format string, args ...any) *ValidationError {
	return &ValidationError{
		Type:      typeName,
		Attribute: attr,
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
	}
}

// prefixAttribute qualifies a nested validation error with the enclosing attribute.
func prefixAttribute(err error, typeName, attr string) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	out := *verr
	out.Type = typeName
	if out.Attribute == "" {
		out.Attribute = attr
	} else {
		out.Attribute = attr + "." + out.Attribute
	}
	return &out
}
