package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
	Texts Texts // Error per locale, optional
}

// NewFieldError builds a FieldError whose message can be rendered in the request language.
func NewFieldError(field string, texts Texts) FieldError {
	return FieldError{Field: field, Error: texts.For("en"), Texts: texts}
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// FieldMap flattens the field errors into {field: message}.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		m[fErr.Field] = fErr.Error
	}
	return m
}

// LocalizedFieldMap is FieldMap with the messages in locale, when a translation exists.
func (err ValidationError) LocalizedFieldMap(locale string) map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		if fErr.Texts != nil {
			m[fErr.Field] = fErr.Texts.For(locale)
		} else {
			m[fErr.Field] = fErr.Error
		}
	}
	return m
}

// NotFoundError reports a missing resource (activity, student, ...).
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
