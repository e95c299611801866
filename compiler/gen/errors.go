package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrNotFound indicates a relationship end the model should have was absent.
	ErrNotFound = errors.New("grace: model inconsistency")
	// ErrTypeMismatch indicates two types could not be reconciled.
	ErrTypeMismatch = errors.New("grace: type mismatch")
	// ErrUnsupported indicates a type-system case the generator does not handle.
	ErrUnsupported = errors.New("grace: unsupported")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("grace: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("grace: code generation failed")
)

// ModelInconsistencyError is returned when a traversal expected a related
// entity and the model had none.
type ModelInconsistencyError struct {
	Object   string // Object the traversal started from
	Relation string // e.g. "subtype", "referent", "parameter"
	Message  string
}

// Error implements the error interface.
func (e *ModelInconsistencyError) Error() string {
	var b strings.Builder
	b.WriteString("grace: model inconsistency")
	if e.Object != "" {
		b.WriteString(" on object ")
		b.WriteString(e.Object)
	}
	if e.Relation != "" {
		b.WriteString(": missing ")
		b.WriteString(e.Relation)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ModelInconsistencyError.
func (e *ModelInconsistencyError) Is(target error) bool {
	return target == ErrNotFound
}

// NewModelInconsistencyError creates a new ModelInconsistencyError.
func NewModelInconsistencyError(object, relation, message string) *ModelInconsistencyError {
	return &ModelInconsistencyError{
		Object:   object,
		Relation: relation,
		Message:  message,
	}
}

// TypeMismatchError is returned by the type checker when the source
// value cannot be coerced into the target type.
type TypeMismatchError struct {
	Target string
	Source string
	Value  string // name of the value being coerced, if any
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("grace: type mismatch for %s: cannot use %s as %s", e.Value, e.Source, e.Target)
	}
	return fmt.Sprintf("grace: type mismatch: cannot use %s as %s", e.Source, e.Target)
}

// Is reports whether the target matches the sentinel error for TypeMismatchError.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// NewTypeMismatchError creates a new TypeMismatchError.
func NewTypeMismatchError(target, source, value string) *TypeMismatchError {
	return &TypeMismatchError{
		Target: target,
		Source: source,
		Value:  value,
	}
}

// UnsupportedError is returned for type-system cases the generator does
// not know how to render.
type UnsupportedError struct {
	Description string
}

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return "grace: unsupported: " + e.Description
}

// Is reports whether the target matches the sentinel error for UnsupportedError.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// NewUnsupportedError creates a new UnsupportedError.
func NewUnsupportedError(format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Description: fmt.Sprintf(format, args...)}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("grace: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("grace: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "types", "store", "module", "write"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("grace: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsModelInconsistency reports whether the error is a ModelInconsistencyError.
func IsModelInconsistency(err error) bool {
	var mErr *ModelInconsistencyError
	return errors.As(err, &mErr)
}

// IsTypeMismatch reports whether the error is a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tErr *TypeMismatchError
	return errors.As(err, &tErr)
}

// IsUnsupported reports whether the error is an UnsupportedError.
func IsUnsupported(err error) bool {
	var uErr *UnsupportedError
	return errors.As(err, &uErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
