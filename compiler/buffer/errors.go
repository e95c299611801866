package buffer

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for buffer failures.
var (
	// ErrFormat indicates malformed block structure.
	ErrFormat = errors.New("grace: buffer format error")
	// ErrFormatter indicates the external formatter failed.
	ErrFormatter = errors.New("grace: formatter failed")
)

// FormatError is returned when blocks are malformed: a missing or
// duplicate tag, an unknown directive or unbalanced markers.
type FormatError struct {
	Tag     string
	Line    int // 1-based line of the offending marker, 0 if unknown
	Message string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("grace: buffer format error")
	if e.Tag != "" {
		fmt.Fprintf(&b, " in block %q", e.Tag)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches the sentinel error for FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewFormatError creates a new FormatError.
func NewFormatError(tag, message string) *FormatError {
	return &FormatError{Tag: tag, Message: message}
}

// FormatterError is returned when the formatter subprocess fails. It
// carries the formatter's stderr and the text it was given.
type FormatterError struct {
	Command string
	Stderr  string
	Input   []byte
	Err     error
}

// Error implements the error interface.
func (e *FormatterError) Error() string {
	msg := "grace: formatter " + e.Command + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *FormatterError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches the sentinel error for FormatterError.
func (e *FormatterError) Is(target error) bool {
	return target == ErrFormatter
}

// IsFormatError reports whether the error is a FormatError.
func IsFormatError(err error) bool {
	var fErr *FormatError
	return errors.As(err, &fErr)
}

// IsFormatterError reports whether the error is a FormatterError.
func IsFormatterError(err error) bool {
	var fErr *FormatterError
	return errors.As(err, &fErr)
}
