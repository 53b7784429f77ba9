package errors

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryRegistry  Category = "registry"
	CategoryTransform Category = "transform"
	CategoryCLI       Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// UIKitError is a structured error with an optional source location,
// a suggestion and a documentation link.
type UIKitError struct {
	// Code is a unique error identifier (e.g., "E112").
	Code string

	// Category is the error type (config, registry, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source location where the error occurred.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *UIKitError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *UIKitError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location to the error, reading context lines
// from disk when the file exists.
func (e *UIKitError) WithLocation(file string, line, column int) *UIKitError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSourceLocation adds a location whose context lines come from src
// instead of the filesystem. Used for in-memory sources such as registry
// file contents.
func (e *UIKitError) WithSourceLocation(file string, src []byte, line, column int) *UIKitError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = contextLines(bufio.NewScanner(bytes.NewReader(src)), line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *UIKitError) WithSuggestion(s string) *UIKitError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *UIKitError) WithDetail(d string) *UIKitError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *UIKitError) Wrap(err error) *UIKitError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	return contextLines(bufio.NewScanner(file), targetLine, contextSize)
}

func contextLines(scanner *bufio.Scanner, targetLine, contextSize int) []string {
	var lines []string
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a UIKitError from a registered error code.
func New(code string) *UIKitError {
	template, ok := registry[code]
	if !ok {
		return &UIKitError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &UIKitError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new UIKitError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *UIKitError {
	return &UIKitError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a UIKitError.
func FromError(err error, code string) *UIKitError {
	if err == nil {
		return nil
	}
	var ue *UIKitError
	if stderrors.As(err, &ue) {
		return ue
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err, or any error it wraps, is a UIKitError
// with the given code.
func HasCode(err error, code string) bool {
	var ue *UIKitError
	for err != nil {
		if !stderrors.As(err, &ue) {
			return false
		}
		if ue.Code == code {
			return true
		}
		err = ue.Wrapped
	}
	return false
}
