// Package apperrors defines the error taxonomy shared across tabletalk.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrUnsupportedFileFormat = errors.New("unsupported file format")
	ErrFileTooLarge          = errors.New("file too large")
)

// UnknownToolError is returned when a tool name is not registered.
// It always carries the list of valid names so the caller (usually the
// LLM) can self-correct.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q, available tools: %s", e.Name, strings.Join(e.Available, ", "))
}

// DuplicateToolError is returned when a tool name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

func (e *DuplicateToolError) Unwrap() error { return ErrConflict }

// MissingParameterError is returned when a required tool parameter is
// absent from the arguments.
type MissingParameterError struct {
	Tool      string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("tool %q: missing required parameter %q", e.Tool, e.Parameter)
}

// InvalidParameterError is returned when an argument fails validation
// against the tool's declared parameter schema.
type InvalidParameterError struct {
	Tool      string
	Parameter string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("tool %q: invalid parameter %q: %s", e.Tool, e.Parameter, e.Reason)
}

// UnknownFileError is returned when a referenced file name does not
// exist in the metadata store. Known lists the files that do, so the
// response stays actionable.
type UnknownFileError struct {
	Name  string
	Known []string
}

func (e *UnknownFileError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("file %q not found in metadata store (store is empty, scan a directory first)", e.Name)
	}
	return fmt.Sprintf("file %q not found in metadata store, known files: %s", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownFileError) Unwrap() error { return ErrNotFound }
