// Package errors provides standardized error types and helpers for the DocLoom codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrMissingPart indicates a required package part is absent
	ErrMissingPart = errors.New("missing part")
	// ErrMalformed indicates content that could not be parsed
	ErrMalformed = errors.New("malformed content")
	// ErrStyleNotFound indicates a style id with no definition
	ErrStyleNotFound = errors.New("style not found")
	// ErrManifestMismatch indicates a manifest entry that does not match its reference
	ErrManifestMismatch = errors.New("manifest mismatch")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
)

// ArchiveError represents a failure to open or read a package container.
// Archive errors are hard failures: the conversion cannot proceed.
type ArchiveError struct {
	Operation string // Operation being performed (e.g., "open", "read", "write")
	Path      string // Archive path or part name involved
	Err       error  // Underlying error
}

func (e *ArchiveError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("archive: failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("archive: failed to %s: %v", e.Operation, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// MissingPartError represents a required package part that is absent.
type MissingPartError struct {
	Part string // Part name (e.g., "word/document.xml")
	Err  error  // Underlying error, if any
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("missing part: %s", e.Part)
}

func (e *MissingPartError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMissingPart
}

// MalformedContentError represents unparseable part content. The offset,
// when known, is the byte position in the part where parsing failed.
type MalformedContentError struct {
	Part    string // Part name being parsed
	Offset  int64  // Byte offset of the failure, -1 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *MalformedContentError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed content in %s at byte %d: %s", e.Part, e.Offset, e.Message)
	}
	return fmt.Sprintf("malformed content in %s: %s", e.Part, e.Message)
}

func (e *MalformedContentError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformed
}

// WriteAssemblyError represents a failure while assembling an output
// package. Assembly is all-or-nothing: no partial package is produced.
type WriteAssemblyError struct {
	Stage   string // Assembly stage (e.g., "document.xml", "relationships", "zip")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *WriteAssemblyError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("write assembly failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("write assembly failed: %s", e.Message)
}

func (e *WriteAssemblyError) Unwrap() error {
	return e.Err
}

// UnsupportedError represents an unsupported feature or format
type UnsupportedError struct {
	Feature string // Feature or format that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// Helper functions for creating common errors

// NewArchive creates an ArchiveError
func NewArchive(operation, path string, err error) *ArchiveError {
	return &ArchiveError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewMissingPart creates a MissingPartError
func NewMissingPart(part string) *MissingPartError {
	return &MissingPartError{Part: part}
}

// NewMalformed creates a MalformedContentError
func NewMalformed(part string, offset int64, message string) *MalformedContentError {
	return &MalformedContentError{
		Part:    part,
		Offset:  offset,
		Message: message,
	}
}

// NewWriteAssembly creates a WriteAssemblyError
func NewWriteAssembly(stage, message string, err error) *WriteAssemblyError {
	return &WriteAssemblyError{
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
