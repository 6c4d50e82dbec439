// Package validation checks user-supplied paths and inputs before the
// conversion pipeline touches them: path sanity, part-name rules for
// package archives, and input-kind sniffing.
package validation

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode"
)

// Limits on user-supplied inputs.
const (
	// MaxPackageSize is the maximum allowed package size (256 MB).
	MaxPackageSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
	// MaxPartNameLength is the maximum allowed part name length.
	MaxPartNameLength = 1024
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrInvalidPartName  = errors.New("invalid part name")
	ErrPackageTooLarge  = errors.New("package exceeds maximum size")
)

// ValidatePath checks a filesystem path for length and control
// characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) && r != '\t' {
			return ErrInvalidCharacter
		}
	}
	return nil
}

// ValidatePackageSize rejects packages larger than MaxPackageSize
// before they are read into memory.
func ValidatePackageSize(size int64) error {
	if size > MaxPackageSize {
		return ErrPackageTooLarge
	}
	return nil
}

// ValidatePartName checks an archive part name: relative, forward
// slashes, no traversal, printable characters.
func ValidatePartName(name string) error {
	if name == "" || len(name) > MaxPartNameLength {
		return ErrInvalidPartName
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return ErrInvalidPartName
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrPathTraversal
		}
	}
	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return ErrInvalidCharacter
		}
	}
	return nil
}

// InputKind classifies a conversion input.
type InputKind string

// Recognized input kinds.
const (
	KindPackage InputKind = "package"
	KindMarkup  InputKind = "markup"
	KindUnknown InputKind = "unknown"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DetectInput sniffs the input kind from content: ZIP packages by
// magic number, markup by being plausible text.
func DetectInput(r io.Reader) (InputKind, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return KindUnknown, err
	}
	buf = buf[:n]

	if bytes.HasPrefix(buf, zipMagic) {
		return KindPackage, nil
	}
	if isLikelyText(buf) {
		return KindMarkup, nil
	}
	return KindUnknown, nil
}

// isLikelyText reports whether the sample looks like UTF-8 text rather
// than binary data.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	binary := 0
	for _, b := range buf {
		if b == 0 {
			return false
		}
		if b < 0x09 || (b > 0x0d && b < 0x20) {
			binary++
		}
	}
	return binary*20 < len(buf)
}
