package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTooManyLayers      = errors.New("too many layers in file")
	ErrTooManyEntries     = errors.New("too many entries in layer record")
	ErrNameTooLong        = errors.New("name too long")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidShape       = errors.New("invalid weight shape")
	ErrTensorTooLarge     = errors.New("tensor exceeds maximum size")
	ErrWeightMismatch     = errors.New("stored weights do not match layer")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "name_too_long", "invalid_shape")
	Name    string // Name of the string or weight involved
	Details string // Additional details
	Err     error  // Sentinel error, one of the Err* values
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %q: %s", e.Type, e.Name, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FormatError locates a failure inside the layer records.
type FormatError struct {
	Layer int    // Layer index, -1 for the file header
	Kind  string // Layer kind, when known
	Err   error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	switch {
	case e.Layer < 0:
		return fmt.Sprintf("header: %v", e.Err)
	case e.Kind != "":
		return fmt.Sprintf("layer %d (%s): %v", e.Layer, e.Kind, e.Err)
	default:
		return fmt.Sprintf("layer %d: %v", e.Layer, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}
