package serialization

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/born-ml/mambatrain/internal/tensor"
)

// Validation limits for security and resource protection. They are checked
// before anything sized by the file is allocated.
const (
	MaxLayers   = 4096    // Maximum number of layers in a file
	MaxEntries  = 1024    // Maximum hyperparameters or weights per layer
	MaxNameLen  = 256     // Maximum kind or name length in bytes
	MaxRank     = 3       // Vector, Matrix or Tensor
	MaxElements = 1 << 28 // Maximum values in one weight (1GiB of float32)
)

// ValidateName checks kind, hyperparameter and weight names.
func ValidateName(name string) error {
	if len(name) == 0 {
		return &ValidationError{Type: "invalid_name", Details: "empty name", Err: ErrInvalidName}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Name:    name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxNameLen),
			Err:     ErrNameTooLong,
		}
	}
	if !utf8.ValidString(name) {
		return &ValidationError{Type: "invalid_name", Name: name, Details: "not valid UTF-8", Err: ErrInvalidName}
	}
	// Prevent null bytes (can bypass length checks in some contexts).
	if strings.ContainsRune(name, 0) {
		return &ValidationError{Type: "invalid_name", Name: name, Details: "contains null byte", Err: ErrInvalidName}
	}
	return nil
}

// ValidateShape checks a stored weight shape and returns its element count.
func ValidateShape(name string, shape tensor.Shape) (int, error) {
	if len(shape) == 0 || len(shape) > MaxRank {
		return 0, &ValidationError{
			Type:    "invalid_shape",
			Name:    name,
			Details: fmt.Sprintf("rank %d not in 1..%d", len(shape), MaxRank),
			Err:     ErrInvalidShape,
		}
	}
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, &ValidationError{
				Type:    "invalid_shape",
				Name:    name,
				Details: fmt.Sprintf("dimension %d in %v", d, shape),
				Err:     ErrInvalidShape,
			}
		}
		// Checked per step so the product cannot overflow.
		if n > MaxElements/d {
			return 0, &ValidationError{
				Type:    "tensor_too_large",
				Name:    name,
				Details: fmt.Sprintf("shape %v exceeds %d elements", shape, MaxElements),
				Err:     ErrTensorTooLarge,
			}
		}
		n *= d
	}
	return n, nil
}

// validateCount checks a record count against its limit.
func validateCount(what string, n int64, limit int, sentinel error) error {
	if n > int64(limit) {
		return &ValidationError{
			Type:    "too_many_" + what,
			Details: fmt.Sprintf("got %d, max %d", n, limit),
			Err:     sentinel,
		}
	}
	return nil
}
