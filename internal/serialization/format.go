package serialization

import (
	"github.com/google/uuid"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "BORN"
	FormatVersion = 3  // v3: layer records with kind, version and hyperparameters
	ChecksumSize  = 32 // SHA-256 checksum size (32 bytes)
	ModelIDSize   = 16
)

// Header describes a .born file without its weight values.
type Header struct {
	FormatVersion uint32
	ModelID       uuid.UUID
	Layers        []LayerMeta
}

// LayerMeta describes one layer record.
type LayerMeta struct {
	Kind            string
	Version         int
	Hyperparameters []nn.Hyperparameter
	Weights         []WeightMeta
}

// WeightMeta describes one stored weight.
type WeightMeta struct {
	Name  string
	Shape tensor.Shape
}

// NumElements returns the total number of stored weight values.
func (h Header) NumElements() int {
	n := 0
	for _, l := range h.Layers {
		for _, w := range l.Weights {
			n += w.Shape.NumElements()
		}
	}
	return n
}
