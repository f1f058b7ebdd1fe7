package nn

import "errors"

// Sentinel errors.
var (
	// ErrForeignSnapshot is raised (as a panic) when a layer receives a
	// snapshot created by a layer of another type.
	ErrForeignSnapshot = errors.New("nn: snapshot belongs to a different layer type")

	// ErrForeignObject is raised (as a panic) when a pooled object is
	// returned under a layer that does not own it.
	ErrForeignObject = errors.New("nn: pooled object returned to the wrong layer")

	// ErrSequenceLength is raised (as a panic) when an input has zero rows
	// or more rows than the layer's MaxSeqLen.
	ErrSequenceLength = errors.New("nn: sequence length out of range")

	// ErrUnknownLayerKind is returned when the registry has no factory for a kind.
	ErrUnknownLayerKind = errors.New("nn: unknown layer kind")

	// ErrUnsupportedVersion is returned when a factory cannot build the requested version.
	ErrUnsupportedVersion = errors.New("nn: unsupported layer version")

	// ErrDuplicateKind is returned when a kind is registered twice.
	ErrDuplicateKind = errors.New("nn: layer kind already registered")

	// ErrInvalidHyperparameter is returned for missing or out-of-range hyperparameters.
	ErrInvalidHyperparameter = errors.New("nn: invalid hyperparameter")
)
