package nn

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Factory builds a layer of one kind from its serialized version and
// hyperparameters. Weights are initialized; loaders overwrite them.
type Factory func(version int, hyper map[string]float64) (Layer, error)

// Registry maps layer kinds to factories.
//
// Build a registry once at startup; it is read-only afterwards and safe for
// concurrent Build calls.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind string, f Factory) error {
	if _, ok := r.factories[kind]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, kind)
	}
	r.factories[kind] = f
	return nil
}

// Build constructs a layer of the given kind and version.
func (r *Registry) Build(kind string, version int, hyper map[string]float64) (Layer, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayerKind, kind)
	}
	return f(version, hyper)
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// StandardRegistry returns a registry with every built-in layer kind.
// rng seeds the initial weights of built layers.
func StandardRegistry(rng *rand.Rand) *Registry {
	r := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register(KindDense, func(version int, h map[string]float64) (Layer, error) {
		if err := checkVersion(KindDense, version, 1); err != nil {
			return nil, err
		}
		var cfg DenseConfig
		if err := readInts(h, map[string]*int{"in": &cfg.In, "out": &cfg.Out, "max_seq_len": &cfg.MaxSeqLen}); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Erase[*DenseSnapshot](NewDense(cfg, rng)), nil
	}))
	must(r.Register(KindRMSNorm, func(version int, h map[string]float64) (Layer, error) {
		if err := checkVersion(KindRMSNorm, version, 1); err != nil {
			return nil, err
		}
		var cfg RMSNormConfig
		if err := readInts(h, map[string]*int{"dim": &cfg.Dim, "max_seq_len": &cfg.MaxSeqLen}); err != nil {
			return nil, err
		}
		if eps, ok := h["epsilon"]; ok {
			if eps <= 0 {
				return nil, fmt.Errorf("%w: %s epsilon must be positive, got %v", ErrInvalidHyperparameter, KindRMSNorm, eps)
			}
			cfg.Epsilon = float32(eps)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Erase[*RMSNormSnapshot](NewRMSNorm(cfg)), nil
	}))
	must(r.Register(KindSiLU, func(version int, h map[string]float64) (Layer, error) {
		if err := checkVersion(KindSiLU, version, 1); err != nil {
			return nil, err
		}
		var cfg SiLUConfig
		if err := readInts(h, map[string]*int{"dim": &cfg.Dim, "max_seq_len": &cfg.MaxSeqLen}); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Erase[*SiLUSnapshot](NewSiLU(cfg)), nil
	}))
	must(r.Register(KindScalarSSM, func(version int, h map[string]float64) (Layer, error) {
		if err := checkVersion(KindScalarSSM, version, 1); err != nil {
			return nil, err
		}
		var cfg ScalarSSMConfig
		if err := readInts(h, map[string]*int{"state_size": &cfg.StateSize, "max_seq_len": &cfg.MaxSeqLen}); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Erase[*ScalarSSMSnapshot](NewScalarSSM(cfg, rng)), nil
	}))
	must(r.Register(KindSelectiveSSM, func(version int, h map[string]float64) (Layer, error) {
		if err := checkVersion(KindSelectiveSSM, version, 1); err != nil {
			return nil, err
		}
		var cfg SelectiveSSMConfig
		if err := readInts(h, map[string]*int{
			"model_dim":   &cfg.ModelDim,
			"state_size":  &cfg.StateSize,
			"max_seq_len": &cfg.MaxSeqLen,
		}); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Erase[*SelectiveSSMSnapshot](NewSelectiveSSM(cfg, rng)), nil
	}))
	return r
}

func checkVersion(kind string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s v%d (supported: v%d)", ErrUnsupportedVersion, kind, got, want)
	}
	return nil
}

func readInts(h map[string]float64, dst map[string]*int) error {
	for name, p := range dst {
		v, err := intHyper(h, name)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
