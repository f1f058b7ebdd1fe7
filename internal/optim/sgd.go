package optim

import (
	"fmt"

	"github.com/born-ml/mambatrain/internal/backend/cpu"
	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Gradients are averaged over the batch before use.
type SGD struct {
	lr         float32
	momentum   float32
	t          int
	velocities map[*nn.Weight]tensor.View
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Weight]tensor.View),
	}
}

// Apply performs a single optimization step.
func (s *SGD) Apply(layers []nn.Layer, grads []*nn.Gradients, batchSize int) {
	s.t++
	forEachWeight(layers, grads, func(_ int, w *nn.Weight, g tensor.View) {
		scale := gradScale(g, batchSize, 0)
		if s.momentum == 0 {
			cpu.AddScaledInPlace(w.Value, g, -s.lr*scale)
			return
		}

		velocity, ok := s.velocities[w]
		if !ok {
			velocity = tensor.Like(w.Value)
			s.velocities[w] = velocity
		}
		cpu.ScaleInPlace(velocity, s.momentum)
		cpu.AddScaledInPlace(velocity, g, scale)
		cpu.AddScaledInPlace(w.Value, velocity, -s.lr)
	})
}

// Iteration returns the number of steps taken.
func (s *SGD) Iteration() int {
	return s.t
}

// LR returns the current learning rate.
func (s *SGD) LR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum, this exports velocity buffers under
// "velocity.<i>". Without momentum the buffer map is empty.
func (s *SGD) StateDict(weights []*nn.Weight) State {
	st := State{Iteration: s.t, Buffers: make(map[string][]float32)}
	if s.momentum == 0 {
		return st
	}
	for i, w := range weights {
		velocity, ok := s.velocities[w]
		if !ok {
			continue // No velocity yet (hasn't been used in training)
		}
		st.Buffers[bufferKey("velocity", i)] = append([]float32(nil), velocity.Data()...)
	}
	return st
}

// LoadStateDict restores velocity buffers exported by StateDict.
func (s *SGD) LoadStateDict(weights []*nn.Weight, st State) error {
	for key, data := range st.Buffers {
		name, idx, ok := parseKey(key)
		if !ok || name != "velocity" || idx >= len(weights) {
			return fmt.Errorf("%w: unexpected buffer %q", ErrStateMismatch, key)
		}
		w := weights[idx]
		if len(data) != w.Value.Len() {
			return fmt.Errorf("%w: velocity of weight %d (%s) has %d elements, want %d",
				ErrStateMismatch, idx, w.Name, len(data), w.Value.Len())
		}
		velocity, ok := s.velocities[w]
		if !ok {
			velocity = tensor.Like(w.Value)
			s.velocities[w] = velocity
		}
		copy(velocity.Data(), data)
	}
	s.t = st.Iteration
	return nil
}
