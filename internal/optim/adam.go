package optim

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/mambatrain/internal/nn"
	"github.com/born-ml/mambatrain/internal/parallel"
	"github.com/born-ml/mambatrain/internal/tensor"
)

// DefaultClipThreshold is the gradient clip used when AdamConfig leaves it zero.
const DefaultClipThreshold = 100000

// minParallelElements is the smallest weight whose update is split across
// goroutines.
const minParallelElements = 1 << 14

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule, per element, after averaging and clipping the gradient:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The timestep t is shared by every weight and advances once per Apply.
// When the largest averaged gradient element of a tensor exceeds the clip
// threshold, the whole tensor is scaled down so that element equals it.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
	clip  float32
	t     int                     // Timestep for bias correction
	state map[*nn.Weight]*moments // Lazily allocated per weight
	par   parallel.Config
}

type moments struct {
	m, v tensor.View
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR            float32    // Learning rate (default: 0.001)
	Betas         [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps           float32    // Term for numerical stability (default: 1e-8)
	ClipThreshold float32    // Max |gradient| element (default: 100000, negative disables)
}

// NewAdam creates a new Adam optimizer, filling zero config fields with
// defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.ClipThreshold == 0 {
		config.ClipThreshold = DefaultClipThreshold
	}

	par := parallel.DefaultConfig()
	par.MinChunkSize = minParallelElements

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		clip:  config.ClipThreshold,
		state: make(map[*nn.Weight]*moments),
		par:   par,
	}
}

// Apply performs a single optimization step using Adam algorithm.
func (a *Adam) Apply(layers []nn.Layer, grads []*nn.Gradients, batchSize int) {
	a.t++

	biasCorrection1 := 1 - math32.Pow(a.beta1, float32(a.t))
	biasCorrection2 := 1 - math32.Pow(a.beta2, float32(a.t))

	forEachWeight(layers, grads, func(_ int, w *nn.Weight, g tensor.View) {
		mo := a.moments(w)
		scale := gradScale(g, batchSize, a.clip)

		gradData := g.Data()
		mData := mo.m.Data()
		vData := mo.v.Data()
		paramData := w.Value.Data()
		// Elements update independently; large weights are split across goroutines.
		parallel.For(len(paramData), func(i int) {
			gi := gradData[i] * scale
			mData[i] = a.beta1*mData[i] + (1-a.beta1)*gi
			vData[i] = a.beta2*vData[i] + (1-a.beta2)*gi*gi
			mHat := mData[i] / biasCorrection1
			vHat := vData[i] / biasCorrection2
			paramData[i] -= a.lr * mHat / (math32.Sqrt(vHat) + a.eps)
		}, a.par)
	})
}

func (a *Adam) moments(w *nn.Weight) *moments {
	mo, ok := a.state[w]
	if !ok {
		mo = &moments{m: tensor.Like(w.Value), v: tensor.Like(w.Value)}
		a.state[w] = mo
	}
	return mo
}

// Iteration returns the current timestep.
func (a *Adam) Iteration() int {
	return a.t
}

// LR returns the current learning rate.
func (a *Adam) LR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// StateDict exports the timestep and the moment buffers of weights under
// the keys "m.<i>" and "v.<i>". Weights that have not been updated yet are
// omitted.
func (a *Adam) StateDict(weights []*nn.Weight) State {
	s := State{Iteration: a.t, Buffers: make(map[string][]float32)}
	for i, w := range weights {
		mo, ok := a.state[w]
		if !ok {
			continue
		}
		s.Buffers[bufferKey("m", i)] = append([]float32(nil), mo.m.Data()...)
		s.Buffers[bufferKey("v", i)] = append([]float32(nil), mo.v.Data()...)
	}
	return s
}

// LoadStateDict restores a state exported by StateDict for the same weights.
func (a *Adam) LoadStateDict(weights []*nn.Weight, s State) error {
	for key := range s.Buffers {
		name, idx, ok := parseKey(key)
		if !ok || (name != "m" && name != "v") || idx >= len(weights) {
			return fmt.Errorf("%w: unexpected buffer %q", ErrStateMismatch, key)
		}
	}
	for i, w := range weights {
		m, okM := s.Buffers[bufferKey("m", i)]
		v, okV := s.Buffers[bufferKey("v", i)]
		if !okM && !okV {
			delete(a.state, w)
			continue
		}
		if !okM || !okV || len(m) != w.Value.Len() || len(v) != w.Value.Len() {
			return fmt.Errorf("%w: moments of weight %d (%s)", ErrStateMismatch, i, w.Name)
		}
		mo := a.moments(w)
		copy(mo.m.Data(), m)
		copy(mo.v.Data(), v)
	}
	a.t = s.Iteration
	return nil
}
