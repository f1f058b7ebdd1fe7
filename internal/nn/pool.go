package nn

import (
	"fmt"
	"sync"
)

// Pool recycles snapshots and gradient accumulators per layer.
//
// Rented gradient accumulators are always all-zero. Every snapshot is
// stamped with the layer that issued it and may only be returned to that
// layer. Pool is safe for concurrent use; workers rent once per batch, so
// the lock is not on the per-sample path.
type Pool struct {
	mu        sync.Mutex
	snapshots map[Layer][]Snapshot
	issuer    map[Snapshot]Layer
	grads     map[Layer][]*Gradients
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		snapshots: make(map[Layer][]Snapshot),
		issuer:    make(map[Snapshot]Layer),
		grads:     make(map[Layer][]*Gradients),
	}
}

// RentSnapshot returns a pooled snapshot for l or allocates a new one.
func (p *Pool) RentSnapshot(l Layer) Snapshot {
	p.mu.Lock()
	free := p.snapshots[l]
	if n := len(free); n > 0 {
		s := free[n-1]
		p.snapshots[l] = free[:n-1]
		p.mu.Unlock()
		return s
	}
	p.mu.Unlock()

	s := l.NewSnapshot()
	p.mu.Lock()
	p.issuer[s] = l
	p.mu.Unlock()
	return s
}

// ReturnSnapshot gives s back to the pool. Panics with ErrForeignObject if
// s was not rented from this pool for l.
func (p *Pool) ReturnSnapshot(l Layer, s Snapshot) {
	if !l.owns(s) {
		panic(fmt.Errorf("%w: %T returned to %s layer", ErrForeignObject, s, l.Kind()))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if issuer, ok := p.issuer[s]; !ok || issuer != l {
		panic(fmt.Errorf("%w: %s snapshot was not rented for this layer", ErrForeignObject, l.Kind()))
	}
	p.snapshots[l] = append(p.snapshots[l], s)
}

// RentGradients returns an all-zero accumulator for l.
func (p *Pool) RentGradients(l Layer) *Gradients {
	p.mu.Lock()
	free := p.grads[l]
	if n := len(free); n > 0 {
		g := free[n-1]
		p.grads[l] = free[:n-1]
		p.mu.Unlock()
		return g
	}
	p.mu.Unlock()
	return NewGradients(l)
}

// ReturnGradients zeroes g and gives it back to the pool. Panics with
// ErrForeignObject if g belongs to another layer.
func (p *Pool) ReturnGradients(l Layer, g *Gradients) {
	if g.owner != Spec(l) {
		panic(fmt.Errorf("%w: %s gradients returned to %s layer", ErrForeignObject, g.owner.Kind(), l.Kind()))
	}
	g.Zero()
	p.mu.Lock()
	p.grads[l] = append(p.grads[l], g)
	p.mu.Unlock()
}
