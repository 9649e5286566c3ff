// Package dataflow supplies the streaming-facing wrapper around pkg/index:
// a progress probe that tracks how far a worker's input has advanced, an
// IndexStream pairing an Index with that probe, and an IndexExtender
// adapting an IndexStream to the genericjoin package's extender contract.
package dataflow

import "sync"

// ProbeHandle reports how far a time frontier has advanced. A caller with a
// batch timestamped t must not treat that batch as final until
// LessEqual(t) reports false — i.e. until the frontier has moved past t and
// no more data at or before t can arrive.
type ProbeHandle[T any] struct {
	mu       sync.Mutex
	less     func(a, b T) bool
	frontier T
	has      bool
}

// NewProbeHandle constructs a ProbeHandle with no frontier yet recorded;
// every LessEqual/LessThan call returns true until the first Advance.
func NewProbeHandle[T any](less func(a, b T) bool) *ProbeHandle[T] {
	return &ProbeHandle[T]{less: less}
}

// Advance moves the frontier forward to t. Callers are expected to call
// Advance with a non-decreasing sequence of times; Advance is a no-op if t
// is not strictly after the current frontier.
func (p *ProbeHandle[T]) Advance(t T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.has || p.less(p.frontier, t) {
		p.frontier = t
		p.has = true
	}
}

// LessEqual reports whether the frontier is still at or before t, meaning
// data timestamped t may not have fully arrived yet.
func (p *ProbeHandle[T]) LessEqual(t T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.has {
		return true
	}

	return !p.less(t, p.frontier)
}

// LessThan reports whether the frontier is still strictly before t.
func (p *ProbeHandle[T]) LessThan(t T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.has {
		return true
	}

	return p.less(p.frontier, t)
}
