package eval

import (
	"context"
	"maps"
	"sync"
)

// maxSettleDepth bounds recursion into nested context values.
const maxSettleDepth = 32

// Future is a value that becomes available asynchronously.
type Future interface {
	// Poll returns the settled value. ok is false while the future is
	// pending. A rejected future reports ok with a nil value.
	Poll() (value any, ok bool)
}

// Promise is a [Future] settled exactly once by Resolve or Reject.
//
// The zero value is not usable; create promises with [NewPromise].
type Promise struct {
	value any
	err   error
	done  chan struct{}
	mu    sync.Mutex
}

// NewPromise returns a pending promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved returns a promise already fulfilled with value.
func Resolved(value any) *Promise {
	p := NewPromise()
	p.Resolve(value)

	return p
}

// Rejected returns a promise already rejected with err.
func Rejected(err error) *Promise {
	p := NewPromise()
	p.Reject(err)

	return p
}

// Resolve fulfills p with value. It reports false if p was already settled.
func (p *Promise) Resolve(value any) bool {
	return p.settle(value, nil)
}

// Reject rejects p with err. It reports false if p was already settled.
func (p *Promise) Reject(err error) bool {
	return p.settle(nil, err)
}

func (p *Promise) settle(value any, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-p.done:
		return false
	default:
	}

	p.value, p.err = value, err
	close(p.done)

	return true
}

// Done returns a channel closed once p is settled.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Poll implements [Future]. A nil promise is settled with a nil value.
func (p *Promise) Poll() (any, bool) {
	if p == nil {
		return nil, true
	}

	select {
	case <-p.done:
	default:
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, true
	}

	return p.value, true
}

// Wait blocks until p settles or ctx is done.
func (p *Promise) Wait(ctx context.Context) (any, error) {
	if p == nil {
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value, p.err
}

// MarshalJSON renders a promise as an empty object.
func (p *Promise) MarshalJSON() ([]byte, error) {
	return []byte("{}"), nil
}

// settler replaces futures found in a value with their settled values.
// Maps and slices are copied only when something inside them changes.
type settler struct {
	found func()
}

func (s *settler) settle(v any, depth int) (any, bool) {
	if depth > maxSettleDepth {
		return v, false
	}

	switch t := v.(type) {
	case Future:
		if s.found != nil {
			s.found()
		}

		value, ok := t.Poll()
		if !ok {
			return nil, true
		}

		value, _ = s.settle(value, depth+1)

		return value, true

	case map[string]any:
		var out map[string]any

		for k, e := range t {
			r, changed := s.settle(e, depth+1)
			if !changed {
				continue
			}

			if out == nil {
				out = maps.Clone(t)
			}

			out[k] = r
		}

		if out == nil {
			return t, false
		}

		return out, true

	case []any:
		var out []any

		for i, e := range t {
			r, changed := s.settle(e, depth+1)
			if !changed {
				continue
			}

			if out == nil {
				out = append([]any(nil), t...)
			}

			out[i] = r
		}

		if out == nil {
			return t, false
		}

		return out, true
	}

	return v, false
}
