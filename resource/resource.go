// SPDX-License-Identifier: MIT

// Package resource accounts the native allocations a factorization engine
// makes on behalf of a factorization artifact.
//
// The engines in this module are pure Go, yet the solving contract treats
// their symbolic and numeric structures as native resources: acquired while
// factoring, owned by the artifact, and released deterministically exactly
// once, on every exit path. A Handle is the receipt for one acquisition;
// Release is idempotent and reports whether it actually released.
//
// Counter is the default Tracker. It keeps live/acquired/released tallies
// (the leak check of the validation harness reads them) and can enforce a
// byte ceiling to simulate allocator exhaustion (ErrExhausted).
package resource

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrExhausted is returned when an acquisition would exceed the tracker's
// byte limit. The solver surfaces it as a native-resource failure.
var ErrExhausted = errors.New("resource: native allocation failed")

// Kind labels what a handle stands for.
type Kind string

// Kinds acquired by the engines.
const (
	KindSymbolic Kind = "symbolic"
	KindNumeric  Kind = "numeric"
	KindDense    Kind = "dense"
)

// Tracker hands out handles for native allocations.
type Tracker interface {
	Acquire(kind Kind, bytes int64) (*Handle, error)
}

// Handle is the receipt for one acquisition.
type Handle struct {
	kind    Kind
	bytes   int64
	once    sync.Once
	done    atomic.Bool
	release func(*Handle)
}

// Kind reports what the handle stands for.
func (h *Handle) Kind() Kind { return h.kind }

// Bytes reports the accounted size.
func (h *Handle) Bytes() int64 { return h.bytes }

// Released reports whether Release already ran.
func (h *Handle) Released() bool { return h != nil && h.done.Load() }

// Release returns the allocation to its tracker. Only the first call has an
// effect; it reports true for that call. A nil handle is a no-op.
func (h *Handle) Release() bool {
	if h == nil {
		return false
	}
	released := false
	h.once.Do(func() {
		h.done.Store(true)
		if h.release != nil {
			h.release(h)
		}
		released = true
	})

	return released
}

// Counter is a Tracker with atomic tallies and an optional byte limit.
// Safe for concurrent use.
type Counter struct {
	limit     int64 // 0 means unlimited
	live      atomic.Int64
	liveBytes atomic.Int64
	acquired  atomic.Int64
	released  atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex // serializes the limit check with the reservation
}

// Option configures a Counter.
type Option func(*Counter)

// WithLimit caps the live bytes a Counter accepts.
// Panics on a negative limit (programmer error).
func WithLimit(bytes int64) Option {
	if bytes < 0 {
		panic("resource: WithLimit: limit must be non-negative")
	}

	return func(c *Counter) { c.limit = bytes }
}

// NewCounter returns an unlimited Counter unless WithLimit is given.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{}
	for _, set := range opts {
		set(c)
	}

	return c
}

// Acquire reserves bytes of the given kind.
func (c *Counter) Acquire(kind Kind, bytes int64) (*Handle, error) {
	if bytes < 0 {
		bytes = 0
	}
	c.mu.Lock()
	if c.limit > 0 && c.liveBytes.Load()+bytes > c.limit {
		c.mu.Unlock()
		c.failed.Add(1)
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d of %d in use",
			ErrExhausted, kind, bytes, c.liveBytes.Load(), c.limit)
	}
	c.liveBytes.Add(bytes)
	c.mu.Unlock()

	c.live.Add(1)
	c.acquired.Add(1)

	return &Handle{kind: kind, bytes: bytes, release: c.free}, nil
}

func (c *Counter) free(h *Handle) {
	c.liveBytes.Add(-h.bytes)
	c.live.Add(-1)
	c.released.Add(1)
}

// Live reports the number of unreleased handles.
func (c *Counter) Live() int64 { return c.live.Load() }

// LiveBytes reports the bytes held by unreleased handles.
func (c *Counter) LiveBytes() int64 { return c.liveBytes.Load() }

// Acquired reports the total number of successful acquisitions.
func (c *Counter) Acquired() int64 { return c.acquired.Load() }

// Released reports the total number of releases.
func (c *Counter) Released() int64 { return c.released.Load() }

// Failed reports the number of acquisitions rejected by the limit.
func (c *Counter) Failed() int64 { return c.failed.Load() }
