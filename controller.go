package fuzzyctl

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Controller serves evaluations from a swappable engine.
//
// The whole immutable configuration is replaced at once: readers load the
// current *Engine and run on it to completion, and writers publish a
// freshly built engine. Nothing is ever mutated in place.
type Controller struct {
	engine atomic.Pointer[Engine]
	opts   []Option
}

// NewController starts serving e. Options are applied to engines built by
// Reload. A nil e is allowed; Evaluate fails with ErrNoEngine until Swap or
// Reload installs one.
func NewController(e *Engine, opts ...Option) *Controller {
	c := &Controller{opts: opts}
	if e != nil {
		c.engine.Store(e)
	}
	return c
}

// Engine returns the engine currently in service.
func (c *Controller) Engine() *Engine { return c.engine.Load() }

// Swap installs e and returns the previous engine, which is nil if none was
// loaded. A nil e is ignored.
func (c *Controller) Swap(e *Engine) *Engine {
	if e == nil {
		return c.engine.Load()
	}
	return c.engine.Swap(e)
}

// Evaluate runs in on the engine in service at the time of the call.
func (c *Controller) Evaluate(in Inputs) (Outputs, error) {
	e := c.engine.Load()
	if e == nil {
		return nil, ErrNoEngine
	}
	return e.Evaluate(in)
}

// Reload decodes a TOML system definition and swaps it in. On any error the
// engine in service is kept.
func (c *Controller) Reload(r io.Reader) error {
	rb, err := LoadSystem(r)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	e, err := NewEngine(rb, c.opts...)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	c.engine.Store(e)
	return nil
}
