package llm

import (
	"context"
	"fmt"
)

// Gate bounds the number of concurrent LLM calls. Abandoned requests may let
// an in-flight model call run to completion, so without a cap a burst of
// searches could leak an unbounded number of outstanding calls.
type Gate struct {
	sem chan struct{}
}

// NewGate creates a gate allowing at most maxInFlight concurrent calls.
func NewGate(maxInFlight int) *Gate {
	if maxInFlight < 1 {
		maxInFlight = 8
	}
	return &Gate{sem: make(chan struct{}, maxInFlight)}
}

// Acquire takes a slot, blocking until one frees up or the context is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for LLM slot: %w", ctx.Err())
	}
}

// Release returns a slot taken by Acquire.
func (g *Gate) Release() {
	<-g.sem
}

// InFlight returns the number of slots currently held.
func (g *Gate) InFlight() int {
	return len(g.sem)
}
