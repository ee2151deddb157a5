package stream

import (
	"context"
	"sync"
)

// Cleanup is the temporary-resource registry (§9 "Driver side-effects and
// temporaries"): a stack of cleanup actions run in reverse order of
// acquisition on every exit path, including cancel and panic (§7). The
// zero value is ready to use.
type Cleanup struct {
	mu      sync.Mutex
	actions []func(context.Context) error
}

// Register pushes a cleanup action. Call it once a temporary resource
// (cloud prefix, temp table, local temp dir) has been successfully
// acquired.
func (c *Cleanup) Register(action func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

// Len reports how many cleanup actions are currently registered — tests
// use this to assert the no-leak invariant (§8.5): it must be zero after
// every copy, success or failure.
func (c *Cleanup) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

// RunAll runs every registered action in reverse order, clearing the
// registry as it goes, and returns every error encountered (none of
// which mask each other — per §7, cleanup errors are logged, not
// propagated as the operation's result).
func (c *Cleanup) RunAll(ctx context.Context) []error {
	c.mu.Lock()
	actions := c.actions
	c.actions = nil
	c.mu.Unlock()

	var errs []error
	for i := len(actions) - 1; i >= 0; i-- {
		if err := actions[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
