package lifecycle

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// CheckFunc reports a subsystem's health. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Coordinator manages startup and shutdown hooks for the application lifecycle.
// Named checks registered with AddCheck extend readiness beyond startup completion.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	startupWg  sync.WaitGroup
	shutdownWg sync.WaitGroup
	ready      bool
	readyMu    sync.RWMutex
	checks     map[string]CheckFunc
	checksMu   sync.RWMutex
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		checks: make(map[string]CheckFunc),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a function to run concurrently during startup.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers a function to run concurrently during shutdown.
// Shutdown hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// AddCheck registers a named health check consulted by Check.
// Registering an existing name replaces the previous check.
func (c *Coordinator) AddCheck(name string, fn CheckFunc) {
	c.checksMu.Lock()
	defer c.checksMu.Unlock()
	c.checks[name] = fn
}

// Check runs every registered check and returns the failures keyed by name.
// An empty map means all checks passed.
func (c *Coordinator) Check(ctx context.Context) map[string]string {
	c.checksMu.RLock()
	names := slices.Sorted(maps.Keys(c.checks))
	checks := make([]CheckFunc, len(names))
	for i, name := range names {
		checks[i] = c.checks[name]
	}
	c.checksMu.RUnlock()

	failures := make(map[string]string)
	for i, fn := range checks {
		if err := fn(ctx); err != nil {
			failures[names[i]] = err.Error()
		}
	}
	return failures
}

// Ready returns true after all startup hooks have completed.
func (c *Coordinator) Ready() bool {
	c.readyMu.RLock()
	defer c.readyMu.RUnlock()
	return c.ready
}

// WaitForStartup blocks until all startup hooks have completed and sets the ready flag.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.readyMu.Lock()
	c.ready = true
	c.readyMu.Unlock()
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
