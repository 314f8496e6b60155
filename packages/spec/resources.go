package spec

import (
	"fmt"
	"io"
	"sync"
)

// Base is meant to be embedded in spec types. It supplies no-op
// lifecycle hooks that authors override as needed, and resource
// auto-closing for the after-all sequence.
type Base struct {
	mu      sync.Mutex
	closers []io.Closer
}

func (b *Base) BeforeAll() error  { return nil }
func (b *Base) BeforeEach() error { return nil }
func (b *Base) AfterEach() error  { return nil }
func (b *Base) AfterAll() error   { return nil }

// AutoClose registers a resource for closing by the after-all
// sequence. Resources are closed most-recently-registered first.
func (b *Base) AutoClose(c io.Closer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closers = append(b.closers, c)
}

// CloseResources closes every registered resource exactly once, in
// reverse registration order. All resources are attempted even when
// one fails; the first failure is returned.
func (b *Base) CloseResources() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing resource: %w", err)
		}
	}
	b.closers = nil
	return firstErr
}
