package provider

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateModel indicates an attempt to register the same model twice.
var ErrDuplicateModel = errors.New("model already registered")

// Catalog maintains the ordered set of model identifiers a capability serves.
// Order is significant: the model listing endpoint derives stable positional
// ids from it.
type Catalog struct {
	mu     sync.RWMutex
	names  []string
	lookup map[string]struct{}
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		lookup: make(map[string]struct{}),
	}
}

// Add appends model names in the given order, rejecting blanks and duplicates.
func (c *Catalog) Add(names ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("model name must not be empty")
		}
		if _, exists := c.lookup[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateModel, name)
		}
		c.lookup[name] = struct{}{}
		c.names = append(c.names, name)
	}
	return nil
}

// Names returns a copy of the registered names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Has reports whether the model is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.lookup[name]
	return ok
}
