package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/martinsuchenak/labeld/internal/model"
)

// ErrNotFound is returned when a display name does not resolve to a live printer
var ErrNotFound = errors.New("printer not found")

// Handle binds a display name to a printer endpoint. It holds no connection;
// each print opens and closes its own transport.
type Handle struct {
	PrinterID   string
	DisplayName string
	Model       string
	Address     string
	Port        int
}

// NewHandle builds a handle for a live printer record
func NewHandle(displayName string, p model.Printer) *Handle {
	return &Handle{
		PrinterID:   p.ID,
		DisplayName: displayName,
		Model:       p.Model,
		Address:     p.Address,
		Port:        p.Port,
	}
}

// Endpoint returns the transport endpoint for the handle
func (h *Handle) Endpoint() string {
	return model.Endpoint(h.Address, h.Port)
}

// Resolver maps a display name to the live printer bound to it
type Resolver func(displayName string) (model.Printer, bool)

// Cache maps display names to session handles
type Cache struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{handles: make(map[string]*Handle)}
}

// GetOrCreate returns the cached handle for displayName, creating it through
// resolve on a miss. Nothing is cached when resolution fails.
func (c *Cache) GetOrCreate(displayName string, resolve Resolver) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.handles[displayName]; ok {
		return h, nil
	}

	if resolve == nil {
		return nil, fmt.Errorf("%s: %w", displayName, ErrNotFound)
	}
	p, ok := resolve(displayName)
	if !ok {
		return nil, fmt.Errorf("%s: %w", displayName, ErrNotFound)
	}

	h := NewHandle(displayName, p)
	c.handles[displayName] = h
	return h, nil
}

// Get returns a cached handle without resolving
func (c *Cache) Get(displayName string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.handles[displayName]
	return h, ok
}

// Rename moves a cached handle from oldName to newName in one step
func (c *Cache) Rename(oldName, newName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.handles[oldName]
	if !ok {
		return
	}
	delete(c.handles, oldName)
	moved := *h
	moved.DisplayName = newName
	c.handles[newName] = &moved
}

// Evict drops the handle cached under displayName
func (c *Cache) Evict(displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handles, displayName)
}

// Len returns the number of cached handles
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}
