package session

import (
	"sync"
	"testing"

	"github.com/martinsuchenak/labeld/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticResolver(printers map[string]model.Printer, calls *int) Resolver {
	return func(name string) (model.Printer, bool) {
		if calls != nil {
			*calls++
		}
		p, ok := printers[name]
		return p, ok
	}
}

func TestGetOrCreateCachesHandle(t *testing.T) {
	c := NewCache()
	calls := 0
	resolve := staticResolver(map[string]model.Printer{
		"Office": {ID: "p1", Address: "10.0.0.5", Port: 9100, Model: "QL-800"},
	}, &calls)

	h1, err := c.GetOrCreate("Office", resolve)
	require.NoError(t, err)
	h2, err := c.GetOrCreate("Office", resolve)
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "p1", h1.PrinterID)
	assert.Equal(t, "QL-800", h1.Model)
	assert.Equal(t, "tcp://10.0.0.5:9100", h1.Endpoint())
}

func TestGetOrCreateUnknownDoesNotCache(t *testing.T) {
	c := NewCache()

	_, err := c.GetOrCreate("Nowhere", staticResolver(nil, nil))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetOrCreate("Nowhere", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("Nowhere")
	assert.False(t, ok)
}

func TestRenameMovesHandle(t *testing.T) {
	c := NewCache()
	_, err := c.GetOrCreate("Old", staticResolver(map[string]model.Printer{
		"Old": {ID: "p1", Address: "10.0.0.5", Port: 9100},
	}, nil))
	require.NoError(t, err)

	c.Rename("Old", "New")

	_, ok := c.Get("Old")
	assert.False(t, ok)
	h, ok := c.Get("New")
	require.True(t, ok)
	assert.Equal(t, "New", h.DisplayName)
	assert.Equal(t, "p1", h.PrinterID)

	// Renaming an uncached name is a no-op
	c.Rename("Missing", "Other")
	assert.Equal(t, 1, c.Len())
}

func TestEvict(t *testing.T) {
	c := NewCache()
	_, err := c.GetOrCreate("Office", staticResolver(map[string]model.Printer{"Office": {ID: "p1"}}, nil))
	require.NoError(t, err)

	c.Evict("Office")
	c.Evict("Office")
	assert.Equal(t, 0, c.Len())
}

func TestConcurrentGetOrCreate(t *testing.T) {
	c := NewCache()
	resolve := func(name string) (model.Printer, bool) {
		return model.Printer{ID: name, Address: "10.0.0.1", Port: 9100}, true
	}

	var wg sync.WaitGroup
	handles := make([]*Handle, 32)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.GetOrCreate("Shared", resolve)
			assert.NoError(t, err)
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}
