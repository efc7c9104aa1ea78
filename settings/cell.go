package settings

import (
	"sync"
)

// Cell holds the current Documents snapshot and swaps it atomically.
// Cell is safe for concurrent use.
type Cell struct {
	mu   sync.RWMutex
	dir  *Dir
	docs Documents
}

// NewCell loads the documents from dir.
func NewCell(dir *Dir) (*Cell, error) {
	docs, err := dir.Load()
	if err != nil {
		return nil, err
	}
	return &Cell{dir: dir, docs: docs}, nil
}

// NewStaticCell returns a cell over fixed documents with no backing
// directory. Reload is a no-op.
func NewStaticCell(docs Documents) *Cell {
	return &Cell{docs: docs}
}

// Dir returns the backing directory, or nil for a static cell.
func (c *Cell) Dir() *Dir {
	return c.dir
}

// Load returns the current snapshot.
func (c *Cell) Load() Documents {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs
}

// Swap replaces one document in the current snapshot.
func (c *Cell) Swap(name, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs, err := c.docs.With(name, content)
	if err != nil {
		return err
	}
	c.docs = docs
	return nil
}

// Reload re-reads every document from disk. On error the current snapshot
// is kept.
func (c *Cell) Reload() error {
	if c.dir == nil {
		return nil
	}
	docs, err := c.dir.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.docs = docs
	c.mu.Unlock()
	return nil
}
