package inmemdb

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/trezcool/cuaderno/core/planner"
)

// Cache keeps the snapshot JSON in memory, serialized the same way as the SQLite cache.
type Cache struct {
	mu      sync.Mutex
	payload []byte
	Err     error // returned by every call when set
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Load(context.Context) (planner.Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return planner.Snapshot{}, false, c.Err
	}
	if c.payload == nil {
		return planner.Snapshot{}, false, nil
	}
	snap, err := planner.ParseSnapshot(c.payload)
	if err != nil {
		return planner.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (c *Cache) Save(_ context.Context, snap planner.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	c.payload = payload
	return nil
}

func (c *Cache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.payload = nil
	return nil
}
