// Package collection keeps the in-memory record sets the list views read
// from. Collections are configured with their searchable fields and filter
// categories; which collections exist is data, not code.
package collection

import (
	"sync"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// Settings declares how a collection's list view behaves.
type Settings struct {
	SearchFields []string               `json:"searchFields,omitempty"`
	Categories   []types.FilterCategory `json:"categories,omitempty"`
	DateField    string                 `json:"dateField,omitempty"`
	DefaultSort  types.SortState        `json:"defaultSort,omitempty"`
	Operator     bool                   `json:"operator,omitempty"`
}

// Collection is one named record set in insertion order. Upserting an
// existing id replaces the record in place, so a record keeps its position
// for as long as it lives.
type Collection struct {
	mu       sync.RWMutex
	name     string
	settings Settings
	records  []*types.DataRecord
	position map[types.RecordId]int
}

func newCollection(name string, settings Settings) *Collection {
	return &Collection{
		name:     name,
		settings: settings,
		position: map[types.RecordId]int{},
	}
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *Collection) configure(settings Settings) {
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collection) Get(id types.RecordId) (*types.DataRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx, ok := c.position[id]; ok {
		return c.records[idx], true
	}
	return nil, false
}

// Records returns the live records as a fresh slice in insertion order.
func (c *Collection) Records() []types.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Record, 0, len(c.records))
	for _, rec := range c.records {
		if rec.IsDeleted() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// upsert stores rec and reports whether it replaced an existing record.
// A tombstone removes the record instead.
func (c *Collection) upsert(rec *types.DataRecord) (replaced bool) {
	rec.Normalize()
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec.IsDeleted() {
		c.removeLocked(rec.GetId())
		return false
	}
	if idx, ok := c.position[rec.Id]; ok {
		c.records[idx] = rec
		return true
	}
	c.position[rec.Id] = len(c.records)
	c.records = append(c.records, rec)
	return false
}

// delete removes id and reports whether it was present.
func (c *Collection) delete(id types.RecordId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Collection) removeLocked(id types.RecordId) bool {
	idx, ok := c.position[id]
	if !ok {
		return false
	}
	c.records = append(c.records[:idx], c.records[idx+1:]...)
	delete(c.position, id)
	for i := idx; i < len(c.records); i++ {
		c.position[c.records[i].Id] = i
	}
	return true
}

// snapshot copies everything needed to persist the collection.
func (c *Collection) snapshot() ([]*types.DataRecord, Settings) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	records := make([]*types.DataRecord, len(c.records))
	copy(records, c.records)
	return records, c.settings
}
