package collection

import (
	"slices"
	"sync"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// ChangeHandler observes record changes across all collections, used to
// feed downstream nodes in master mode.
type ChangeHandler interface {
	RecordsUpserted(collection string, records []*types.DataRecord)
	RecordDeleted(collection string, id types.RecordId)
}

// UpdateHandler is the write surface the sync client drives.
type UpdateHandler interface {
	Upsert(collection string, records ...*types.DataRecord)
	Delete(collection string, id types.RecordId)
}

// Registry holds every collection by name. Writes through the registry
// create collections on demand and notify the change handler after the
// mutation is visible.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	order       []string
	handler     ChangeHandler
}

func NewRegistry() *Registry {
	return &Registry{
		collections: map[string]*Collection{},
	}
}

// SetChangeHandler installs the handler. Install before concurrent writes
// start.
func (r *Registry) SetChangeHandler(handler ChangeHandler) {
	r.mu.Lock()
	r.handler = handler
	r.mu.Unlock()
}

// Ensure returns the named collection, creating it when missing and
// applying settings either way.
func (r *Registry) Ensure(name string, settings Settings) *Collection {
	r.mu.Lock()
	c, ok := r.collections[name]
	if !ok {
		c = newCollection(name, settings)
		r.collections[name] = c
		r.order = append(r.order, name)
		r.mu.Unlock()
		return c
	}
	r.mu.Unlock()
	c.configure(settings)
	return c
}

func (r *Registry) Get(name string) (*Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[name]
	return c, ok
}

// Names lists the collections in creation order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *Registry) get(name string) *Collection {
	r.mu.Lock()
	c, ok := r.collections[name]
	if !ok {
		c = newCollection(name, Settings{})
		r.collections[name] = c
		r.order = append(r.order, name)
	}
	r.mu.Unlock()
	return c
}

func (r *Registry) changeHandler() ChangeHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handler
}

// Upsert writes records into the named collection. Tombstoned records
// delete instead, everything else is announced as one upsert batch.
func (r *Registry) Upsert(collection string, records ...*types.DataRecord) {
	if len(records) == 0 {
		return
	}
	c := r.get(collection)
	live := make([]*types.DataRecord, 0, len(records))
	for _, rec := range records {
		deleted := rec.IsDeleted()
		c.upsert(rec)
		if deleted {
			if handler := r.changeHandler(); handler != nil {
				handler.RecordDeleted(collection, rec.GetId())
			}
			continue
		}
		live = append(live, rec)
	}
	if len(live) == 0 {
		return
	}
	if handler := r.changeHandler(); handler != nil {
		handler.RecordsUpserted(collection, live)
	}
}

// Delete removes one record from the named collection.
func (r *Registry) Delete(collection string, id types.RecordId) {
	c, ok := r.Get(collection)
	if !ok {
		return
	}
	if !c.delete(id) {
		return
	}
	if handler := r.changeHandler(); handler != nil {
		handler.RecordDeleted(collection, id)
	}
}

// TotalRecords sums the live record counts across all collections.
func (r *Registry) TotalRecords() int {
	total := 0
	r.mu.RLock()
	collections := make([]*Collection, 0, len(r.collections))
	for _, c := range r.collections {
		collections = append(collections, c)
	}
	r.mu.RUnlock()
	for _, c := range collections {
		total += c.Len()
	}
	return total
}
