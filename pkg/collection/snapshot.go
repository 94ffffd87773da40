package collection

import (
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// Snapshot is the persisted form of one collection.
type Snapshot struct {
	Name     string              `json:"name"`
	Settings Settings            `json:"settings"`
	Records  []*types.DataRecord `json:"records"`
}

// Snapshot captures every collection in creation order.
func (r *Registry) Snapshot() []Snapshot {
	names := r.Names()
	snapshots := make([]Snapshot, 0, len(names))
	for _, name := range names {
		c, ok := r.Get(name)
		if !ok {
			continue
		}
		records, settings := c.snapshot()
		snapshots = append(snapshots, Snapshot{
			Name:     name,
			Settings: settings,
			Records:  records,
		})
	}
	return snapshots
}

// Restore loads snapshots without announcing changes; it runs before any
// change handler is installed.
func (r *Registry) Restore(snapshots []Snapshot) {
	for _, snapshot := range snapshots {
		c := r.Ensure(snapshot.Name, snapshot.Settings)
		for _, rec := range snapshot.Records {
			c.upsert(rec)
		}
	}
}
