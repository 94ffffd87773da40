package collection

import (
	"testing"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

func record(id string, fields map[string]any) *types.DataRecord {
	return &types.DataRecord{Id: types.RecordId(id), Fields: fields}
}

func orderOf(c *Collection) []string {
	ids := []string{}
	for _, rec := range c.Records() {
		ids = append(ids, string(rec.GetId()))
	}
	return ids
}

func TestUpsertKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Upsert("instruments",
		record("a", map[string]any{"maker": "Amati"}),
		record("b", map[string]any{"maker": "Bergonzi"}),
		record("c", map[string]any{"maker": "Cappa"}),
	)
	r.Upsert("instruments", record("b", map[string]any{"maker": "Bellini"}))
	c, _ := r.Get("instruments")
	order := orderOf(c)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("Expected a,b,c with b replaced in place, got %v", order)
	}
	rec, ok := c.Get("b")
	if !ok {
		t.Fatal("Expected b present")
	}
	if value, _ := rec.GetField("maker"); value != "Bellini" {
		t.Errorf("Expected the replacement value, got %v", value)
	}
}

func TestDeleteShiftsPositions(t *testing.T) {
	r := NewRegistry()
	r.Upsert("clients", record("a", nil), record("b", nil), record("c", nil))
	r.Delete("clients", "b")
	c, _ := r.Get("clients")
	order := orderOf(c)
	if len(order) != 2 || order[0] != "a" || order[1] != "c" {
		t.Errorf("Expected a,c after deleting b, got %v", order)
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("Expected c findable after the shift")
	}
}

func TestTombstoneDeletes(t *testing.T) {
	r := NewRegistry()
	r.Upsert("clients", record("a", nil))
	r.Upsert("clients", &types.DataRecord{Id: "a", Deleted: true})
	c, _ := r.Get("clients")
	if c.Len() != 0 {
		t.Errorf("Expected the tombstone to remove, got %d records", c.Len())
	}
}

type captureHandler struct {
	upserts int
	deletes int
	lastIds []types.RecordId
}

func (h *captureHandler) RecordsUpserted(collection string, records []*types.DataRecord) {
	h.upserts++
	h.lastIds = nil
	for _, rec := range records {
		h.lastIds = append(h.lastIds, rec.GetId())
	}
}

func (h *captureHandler) RecordDeleted(collection string, id types.RecordId) {
	h.deletes++
}

func TestRegistryNotifiesHandler(t *testing.T) {
	r := NewRegistry()
	handler := &captureHandler{}
	r.SetChangeHandler(handler)
	r.Upsert("invoices", record("1", nil), record("2", nil))
	if handler.upserts != 1 || len(handler.lastIds) != 2 {
		t.Errorf("Expected one batched upsert of two records, got %d/%v", handler.upserts, handler.lastIds)
	}
	r.Delete("invoices", "1")
	if handler.deletes != 1 {
		t.Errorf("Expected one delete, got %d", handler.deletes)
	}
	r.Delete("invoices", "missing")
	if handler.deletes != 1 {
		t.Error("Expected no event for a missing record")
	}
}

func TestEnsureConfigures(t *testing.T) {
	r := NewRegistry()
	r.Upsert("instruments", record("a", nil))
	c := r.Ensure("instruments", Settings{SearchFields: []string{"maker"}})
	if c.Len() != 1 {
		t.Error("Expected Ensure to keep existing records")
	}
	if got := c.Settings().SearchFields; len(got) != 1 || got[0] != "maker" {
		t.Errorf("Expected the settings applied, got %v", got)
	}
	names := r.Names()
	if len(names) != 1 || names[0] != "instruments" {
		t.Errorf("Expected one collection, got %v", names)
	}
}

func TestFilterOptions(t *testing.T) {
	r := NewRegistry()
	r.Ensure("instruments", Settings{
		Categories: []types.FilterCategory{
			{Name: "tags"},
			{Name: "status", Scalar: true},
		},
		DateField: "acquired",
	})
	r.Upsert("instruments",
		record("1", map[string]any{"tags": []string{"french", "bow"}, "status": "available", "acquired": "2024-03-01"}),
		record("2", map[string]any{"tags": []string{"french"}, "status": "sold", "acquired": "2024-01-15"}),
		record("3", map[string]any{"status": "available"}),
	)
	c, _ := r.Get("instruments")
	options := c.FilterOptions()
	if options.Total != 3 {
		t.Errorf("Expected 3 records, got %d", options.Total)
	}
	tags := options.Categories[0]
	if tags.Name != "tags" || len(tags.Options) != 2 {
		t.Fatalf("Expected two tag values, got %+v", tags)
	}
	if tags.Options[0].Value != "french" || tags.Options[0].Count != 2 {
		t.Errorf("Expected french counted twice and first, got %+v", tags.Options[0])
	}
	status := options.Categories[1]
	if !status.Scalar || len(status.Options) != 2 {
		t.Fatalf("Expected two status values, got %+v", status)
	}
	if status.Options[0].Value != "available" || status.Options[0].Count != 2 {
		t.Errorf("Expected available counted twice, got %+v", status.Options[0])
	}
	if options.DateSpan == nil || options.DateSpan.From != "2024-01-15" || options.DateSpan.To != "2024-03-01" {
		t.Errorf("Expected the date span, got %+v", options.DateSpan)
	}
}
