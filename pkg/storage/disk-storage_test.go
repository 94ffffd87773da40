package storage

import (
	"testing"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

func TestSaveAndLoadCollections(t *testing.T) {
	ds := NewDiskStorage(t.TempDir())

	registry := collection.NewRegistry()
	registry.Ensure("instruments", collection.Settings{
		SearchFields: []string{"maker"},
		DateField:    "acquired",
	})
	registry.Upsert("instruments",
		&types.DataRecord{Id: "1", Fields: map[string]any{
			"maker": "Vuillaume", "year": 1860, "tags": []string{"french"},
		}},
		&types.DataRecord{Id: "2", Fields: map[string]any{"maker": "Hill"}},
	)

	if err := ds.SaveCollections(registry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := collection.NewRegistry()
	if err := ds.LoadCollections(restored); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	c, ok := restored.Get("instruments")
	if !ok {
		t.Fatal("Expected the collection restored")
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", c.Len())
	}
	if got := c.Settings().SearchFields; len(got) != 1 || got[0] != "maker" {
		t.Errorf("Expected settings restored, got %v", got)
	}
	rec, _ := c.Get("1")
	if value, _ := rec.GetField("year"); value != float64(1860) {
		t.Errorf("Expected the normalized numeric value, got %v (%T)", value, value)
	}
	if value, _ := rec.GetField("tags"); len(value.([]string)) != 1 {
		t.Errorf("Expected the tag list, got %v", value)
	}
}

func TestLoadMissingSnapshotIsFreshStart(t *testing.T) {
	ds := NewDiskStorage(t.TempDir())
	registry := collection.NewRegistry()
	if err := ds.LoadCollections(registry); err != nil {
		t.Fatalf("Expected a missing snapshot tolerated, got %v", err)
	}
	if len(registry.Names()) != 0 {
		t.Error("Expected an empty registry")
	}
}
