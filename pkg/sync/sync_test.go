package sync

import (
	"sync"
	"testing"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type fakeMaster struct {
	mu      sync.Mutex
	upserts map[string][][]*types.DataRecord
	deletes []RecordTombstone
}

func (f *fakeMaster) Connect() error { return nil }

func (f *fakeMaster) SendRecordsUpserted(collection string, records []*types.DataRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upserts == nil {
		f.upserts = map[string][][]*types.DataRecord{}
	}
	f.upserts[collection] = append(f.upserts[collection], records)
	return nil
}

func (f *fakeMaster) SendRecordDeleted(collection string, id types.RecordId) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, RecordTombstone{Collection: collection, Id: id})
	return nil
}

func (f *fakeMaster) Close() error { return nil }

func record(id string) *types.DataRecord {
	return &types.DataRecord{Id: types.RecordId(id), Fields: map[string]any{"name": id}}
}

func TestChangeHandlerBatchesUpsertsPerCollection(t *testing.T) {
	master := &fakeMaster{}
	handler := NewRabbitMasterChangeHandler(master)
	defer handler.Stop()

	handler.RecordsUpserted("violins", []*types.DataRecord{record("1"), record("2")})
	handler.RecordsUpserted("bows", []*types.DataRecord{record("3")})
	handler.RecordsUpserted("violins", []*types.DataRecord{record("4")})
	handler.Flush()

	master.mu.Lock()
	defer master.mu.Unlock()
	total := 0
	for _, batch := range master.upserts["violins"] {
		total += len(batch)
	}
	if total != 3 {
		t.Errorf("Expected 3 violin records, got %d", total)
	}
	if len(master.upserts["bows"]) == 0 || len(master.upserts["bows"][0]) != 1 {
		t.Errorf("Expected a single bow record, got %v", master.upserts["bows"])
	}
}

func TestChangeHandlerIgnoresEmptyUpserts(t *testing.T) {
	master := &fakeMaster{}
	handler := NewRabbitMasterChangeHandler(master)
	defer handler.Stop()

	handler.RecordsUpserted("violins", nil)
	handler.Flush()

	master.mu.Lock()
	defer master.mu.Unlock()
	if len(master.upserts) != 0 {
		t.Errorf("Expected no sends for an empty upsert, got %v", master.upserts)
	}
}

func TestChangeHandlerSendsDeletesImmediately(t *testing.T) {
	master := &fakeMaster{}
	handler := NewRabbitMasterChangeHandler(master)
	defer handler.Stop()

	handler.RecordDeleted("violins", "9")

	master.mu.Lock()
	defer master.mu.Unlock()
	if len(master.deletes) != 1 {
		t.Fatalf("Expected 1 delete, got %d", len(master.deletes))
	}
	if master.deletes[0].Collection != "violins" || master.deletes[0].Id != "9" {
		t.Errorf("Expected violins/9, got %s/%s", master.deletes[0].Collection, master.deletes[0].Id)
	}
}
