package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/common"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

func (ws *WebServer) preflight(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			common.RespondToOptions(w, r)
			return
		}
		next(w, r)
	}
}

// dropCachedOptions throws away the cached filter option counts after a
// write so the next list recounts them.
func (ws *WebServer) dropCachedOptions(collection string) {
	if ws.Cache == nil {
		return
	}
	if err := ws.Cache.Delete(context.Background(), optionsCacheKey(collection)); err != nil {
		log.Printf("Failed to drop cached options for %s: %v", collection, err)
	}
}

// AddRecords ingests a batch of records into a collection, creating the
// collection on first use.
func (ws *WebServer) AddRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.PathValue("collection")
	records := make([]*types.DataRecord, 0)
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ws.Registry.Upsert(name, records...)
	ws.dropCachedOptions(name)
	log.Printf("Added %d records to %s", len(records), name)

	genericHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int{"upserted": len(records)})
}

func (ws *WebServer) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.PathValue("collection")
	c, ok := ws.Registry.Get(name)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return
	}
	id := types.RecordId(r.PathValue("id"))
	if _, ok := c.Get(id); !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}
	ws.Registry.Delete(name, id)
	ws.dropCachedOptions(name)

	genericHeaders(w, r)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("deleted"))
}

// UpdateSettings replaces the list configuration of a collection.
func (ws *WebServer) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := r.PathValue("collection")
	settings := collection.Settings{}
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ws.Registry.Ensure(name, settings)
	ws.dropCachedOptions(name)
	log.Printf("Updated settings for %s", name)

	genericHeaders(w, r)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Save writes every collection to disk.
func (ws *WebServer) Save(w http.ResponseWriter, r *http.Request) {
	if ws.Db == nil {
		http.Error(w, "no storage configured", http.StatusServiceUnavailable)
		return
	}
	if err := ws.Db.SaveCollections(ws.Registry); err != nil {
		log.Printf("Failed to save collections: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	genericHeaders(w, r)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
