package server

import (
	"net/http"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/common"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/storage"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/tracking"
)

// WebServer serves the list views over every registered collection. Cache,
// Views and Tracking are optional and stay nil when redis or the broker is
// not configured.
type WebServer struct {
	Registry *collection.Registry
	Db       *storage.DiskStorage
	Cache    *Cache
	Views    *ViewStore
	Tracking tracking.Tracking

	// OptionLimit caps how many records a list response will count filter
	// options for inline. Bigger collections fall back to the options
	// endpoint.
	OptionLimit int
}

func NewWebServer(registry *collection.Registry, db *storage.DiskStorage) *WebServer {
	return &WebServer{
		Registry:    registry,
		Db:          db,
		OptionLimit: 4096,
	}
}

func defaultHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "private, stale-while-revalidate="+cacheTime)
	genericHeaders(w, r)
}

func publicHeaders(w http.ResponseWriter, r *http.Request, cacheTime string) {
	w.Header().Set("Cache-Control", "public, max-age="+cacheTime)
	genericHeaders(w, r)
}

func genericHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
}

func (ws *WebServer) collection(r *http.Request) (*collection.Collection, bool) {
	return ws.Registry.Get(r.PathValue("collection"))
}

// ClientHandler is the read side: lists, filter options, record lookups and
// saved views.
func (ws *WebServer) ClientHandler() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		defaultHeaders(w, r, "0")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.HandleFunc("/collections", common.JsonHandler(ws.Tracking, ws.Collections))
	srv.HandleFunc("/{collection}/list", common.JsonHandler(ws.Tracking, ws.List))
	srv.HandleFunc("/{collection}/options", common.JsonHandler(ws.Tracking, ws.Options))
	srv.HandleFunc("/{collection}/get/{id}", common.JsonHandler(ws.Tracking, ws.GetRecord))
	srv.HandleFunc("/{collection}/get", common.JsonHandler(ws.Tracking, ws.GetRecords))
	srv.HandleFunc("/{collection}/views", common.JsonHandler(ws.Tracking, ws.HandleViews))
	srv.HandleFunc("/{collection}/views/{id}", common.JsonHandler(ws.Tracking, ws.HandleViewById))

	return srv
}

// AdminHandler is the write side: record ingest, settings and snapshots.
func (ws *WebServer) AdminHandler() *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.HandleFunc("/collections", common.JsonHandler(ws.Tracking, ws.Collections))
	srv.HandleFunc("/add/{collection}", ws.preflight(ws.AddRecords))
	srv.HandleFunc("/delete/{collection}/{id}", ws.preflight(ws.DeleteRecord))
	srv.HandleFunc("/settings/{collection}", ws.preflight(ws.UpdateSettings))
	srv.HandleFunc("/save", ws.preflight(ws.Save))

	return srv
}
