package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/view"
)

var (
	listRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcviolins_list_requests_total",
		Help: "The total number of processed list requests",
	})
	listCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcviolins_list_cache_hits_total",
		Help: "The total number of list responses served from cache",
	})
	optionRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcviolins_option_requests_total",
		Help: "The total number of processed filter option requests",
	})
	recordLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hcviolins_record_lookups_total",
		Help: "The total number of single record lookups",
	})
)

// runListPipeline is the full list view computation: categorical filters,
// date range, search term, sort. A throwaway engine carries the request's
// term and sort so server responses follow the exact same rules as the
// interactive views.
func (ws *WebServer) runListPipeline(c *collection.Collection, lr *ListRequest) []types.Record {
	settings := c.Settings()
	records := c.Records()
	out := view.ApplyFilters(records, view.MatchFilters(settings.Categories), lr.Filters, lr.Operator(settings))
	out = view.ApplyDateRange(out, settings.DateField, lr.Dates)
	engine := view.New(view.Options{
		SearchFields: settings.SearchFields,
		InitialSort:  lr.SortState(settings),
		InitialTerm:  lr.Query,
	})
	return engine.Apply(out)
}

// listCacheKey is the canonical form of one list query. url.Values.Encode
// sorts keys, so two requests differing only in parameter order share an
// entry.
func listCacheKey(collection string, r *http.Request) string {
	return "list_" + collection + "?" + r.URL.Query().Encode()
}

func (ws *WebServer) List(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	c, ok := ws.collection(r)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil
	}
	settings := c.Settings()
	lr, err := ListRequestFromRequest(r, settings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	go listRequests.Inc()

	cacheable := ws.Cache != nil && r.Method == http.MethodGet
	if cacheable {
		if data, found := ws.Cache.GetRaw(r.Context(), listCacheKey(c.Name(), r)); found {
			go listCacheHits.Inc()
			defaultHeaders(w, r, "20")
			w.WriteHeader(http.StatusOK)
			_, err := w.Write(data)
			return err
		}
	}

	matchChan := make(chan []types.Record)
	optionsChan := make(chan *collection.FilterOptions)
	defer close(matchChan)
	defer close(optionsChan)

	go func() {
		matchChan <- ws.runListPipeline(c, lr)
	}()
	go func() {
		if c.Len() > ws.OptionLimit {
			optionsChan <- nil
			return
		}
		optionsChan <- ws.filterOptions(c)
	}()

	matched := <-matchChan
	options := <-optionsChan
	totalHits := len(matched)

	if ws.Tracking != nil {
		go ws.Tracking.TrackSearch(sessionId, c.Name(), lr.Filters, lr.Query, totalHits, r)
	}

	response := &ListResponse{
		Items:     pageSlice(matched, lr.Page, lr.PageSize),
		Page:      lr.Page,
		PageSize:  lr.PageSize,
		TotalHits: totalHits,
		Sort:      lr.SortState(settings),
		Options:   options,
	}

	defaultHeaders(w, r, "20")
	w.WriteHeader(http.StatusOK)
	if !cacheable {
		return enc.Encode(response)
	}
	// Tee the encoded response into the cache. The body is stored only
	// once it encoded completely, a half-written response never lands in
	// redis.
	var buf bytes.Buffer
	if err := sonic.ConfigDefault.NewEncoder(io.MultiWriter(w, &buf)).Encode(response); err != nil {
		return err
	}
	if err := ws.Cache.SetRaw(r.Context(), listCacheKey(c.Name(), r), buf.Bytes(), 20*time.Second); err != nil {
		log.Printf("Failed to cache list response for %s: %v", c.Name(), err)
	}
	return nil
}

func pageSlice(records []types.Record, page, size int) []types.Record {
	start := page * size
	if start >= len(records) {
		return []types.Record{}
	}
	return records[start:min(start+size, len(records))]
}

// filterOptions counts options through the cache when one is wired, a
// minute of staleness is fine for the filter bar.
func (ws *WebServer) filterOptions(c *collection.Collection) *collection.FilterOptions {
	if ws.Cache == nil {
		options := c.FilterOptions()
		return &options
	}
	options := collection.FilterOptions{}
	helper := NewCacheHelper[collection.FilterOptions](ws.Cache)
	if err := helper.Handle(optionsCacheKey(c.Name()), &options, c.FilterOptions, time.Minute); err != nil {
		log.Printf("Failed to cache filter options for %s: %v", c.Name(), err)
	}
	return &options
}

func optionsCacheKey(collection string) string {
	return "options_" + collection
}

func (ws *WebServer) Options(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	c, ok := ws.collection(r)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil
	}
	go optionRequests.Inc()
	publicHeaders(w, r, "60")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(ws.filterOptions(c))
}

func (ws *WebServer) GetRecord(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	c, ok := ws.collection(r)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil
	}
	id := types.RecordId(r.PathValue("id"))
	rec, ok := c.Get(id)
	if !ok {
		http.Error(w, "record not found", http.StatusNotFound)
		return nil
	}
	go recordLookups.Inc()
	if ws.Tracking != nil {
		go ws.Tracking.TrackView(sessionId, c.Name(), id)
	}
	publicHeaders(w, r, "120")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(rec)
}

func (ws *WebServer) GetRecords(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	c, ok := ws.collection(r)
	if !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil
	}
	ids := make([]types.RecordId, 0)
	if err := json.NewDecoder(r.Body).Decode(&ids); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	result := make([]*types.DataRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := c.Get(id); ok {
			result = append(result, rec)
		}
	}
	defaultHeaders(w, r, "600")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(result)
}

func (ws *WebServer) Collections(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	infos := make([]CollectionInfo, 0)
	for _, name := range ws.Registry.Names() {
		c, ok := ws.Registry.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, CollectionInfo{
			Name:     name,
			Settings: c.Settings(),
			Total:    c.Len(),
		})
	}
	publicHeaders(w, r, "60")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(infos)
}
