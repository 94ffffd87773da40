package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// listResult mirrors ListResponse with concrete record values so the body
// can be unmarshalled.
type listResult struct {
	Items     []types.DataRecord        `json:"items"`
	Page      int                       `json:"page"`
	PageSize  int                       `json:"pageSize"`
	TotalHits int                       `json:"totalHits"`
	Sort      types.SortState           `json:"sort"`
	Options   *collection.FilterOptions `json:"options"`
}

func testWebServer(t *testing.T) *WebServer {
	t.Helper()
	registry := collection.NewRegistry()
	registry.Ensure("violins", violinSettings())
	registry.Upsert("violins",
		&types.DataRecord{Id: "v1", Fields: map[string]any{"maker": "Stradivari", "model": "Messiah", "price": 12500000.0, "condition": "mint", "acquired": "2024-03-10"}},
		&types.DataRecord{Id: "v2", Fields: map[string]any{"maker": "Guarneri", "model": "Cannone", "price": 9000000.0, "condition": "good", "acquired": "2023-11-02"}},
		&types.DataRecord{Id: "v3", Fields: map[string]any{"maker": "Amati", "model": "King", "condition": "fair", "acquired": "2024-06-18"}},
		&types.DataRecord{Id: "v4", Fields: map[string]any{"maker": "Stradivari", "model": "Lady Blunt", "price": 15900000.0, "condition": "good", "acquired": "2024-01-22"}},
	)
	return NewWebServer(registry, nil)
}

func serve(mux *http.ServeMux, method, target string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, body))
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) listResult {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	out := listResult{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Expected a json list body, got %v", err)
	}
	return out
}

func itemIds(result listResult) []string {
	ids := make([]string, len(result.Items))
	for i, item := range result.Items {
		ids[i] = string(item.Id)
	}
	return ids
}

func TestListDefaultSort(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list", nil))
	if result.TotalHits != 4 {
		t.Errorf("Expected 4 hits, got %d", result.TotalHits)
	}
	ids := itemIds(result)
	// maker ascending, the two Stradivari keep insertion order
	want := []string{"v3", "v2", "v1", "v4"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("Expected order %v, got %v", want, ids)
		}
	}
	if result.Sort.Field != "maker" || result.Sort.Order != types.SortAscending {
		t.Errorf("Expected the default sort in the response, got %v", result.Sort)
	}
	if result.Options == nil || result.Options.Total != 4 {
		t.Errorf("Expected inline options for a small collection, got %v", result.Options)
	}
}

func TestListFiltered(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list?maker=Stradivari", nil))
	if result.TotalHits != 2 {
		t.Errorf("Expected 2 hits, got %d", result.TotalHits)
	}
	for _, item := range result.Items {
		if item.Fields["maker"] != "Stradivari" {
			t.Errorf("Expected only Stradivari, got %v", item.Fields["maker"])
		}
	}
}

func TestListOperator(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	// Amati AND good matches nothing, OR matches the union.
	result := decodeList(t, serve(mux, "GET", "/violins/list?maker=Amati&cond=good", nil))
	if result.TotalHits != 0 {
		t.Errorf("Expected no hits with AND, got %d", result.TotalHits)
	}
	result = decodeList(t, serve(mux, "GET", "/violins/list?maker=Amati&cond=good&op=OR", nil))
	if result.TotalHits != 3 {
		t.Errorf("Expected 3 hits with OR, got %d", result.TotalHits)
	}
}

func TestListSearch(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list?q=cannone", nil))
	if result.TotalHits != 1 {
		t.Fatalf("Expected 1 hit, got %d", result.TotalHits)
	}
	if result.Items[0].Id != "v2" {
		t.Errorf("Expected v2, got %s", result.Items[0].Id)
	}
}

func TestListSortMissingValuesLast(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list?sort=price&order=desc", nil))
	ids := itemIds(result)
	want := []string{"v4", "v1", "v2", "v3"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("Expected order %v, got %v", want, ids)
		}
	}
}

func TestListDateRange(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list?between=2024-01-01,2024-12-31", nil))
	if result.TotalHits != 3 {
		t.Errorf("Expected 3 hits inside 2024, got %d", result.TotalHits)
	}
	for _, item := range result.Items {
		if item.Id == "v2" {
			t.Errorf("Expected v2 outside the range")
		}
	}
}

func TestListPaging(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	result := decodeList(t, serve(mux, "GET", "/violins/list?size=2&page=1", nil))
	if result.TotalHits != 4 {
		t.Errorf("Expected totalHits to count all matches, got %d", result.TotalHits)
	}
	ids := itemIds(result)
	if len(ids) != 2 || ids[0] != "v1" || ids[1] != "v4" {
		t.Errorf("Expected the second page v1 v4, got %v", ids)
	}
	result = decodeList(t, serve(mux, "GET", "/violins/list?size=2&page=5", nil))
	if len(result.Items) != 0 {
		t.Errorf("Expected an empty page past the end, got %d items", len(result.Items))
	}
}

func TestListUnknownCollection(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	w := serve(mux, "GET", "/cellos/list", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown collection, got %d", w.Code)
	}
}

func TestOptionsEndpoint(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	w := serve(mux, "GET", "/violins/options", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	options := collection.FilterOptions{}
	if err := json.Unmarshal(w.Body.Bytes(), &options); err != nil {
		t.Fatalf("Expected a json options body, got %v", err)
	}
	if options.Total != 4 {
		t.Errorf("Expected 4 records counted, got %d", options.Total)
	}
	if len(options.Categories) != 2 {
		t.Fatalf("Expected both categories, got %d", len(options.Categories))
	}
	makers := options.Categories[0]
	if makers.Name != "maker" || len(makers.Options) != 3 {
		t.Fatalf("Expected 3 maker values, got %v", makers)
	}
	if makers.Options[0].Value != "Stradivari" || makers.Options[0].Count != 2 {
		t.Errorf("Expected Stradivari counted twice first, got %v", makers.Options[0])
	}
	if options.DateSpan == nil || options.DateSpan.From != "2023-11-02" || options.DateSpan.To != "2024-06-18" {
		t.Errorf("Expected the acquired span, got %v", options.DateSpan)
	}
}

func TestGetRecord(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	w := serve(mux, "GET", "/violins/get/v1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	rec := types.DataRecord{}
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("Expected a json record, got %v", err)
	}
	if rec.Id != "v1" || rec.Fields["model"] != "Messiah" {
		t.Errorf("Expected the Messiah, got %v", rec)
	}
	w = serve(mux, "GET", "/violins/get/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing record, got %d", w.Code)
	}
}

func TestGetRecordsBatch(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	w := serve(mux, "POST", "/violins/get", strings.NewReader(`["v1","v3","nope"]`))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	records := []types.DataRecord{}
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("Expected a json record list, got %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected the 2 known records, got %d", len(records))
	}
}

func TestCollectionsEndpoint(t *testing.T) {
	mux := testWebServer(t).ClientHandler()
	w := serve(mux, "GET", "/collections", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	infos := []CollectionInfo{}
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("Expected a json collection list, got %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "violins" || infos[0].Total != 4 {
		t.Errorf("Expected one collection with 4 records, got %v", infos)
	}
}

func TestAdminAddAndDeleteRecord(t *testing.T) {
	ws := testWebServer(t)
	admin := ws.AdminHandler()
	client := ws.ClientHandler()

	body := `[{"id":"v9","fields":{"maker":"Vuillaume","model":"Messiah copy","condition":"good","acquired":"2025-02-14"}}]`
	w := serve(admin, "POST", "/add/violins", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 adding records, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(client, "GET", "/violins/get/v9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected the new record to be served, got %d", w.Code)
	}

	w = serve(admin, "DELETE", "/delete/violins/v9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 deleting, got %d", w.Code)
	}

	w = serve(client, "GET", "/violins/get/v9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestAdminUpdateSettings(t *testing.T) {
	ws := testWebServer(t)
	admin := ws.AdminHandler()
	client := ws.ClientHandler()

	body := `{"searchFields":["maker","model"],"defaultSort":{"sortBy":"price","sortOrder":"desc"}}`
	w := serve(admin, "PUT", "/settings/violins", strings.NewReader(body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 updating settings, got %d", w.Code)
	}

	result := decodeList(t, serve(client, "GET", "/violins/list", nil))
	if result.Sort.Field != "price" || result.Sort.Order != types.SortDescending {
		t.Errorf("Expected the new default sort, got %v", result.Sort)
	}
	if len(result.Items) == 0 || result.Items[0].Id != "v4" {
		t.Errorf("Expected the most expensive violin first, got %v", itemIds(result))
	}
}

func TestAdminSaveWithoutStorage(t *testing.T) {
	ws := testWebServer(t)
	ws.Db = nil
	w := serve(ws.AdminHandler(), "POST", "/save", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without storage, got %d", w.Code)
	}
}
