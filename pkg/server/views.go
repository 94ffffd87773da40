package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/compare"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

const viewsChangedChannel = "hc_views_changed"

// SavedView is a named snapshot of the list controls for one collection.
type SavedView struct {
	Id         string            `json:"id"`
	Name       string            `json:"name"`
	Collection string            `json:"collection"`
	Query      string            `json:"q,omitempty"`
	Filters    types.FilterState `json:"filters"`
	Dates      types.DateRange   `json:"dates"`
	Op         string            `json:"op,omitempty"`
	Sort       types.SortState   `json:"sort"`
	Updated    int64             `json:"updated"`
}

// ViewStore keeps saved views in a redis hash per collection so every node
// serves the same set. Each node holds a local copy until another node
// signals a change.
type ViewStore struct {
	client *redis.Client
	mu     sync.RWMutex
	local  map[string][]SavedView
}

func NewViewStore(addr string, password string, db int) *ViewStore {
	return &ViewStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		local: make(map[string][]SavedView),
	}
}

func viewsKey(collection string) string {
	return "views_" + collection
}

// StartListeningForChanges drops the local copy when another node saves or
// deletes a view.
func (s *ViewStore) StartListeningForChanges(ctx context.Context) {
	ch := s.client.Subscribe(ctx, viewsChangedChannel).Channel()
	go func() {
		for msg := range ch {
			log.Printf("Saved views changed for %s", msg.Payload)
			s.mu.Lock()
			delete(s.local, msg.Payload)
			s.mu.Unlock()
		}
	}()
}

func (s *ViewStore) invalidate(ctx context.Context, collection string) {
	s.mu.Lock()
	delete(s.local, collection)
	s.mu.Unlock()
	if _, err := s.client.Publish(ctx, viewsChangedChannel, collection).Result(); err != nil {
		log.Printf("Failed to publish view change for %s: %v", collection, err)
	}
}

// List returns the saved views of a collection sorted by name.
func (s *ViewStore) List(ctx context.Context, collection string) ([]SavedView, error) {
	s.mu.RLock()
	cached, ok := s.local[collection]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}
	data, err := s.client.HGetAll(ctx, viewsKey(collection)).Result()
	if err != nil {
		return nil, err
	}
	views := make([]SavedView, 0, len(data))
	for id, raw := range data {
		view := SavedView{}
		if err := json.Unmarshal([]byte(raw), &view); err != nil {
			log.Printf("Skipping malformed saved view %s: %v", id, err)
			continue
		}
		views = append(views, view)
	}
	slices.SortFunc(views, func(a, b SavedView) int {
		return compare.Natural(a.Name, b.Name)
	})
	s.mu.Lock()
	s.local[collection] = views
	s.mu.Unlock()
	return views, nil
}

// Save stores the view, assigning an id when it has none.
func (s *ViewStore) Save(ctx context.Context, view *SavedView) error {
	if view.Id == "" {
		view.Id = uuid.New().String()
	}
	view.Updated = time.Now().UnixMilli()
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, viewsKey(view.Collection), view.Id, data).Err(); err != nil {
		return err
	}
	s.invalidate(ctx, view.Collection)
	return nil
}

func (s *ViewStore) Delete(ctx context.Context, collection string, id string) error {
	removed, err := s.client.HDel(ctx, viewsKey(collection), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("no saved view %s", id)
	}
	s.invalidate(ctx, collection)
	return nil
}

func (s *ViewStore) Close() error {
	return s.client.Close()
}

func (ws *WebServer) HandleViews(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	if ws.Views == nil {
		http.Error(w, "saved views are not configured", http.StatusServiceUnavailable)
		return nil
	}
	name := r.PathValue("collection")
	if _, ok := ws.Registry.Get(name); !ok {
		http.Error(w, "collection not found", http.StatusNotFound)
		return nil
	}
	switch r.Method {
	case http.MethodGet:
		views, err := ws.Views.List(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return nil
		}
		defaultHeaders(w, r, "10")
		w.WriteHeader(http.StatusOK)
		return enc.Encode(views)
	case http.MethodPost:
		view := SavedView{}
		if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
		if view.Name == "" {
			http.Error(w, "a saved view needs a name", http.StatusBadRequest)
			return nil
		}
		view.Collection = name
		if err := ws.Views.Save(r.Context(), &view); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return nil
		}
		defaultHeaders(w, r, "0")
		w.WriteHeader(http.StatusOK)
		return enc.Encode(&view)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil
	}
}

func (ws *WebServer) HandleViewById(w http.ResponseWriter, r *http.Request, sessionId int, enc sonic.Encoder) error {
	if ws.Views == nil {
		http.Error(w, "saved views are not configured", http.StatusServiceUnavailable)
		return nil
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil
	}
	name := r.PathValue("collection")
	id := r.PathValue("id")
	if err := ws.Views.Delete(r.Context(), name, id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}
	defaultHeaders(w, r, "0")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(map[string]string{"deleted": id})
}
