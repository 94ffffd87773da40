package tracking

import (
	"net/http"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type Tracking interface {
	TrackSession(sessionId int, r *http.Request)
	TrackSearch(sessionId int, collection string, filters types.FilterState, query string, hits int, r *http.Request)
	TrackView(sessionId int, collection string, id types.RecordId)
	Close() error
}

// NoopTracking is used when no broker is configured.
type NoopTracking struct{}

func (NoopTracking) TrackSession(int, *http.Request) {}

func (NoopTracking) TrackSearch(int, string, types.FilterState, string, int, *http.Request) {}

func (NoopTracking) TrackView(int, string, types.RecordId) {}

func (NoopTracking) Close() error { return nil }
