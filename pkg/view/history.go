package view

import (
	"net/url"
	"slices"
	"sync"
)

// History is the navigation surface a page view keeps its state in.
// Replace overwrites the current query without producing a change event;
// Changes delivers query strings arriving from outside the view, such as
// back and forward navigation. Writes are last-write-wins.
type History interface {
	Current() url.Values
	Replace(values url.Values)
	Changes() <-chan url.Values
}

// MemoryHistory is an in-process History. Navigate plays the role of an
// external navigation and emits on Changes.
type MemoryHistory struct {
	mu      sync.Mutex
	values  url.Values
	changes chan url.Values
}

func NewMemoryHistory(initial url.Values) *MemoryHistory {
	return &MemoryHistory{
		values:  cloneValues(initial),
		changes: make(chan url.Values, 8),
	}
}

func (h *MemoryHistory) Current() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneValues(h.values)
}

func (h *MemoryHistory) Replace(values url.Values) {
	h.mu.Lock()
	h.values = cloneValues(values)
	h.mu.Unlock()
}

// Navigate installs values as the current query and announces the change,
// like a browser back button would. A full channel drops the oldest
// pending entry, the newest navigation wins.
func (h *MemoryHistory) Navigate(values url.Values) {
	h.mu.Lock()
	h.values = cloneValues(values)
	h.mu.Unlock()
	entry := cloneValues(values)
	for {
		select {
		case h.changes <- entry:
			return
		default:
			select {
			case <-h.changes:
			default:
			}
		}
	}
}

func (h *MemoryHistory) Changes() <-chan url.Values {
	return h.changes
}

func cloneValues(values url.Values) url.Values {
	clone := make(url.Values, len(values))
	for key, entries := range values {
		clone[key] = slices.Clone(entries)
	}
	return clone
}
