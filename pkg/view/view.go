package view

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/compare"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

const DefaultDebounce = 200 * time.Millisecond

// Options configures a View. SearchFields lists the fields the term is
// matched against; Predicate replaces field matching entirely when set.
// All fields are read at construction and never mutated afterwards.
type Options struct {
	SearchFields []string
	Predicate    func(rec types.Record, term string) bool
	InitialSort  types.SortState
	InitialTerm  string
	Debounce     time.Duration
	OnChange     func()
}

// View turns a record slice into a searched and sorted slice. The raw
// search term updates immediately, the effective term only after the
// debounce window passes without further typing. Sort state moves through
// HandleSort as one atomic transition.
type View struct {
	mu         sync.Mutex
	opts       Options
	rawTerm    string
	term       string
	sort       types.SortState
	timer      *time.Timer
	generation atomic.Uint64
}

func New(opts Options) *View {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &View{
		opts:    opts,
		rawTerm: opts.InitialTerm,
		term:    opts.InitialTerm,
		sort:    opts.InitialSort,
	}
}

// SetSearchTerm stores term as the raw value and re-arms the debounce
// timer. A pending application from an earlier call is cancelled, so only
// the last term inside the window ever becomes effective.
func (v *View) SetSearchTerm(term string) {
	v.mu.Lock()
	v.rawTerm = term
	if v.timer != nil {
		v.timer.Stop()
	}
	generation := v.generation.Add(1)
	v.timer = time.AfterFunc(v.opts.Debounce, func() {
		v.applyTerm(term, generation)
	})
	v.mu.Unlock()
}

func (v *View) applyTerm(term string, generation uint64) {
	v.mu.Lock()
	if generation != v.generation.Load() {
		v.mu.Unlock()
		return
	}
	changed := v.term != term
	v.term = term
	v.mu.Unlock()
	if changed && v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

// ResetSearch clears the raw and effective term in one step, cancelling
// any pending debounce.
func (v *View) ResetSearch() {
	v.mu.Lock()
	v.generation.Add(1)
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	changed := v.term != "" || v.rawTerm != ""
	v.rawTerm = ""
	v.term = ""
	v.mu.Unlock()
	if changed && v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

// SearchTerm returns the raw term as last typed.
func (v *View) SearchTerm() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rawTerm
}

// EffectiveTerm returns the term currently driving filtering.
func (v *View) EffectiveTerm() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.term
}

// HandleSort advances the sort state for a column click. A new field
// starts ascending, clicking the active field flips the direction. There
// is no third click back to "no sort".
func (v *View) HandleSort(field string) {
	v.mu.Lock()
	switch {
	case v.sort.Field != field:
		v.sort = types.SortState{Field: field, Order: types.SortAscending}
	case v.sort.Order == types.SortAscending:
		v.sort = types.SortState{Field: field, Order: types.SortDescending}
	default:
		v.sort = types.SortState{Field: field, Order: types.SortAscending}
	}
	v.mu.Unlock()
	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

func (v *View) Sort() types.SortState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}

// SortArrow returns the header indicator for field without touching state.
func (v *View) SortArrow(field string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sort.Field != field {
		return ""
	}
	if v.sort.Order == types.SortDescending {
		return "▼"
	}
	return "▲"
}

// Stop cancels a pending debounce application. The view stays usable.
func (v *View) Stop() {
	v.mu.Lock()
	v.generation.Add(1)
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.mu.Unlock()
}

// Apply filters records by the effective term and sorts them by the
// current sort state. The input slice is never mutated; the result is
// always a fresh slice. With an empty sort field the filtered order is
// returned exactly as received.
func (v *View) Apply(records []types.Record) []types.Record {
	v.mu.Lock()
	term := v.term
	sort := v.sort
	v.mu.Unlock()

	out := v.filterBySearch(records, term)
	if sort.IsZero() {
		return out
	}
	direction := sort.Order.Direction()
	slices.SortStableFunc(out, func(a, b types.Record) int {
		aValue, _ := a.GetField(sort.Field)
		bValue, _ := b.GetField(sort.Field)
		aNull, bNull := compare.IsNull(aValue), compare.IsNull(bValue)
		// Nulls stay at the bottom in both directions, so the sign flip
		// applies only to value comparisons.
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return 1
		case bNull:
			return -1
		}
		return compare.Values(aValue, bValue) * direction
	})
	return out
}

func (v *View) filterBySearch(records []types.Record, term string) []types.Record {
	out := make([]types.Record, 0, len(records))
	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return append(out, records...)
	}
	if v.opts.Predicate != nil {
		for _, rec := range records {
			if v.opts.Predicate(rec, normalized) {
				out = append(out, rec)
			}
		}
		return out
	}
	// No fields and no predicate leaves nothing to match against, every
	// record passes.
	if len(v.opts.SearchFields) == 0 {
		return append(out, records...)
	}
	for _, rec := range records {
		if matchesAnyField(rec, v.opts.SearchFields, normalized) {
			out = append(out, rec)
		}
	}
	return out
}

// matchesAnyField is the OR across configured fields. Absent fields never
// match, array values match through their space-joined form.
func matchesAnyField(rec types.Record, fields []string, normalized string) bool {
	for _, field := range fields {
		value, ok := rec.GetField(field)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(types.FieldString(value)), normalized) {
			return true
		}
	}
	return false
}
