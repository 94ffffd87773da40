package view

import (
	"context"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/querystate"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// FilterFunc decides whether a record passes the categorical filters
// under the given operator. A nil FilterFunc on PageOptions means no
// categorical pass at all.
type FilterFunc func(rec types.Record, filters types.FilterState, op types.Operator) bool

// PageOptions configures a PageView. DateField enables the date range
// pass when non-empty, EnableOperator exposes the AND/OR switch, Sync
// plus History enable query-string synchronization. Reset supplies the
// clear-all state when Defaults alone is too plain.
type PageOptions struct {
	View           Options
	Categories     []types.FilterCategory
	Defaults       types.FilterState
	Reset          func() types.FilterState
	FieldFilter    FilterFunc
	DateField      string
	EnableOperator bool
	Sync           *querystate.Mapping
	History        History
	OnChange       func()
}

// PageView composes a View with categorical filters, an optional date
// range, an optional category operator and optional URL synchronization.
// When synced, the current query string is read once at construction and
// its values win over the configured defaults for every parameter
// present.
type PageView struct {
	opts    PageOptions
	engine  *View
	history History
	sync    *querystate.Mapping

	mu      sync.Mutex
	filters types.FilterState
	dates   types.DateRange
	op      types.Operator

	// applying marks an external URL change being written into local
	// state. State-to-URL writes are suppressed while it is set so the
	// write cannot echo back as another navigation.
	applying atomic.Bool
}

func NewPage(opts PageOptions) *PageView {
	pv := &PageView{
		opts:    opts,
		history: opts.History,
		sync:    opts.Sync,
	}
	filters := pv.resetFilters()
	dates := types.DateRange{}
	op := types.OperatorAnd
	engineOpts := opts.View
	if pv.synced() {
		decoded := pv.sync.Decode(pv.history.Current(), opts.Categories)
		overlayFilters(&filters, decoded.Filters)
		if decoded.Search != "" {
			engineOpts.InitialTerm = decoded.Search
		}
		if !decoded.Dates.IsZero() {
			dates = decoded.Dates
		}
		if decoded.Op != "" {
			op = decoded.Op
		}
	}
	engineOpts.OnChange = pv.engineChanged
	pv.engine = New(engineOpts)
	pv.filters = filters
	pv.dates = dates
	pv.op = op
	return pv
}

// HandleFilterChange toggles value in an array category and replaces the
// value of a scalar category.
func (pv *PageView) HandleFilterChange(category, value string) {
	pv.mu.Lock()
	if pv.isScalar(category) {
		pv.filters.Set(category, value)
	} else {
		pv.filters.Toggle(category, value)
	}
	pv.mu.Unlock()
	pv.syncURL()
	pv.notify()
}

func (pv *PageView) isScalar(category string) bool {
	for _, c := range pv.opts.Categories {
		if c.Name == category {
			return c.Scalar
		}
	}
	_, ok := pv.filters.Scalars[category]
	return ok
}

func (pv *PageView) SetDateRange(from, to string) {
	pv.mu.Lock()
	pv.dates = types.DateRange{From: from, To: to}
	pv.mu.Unlock()
	pv.syncURL()
	pv.notify()
}

func (pv *PageView) SetOperator(op types.Operator) {
	pv.mu.Lock()
	pv.op = op
	pv.mu.Unlock()
	pv.syncURL()
	pv.notify()
}

func (pv *PageView) SetSearchTerm(term string) {
	pv.engine.SetSearchTerm(term)
}

func (pv *PageView) HandleSort(field string) {
	pv.engine.HandleSort(field)
}

func (pv *PageView) SortArrow(field string) string {
	return pv.engine.SortArrow(field)
}

func (pv *PageView) Sort() types.SortState {
	return pv.engine.Sort()
}

func (pv *PageView) SearchTerm() string {
	return pv.engine.SearchTerm()
}

func (pv *PageView) EffectiveTerm() string {
	return pv.engine.EffectiveTerm()
}

func (pv *PageView) Filters() types.FilterState {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.filters.Clone()
}

func (pv *PageView) Dates() types.DateRange {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.dates
}

func (pv *PageView) Operator() types.Operator {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.op
}

// ClearAll returns the page to its default state: filters back to their
// defaults, search term and date range cleared, operator back to AND, and
// every owned query parameter stripped in the same step. Running it twice
// lands on the same state as running it once.
func (pv *PageView) ClearAll() {
	pv.applying.Store(true)
	pv.mu.Lock()
	pv.filters = pv.resetFilters()
	pv.dates = types.DateRange{}
	pv.op = types.OperatorAnd
	pv.mu.Unlock()
	pv.engine.ResetSearch()
	pv.applying.Store(false)
	if pv.synced() {
		values := pv.history.Current()
		for _, param := range pv.sync.OwnedParams(pv.opts.Categories) {
			values.Del(param)
		}
		pv.history.Replace(values)
	}
	pv.notify()
}

// ActiveFilterCount sums selected array values, non-empty scalars, a
// non-empty raw search term, a set date range and a non-default operator.
// The raw term counts even when it is only whitespace; trimming happens
// at the matching layer, not here.
func (pv *PageView) ActiveFilterCount() int {
	pv.mu.Lock()
	count := pv.filters.SelectionCount()
	if pv.opts.DateField != "" && !pv.dates.IsZero() {
		count++
	}
	if pv.opts.EnableOperator && pv.op == types.OperatorOr {
		count++
	}
	pv.mu.Unlock()
	if pv.engine.SearchTerm() != "" {
		count++
	}
	return count
}

// Apply runs the page pipeline over records: the categorical filter pass,
// then the date range pass, then search and sort.
func (pv *PageView) Apply(records []types.Record) []types.Record {
	pv.mu.Lock()
	filters := pv.filters.Clone()
	dates := pv.dates
	op := pv.op
	pv.mu.Unlock()

	out := records
	if pv.opts.FieldFilter != nil {
		out = ApplyFilters(out, pv.opts.FieldFilter, filters, op)
	}
	out = ApplyDateRange(out, pv.opts.DateField, dates)
	return pv.engine.Apply(out)
}

// ApplyFilters runs one categorical filter pass. The input is never
// mutated.
func ApplyFilters(records []types.Record, fn FilterFunc, filters types.FilterState, op types.Operator) []types.Record {
	if fn == nil {
		return records
	}
	kept := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if fn(rec, filters, op) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// ApplyDateRange keeps records whose field value falls inside the range,
// comparing date portions only. Records without a usable value drop out
// whenever a bound is set. An empty field name or range passes everything
// through.
func ApplyDateRange(records []types.Record, field string, dates types.DateRange) []types.Record {
	if field == "" || dates.IsZero() {
		return records
	}
	kept := make([]types.Record, 0, len(records))
	for _, rec := range records {
		value, ok := rec.GetField(field)
		if ok && dates.Contains(types.FieldString(value)) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// ApplyExternal installs a query string that changed outside the view,
// rebuilding state from the defaults with URL values winning for every
// parameter present. The search term follows the usual debounce.
func (pv *PageView) ApplyExternal(values url.Values) {
	if pv.sync == nil {
		return
	}
	decoded := pv.sync.Decode(values, pv.opts.Categories)
	pv.applying.Store(true)
	pv.mu.Lock()
	filters := pv.resetFilters()
	overlayFilters(&filters, decoded.Filters)
	pv.filters = filters
	pv.dates = decoded.Dates
	if decoded.Op != "" {
		pv.op = decoded.Op
	} else {
		pv.op = types.OperatorAnd
	}
	pv.mu.Unlock()
	pv.engine.SetSearchTerm(decoded.Search)
	pv.applying.Store(false)
	pv.notify()
}

// Watch feeds external history changes into ApplyExternal until ctx is
// cancelled.
func (pv *PageView) Watch(ctx context.Context) {
	if !pv.synced() {
		return
	}
	changes := pv.history.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case values, ok := <-changes:
			if !ok {
				return
			}
			pv.ApplyExternal(values)
		}
	}
}

// Close cancels any pending debounce.
func (pv *PageView) Close() {
	pv.engine.Stop()
}

func (pv *PageView) engineChanged() {
	pv.syncURL()
	pv.notify()
}

// syncURL writes the current state into the owned query parameters,
// leaving unrelated parameters alone. Writes identical to the current
// query are skipped, which also swallows the post-debounce echo after an
// external change landed.
func (pv *PageView) syncURL() {
	if !pv.synced() || pv.applying.Load() {
		return
	}
	current := pv.history.Current()
	updated := cloneValues(current)
	pv.sync.Encode(pv.state(), pv.opts.Categories, updated)
	if updated.Encode() == current.Encode() {
		return
	}
	pv.history.Replace(updated)
}

func (pv *PageView) state() querystate.State {
	pv.mu.Lock()
	state := querystate.State{
		Filters: pv.filters.Clone(),
		Dates:   pv.dates,
		Op:      pv.op,
	}
	pv.mu.Unlock()
	state.Search = pv.engine.EffectiveTerm()
	return state
}

func (pv *PageView) resetFilters() types.FilterState {
	var filters types.FilterState
	if pv.opts.Reset != nil {
		filters = pv.opts.Reset()
	} else {
		filters = pv.opts.Defaults.Clone()
	}
	if filters.Arrays == nil {
		filters.Arrays = map[string][]string{}
	}
	if filters.Scalars == nil {
		filters.Scalars = map[string]string{}
	}
	return filters
}

func (pv *PageView) synced() bool {
	return pv.sync != nil && pv.history != nil
}

func (pv *PageView) notify() {
	if pv.opts.OnChange != nil {
		pv.opts.OnChange()
	}
}

func overlayFilters(base *types.FilterState, overlay types.FilterState) {
	for name, values := range overlay.Arrays {
		base.Arrays[name] = slices.Clone(values)
	}
	for name, value := range overlay.Scalars {
		base.Scalars[name] = value
	}
}
