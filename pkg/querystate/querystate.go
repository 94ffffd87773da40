// Package querystate serializes list view state to query-string parameters
// and back, so a filtered view survives reload and link sharing.
package querystate

import (
	"net/url"
	"slices"
	"strings"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

const DefaultSeparator = ","

// Mapping names the query parameters a view owns. Search, Range and
// Operator name single parameters and disable their concern when empty.
// Params renames filter categories; a category without an entry uses its
// own name. Separator joins array values, default comma.
type Mapping struct {
	Search    string
	Range     string
	Operator  string
	Params    map[string]string
	Separator string
}

// State is the URL-visible slice of a page view: the effective search
// term, the selected filters, the date range and the category operator.
type State struct {
	Search  string
	Filters types.FilterState
	Dates   types.DateRange
	Op      types.Operator
}

func (m Mapping) separator() string {
	if m.Separator == "" {
		return DefaultSeparator
	}
	return m.Separator
}

func (m Mapping) paramFor(category string) string {
	if param := m.Params[category]; param != "" {
		return param
	}
	return category
}

// OwnedParams lists every parameter name this mapping can write, used to
// strip view state from a URL without touching unrelated parameters.
func (m Mapping) OwnedParams(categories []types.FilterCategory) []string {
	params := make([]string, 0, len(categories)+3)
	if m.Search != "" {
		params = append(params, m.Search)
	}
	if m.Range != "" {
		params = append(params, m.Range)
	}
	if m.Operator != "" {
		params = append(params, m.Operator)
	}
	for _, category := range categories {
		params = append(params, m.paramFor(category.Name))
	}
	return params
}

// Encode writes state into values. Empty pieces remove their parameter
// instead of writing an empty one, so an untouched view leaves the URL
// untouched. The operator is written only when it differs from the AND
// default.
func (m Mapping) Encode(state State, categories []types.FilterCategory, values url.Values) {
	setOrDelete := func(param, value string) {
		if param == "" {
			return
		}
		if value == "" {
			values.Del(param)
			return
		}
		values.Set(param, value)
	}

	setOrDelete(m.Search, state.Search)

	for _, category := range categories {
		param := m.paramFor(category.Name)
		if category.Scalar {
			setOrDelete(param, state.Filters.Scalar(category.Name))
			continue
		}
		setOrDelete(param, strings.Join(state.Filters.Selected(category.Name), m.separator()))
	}

	if state.Dates.IsZero() {
		setOrDelete(m.Range, "")
	} else {
		setOrDelete(m.Range, state.Dates.From+m.separator()+state.Dates.To)
	}

	if state.Op == types.OperatorOr {
		setOrDelete(m.Operator, string(types.OperatorOr))
	} else {
		setOrDelete(m.Operator, "")
	}
}

// Decode reads the owned parameters back into a State. Absent and empty
// parameters leave their piece zero, the caller fills defaults. Malformed
// values degrade: an array parameter without the separator becomes a one
// element selection, a range with a single bound becomes from-only.
func (m Mapping) Decode(values url.Values, categories []types.FilterCategory) State {
	state := State{Filters: types.NewFilterState()}

	if m.Search != "" {
		state.Search = values.Get(m.Search)
	}

	for _, category := range categories {
		raw := values.Get(m.paramFor(category.Name))
		if raw == "" {
			continue
		}
		if category.Scalar {
			state.Filters.Set(category.Name, raw)
			continue
		}
		selected := splitValues(raw, m.separator())
		if len(selected) > 0 {
			state.Filters.Arrays[category.Name] = selected
		}
	}

	if m.Range != "" {
		if raw := values.Get(m.Range); raw != "" {
			state.Dates = parseRange(raw, m.separator())
		}
	}

	if m.Operator != "" {
		if raw := values.Get(m.Operator); raw != "" {
			state.Op = types.ParseOperator(raw)
		}
	}

	return state
}

// splitValues splits an array parameter and drops empties and duplicates.
func splitValues(raw, separator string) []string {
	parts := strings.Split(raw, separator)
	selected := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !slices.Contains(selected, part) {
			selected = append(selected, part)
		}
	}
	return selected
}

// parseRange accepts both the serialized "from<sep>to" pair and the
// compact "from..to" form.
func parseRange(raw, separator string) types.DateRange {
	if strings.Contains(raw, "..") {
		parts := strings.SplitN(raw, "..", 2)
		return types.DateRange{From: parts[0], To: parts[1]}
	}
	parts := strings.Split(raw, separator)
	switch len(parts) {
	case 1:
		return types.DateRange{From: parts[0]}
	default:
		return types.DateRange{From: parts[0], To: parts[1]}
	}
}
