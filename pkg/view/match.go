package view

import (
	"slices"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// MatchFilters builds the standard categorical matcher for the given
// categories. Within one category any selected value passes. Across
// categories the operator decides: AND requires every category with a
// selection to match, OR requires at least one. A record missing the
// category's field never matches that category.
func MatchFilters(categories []types.FilterCategory) FilterFunc {
	return func(rec types.Record, filters types.FilterState, op types.Operator) bool {
		selected := 0
		matched := 0
		for _, category := range categories {
			if category.Scalar {
				want := filters.Scalar(category.Name)
				if want == "" {
					continue
				}
				selected++
				if value, ok := rec.GetField(category.FieldName()); ok {
					if types.FieldString(value) == want {
						matched++
					}
				}
				continue
			}
			wanted := filters.Selected(category.Name)
			if len(wanted) == 0 {
				continue
			}
			selected++
			if value, ok := rec.GetField(category.FieldName()); ok {
				if matchesSelection(value, wanted) {
					matched++
				}
			}
		}
		if selected == 0 {
			return true
		}
		if op == types.OperatorOr {
			return matched > 0
		}
		return matched == selected
	}
}

// matchesSelection checks an array category value. A record field that is
// itself a list matches when it contains any selected value, a scalar
// field matches on its string form.
func matchesSelection(value any, wanted []string) bool {
	if list, ok := value.([]string); ok {
		for _, want := range wanted {
			if slices.Contains(list, want) {
				return true
			}
		}
		return false
	}
	return slices.Contains(wanted, types.FieldString(value))
}
