package types

import (
	"slices"
	"strings"
)

type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Direction is the comparator multiplier for this order.
func (o SortOrder) Direction() int {
	if o == SortDescending {
		return -1
	}
	return 1
}

func ParseSortOrder(value string) SortOrder {
	if strings.EqualFold(value, string(SortDescending)) {
		return SortDescending
	}
	return SortAscending
}

// SortState is the active sort column and direction. An empty Field means
// "keep input order". Field and Order always change together.
type SortState struct {
	Field string    `json:"sortBy"`
	Order SortOrder `json:"sortOrder"`
}

func (s SortState) IsZero() bool {
	return s.Field == ""
}

type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

func ParseOperator(value string) Operator {
	if strings.EqualFold(value, string(OperatorOr)) {
		return OperatorOr
	}
	return OperatorAnd
}

// DateRange holds inclusive ISO date bounds. Either side may be empty.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Contains reports whether the date portion of value falls inside the range.
// Bounds compare on the YYYY-MM-DD prefix only, so a bound of "2024-03-01"
// includes every timestamp on that day.
func (r DateRange) Contains(value string) bool {
	if value == "" {
		return false
	}
	day := DatePortion(value)
	if r.From != "" && day < DatePortion(r.From) {
		return false
	}
	if r.To != "" && day > DatePortion(r.To) {
		return false
	}
	return true
}

func DatePortion(value string) string {
	if len(value) > 10 {
		return value[:10]
	}
	return value
}

// FilterCategory declares one filter chip group on a list view. Array
// categories collect a set of values, scalar categories hold at most one.
type FilterCategory struct {
	Name   string `json:"name"`
	Param  string `json:"param,omitempty"`
	Field  string `json:"field,omitempty"`
	Scalar bool   `json:"scalar,omitempty"`
}

func (c FilterCategory) ParamName() string {
	if c.Param != "" {
		return c.Param
	}
	return c.Name
}

func (c FilterCategory) FieldName() string {
	if c.Field != "" {
		return c.Field
	}
	return c.Name
}

// FilterState is the selected values per category. Values within one array
// category always combine with OR; how categories combine is the caller's
// Operator.
type FilterState struct {
	Arrays  map[string][]string `json:"arrays"`
	Scalars map[string]string   `json:"scalars"`
}

func NewFilterState() FilterState {
	return FilterState{
		Arrays:  map[string][]string{},
		Scalars: map[string]string{},
	}
}

func (f FilterState) Clone() FilterState {
	clone := FilterState{
		Arrays:  make(map[string][]string, len(f.Arrays)),
		Scalars: make(map[string]string, len(f.Scalars)),
	}
	for name, values := range f.Arrays {
		clone.Arrays[name] = slices.Clone(values)
	}
	for name, value := range f.Scalars {
		clone.Scalars[name] = value
	}
	return clone
}

// Toggle adds value to an array category, or removes it when already
// selected.
func (f *FilterState) Toggle(category, value string) {
	if f.Arrays == nil {
		f.Arrays = map[string][]string{}
	}
	current := f.Arrays[category]
	if idx := slices.Index(current, value); idx >= 0 {
		f.Arrays[category] = slices.Delete(current, idx, idx+1)
		return
	}
	f.Arrays[category] = append(current, value)
}

// Set replaces the value of a scalar category.
func (f *FilterState) Set(category, value string) {
	if f.Scalars == nil {
		f.Scalars = map[string]string{}
	}
	f.Scalars[category] = value
}

func (f FilterState) Selected(category string) []string {
	return f.Arrays[category]
}

func (f FilterState) Scalar(category string) string {
	return f.Scalars[category]
}

// SelectionCount is every selected array value plus every non-empty scalar.
func (f FilterState) SelectionCount() int {
	count := 0
	for _, values := range f.Arrays {
		count += len(values)
	}
	for _, value := range f.Scalars {
		if value != "" {
			count++
		}
	}
	return count
}

func (f FilterState) IsEmpty() bool {
	return f.SelectionCount() == 0
}

func (f FilterState) Equal(other FilterState) bool {
	if f.SelectionCount() != other.SelectionCount() {
		return false
	}
	for name, values := range f.Arrays {
		theirs := other.Arrays[name]
		if len(values) != len(theirs) {
			return false
		}
		for _, v := range values {
			if !slices.Contains(theirs, v) {
				return false
			}
		}
	}
	for name, value := range f.Scalars {
		if value != other.Scalars[name] {
			return false
		}
	}
	return true
}
