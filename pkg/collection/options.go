package collection

import (
	"slices"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/compare"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

// OptionCount is one selectable filter value and how many records carry it.
type OptionCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoryOptions lists the distinct values of one declared category.
type CategoryOptions struct {
	Name    string        `json:"name"`
	Scalar  bool          `json:"scalar,omitempty"`
	Options []OptionCount `json:"options"`
}

// FilterOptions is everything a frontend needs to render the filter bar
// of one collection: per-category value counts and the span of the date
// field.
type FilterOptions struct {
	Collection string            `json:"collection"`
	Total      int               `json:"total"`
	Categories []CategoryOptions `json:"categories"`
	DateField  string            `json:"dateField,omitempty"`
	DateSpan   *types.DateRange  `json:"dateSpan,omitempty"`
}

// FilterOptions walks the live records once and counts distinct values per
// declared category. Array-valued fields contribute every element. Values
// order by count, ties by natural string order.
func (c *Collection) FilterOptions() FilterOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()

	options := FilterOptions{
		Collection: c.name,
		DateField:  c.settings.DateField,
	}
	counts := make([]map[string]int, len(c.settings.Categories))
	for i := range counts {
		counts[i] = map[string]int{}
	}
	var dateSpan *types.DateRange

	for _, rec := range c.records {
		if rec.IsDeleted() {
			continue
		}
		options.Total++
		for i, category := range c.settings.Categories {
			value, ok := rec.GetField(category.FieldName())
			if !ok {
				continue
			}
			if list, isList := value.([]string); isList {
				for _, entry := range list {
					if entry != "" {
						counts[i][entry]++
					}
				}
				continue
			}
			if s := types.FieldString(value); s != "" {
				counts[i][s]++
			}
		}
		if c.settings.DateField != "" {
			if value, ok := rec.GetField(c.settings.DateField); ok {
				day := types.DatePortion(types.FieldString(value))
				if dateSpan == nil {
					dateSpan = &types.DateRange{From: day, To: day}
				} else {
					if day < dateSpan.From {
						dateSpan.From = day
					}
					if day > dateSpan.To {
						dateSpan.To = day
					}
				}
			}
		}
	}

	options.DateSpan = dateSpan
	options.Categories = make([]CategoryOptions, len(c.settings.Categories))
	for i, category := range c.settings.Categories {
		entry := CategoryOptions{
			Name:    category.Name,
			Scalar:  category.Scalar,
			Options: make([]OptionCount, 0, len(counts[i])),
		}
		for value, count := range counts[i] {
			entry.Options = append(entry.Options, OptionCount{Value: value, Count: count})
		}
		slices.SortFunc(entry.Options, func(a, b OptionCount) int {
			if a.Count != b.Count {
				return b.Count - a.Count
			}
			return compare.Natural(a.Value, b.Value)
		})
		options.Categories[i] = entry
	}
	return options
}
