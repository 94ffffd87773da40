package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/querystate"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

const DefaultPageSize = 50

// ListRequest is one page of a collection list view. GET requests carry
// everything in the query string, the filter selection in the parameters
// the collection's categories declare; POST requests carry the same thing
// as a json body.
type ListRequest struct {
	Query    string            `json:"q" schema:"q"`
	Sort     string            `json:"sort" schema:"sort"`
	Order    string            `json:"order" schema:"order"`
	Op       string            `json:"op" schema:"op"`
	Page     int               `json:"page" schema:"page"`
	PageSize int               `json:"size" schema:"size,default:50"`
	Filters  types.FilterState `json:"filters" schema:"-"`
	Dates    types.DateRange   `json:"dates" schema:"-"`
}

// SortState resolves the requested sort against the collection default.
func (lr *ListRequest) SortState(settings collection.Settings) types.SortState {
	if lr.Sort == "" {
		return settings.DefaultSort
	}
	return types.SortState{Field: lr.Sort, Order: types.ParseSortOrder(lr.Order)}
}

// Operator resolves the requested operator; collections without the
// operator toggle always combine categories with AND.
func (lr *ListRequest) Operator(settings collection.Settings) types.Operator {
	if !settings.Operator {
		return types.OperatorAnd
	}
	return types.ParseOperator(lr.Op)
}

// filterMapping is the query-string contract of a collection: q, between
// and op plus one parameter per category. Category search and operator are
// left to gorilla/schema, the mapping only owns filters and the range.
func filterMapping(settings collection.Settings) querystate.Mapping {
	params := map[string]string{}
	for _, category := range settings.Categories {
		if category.Param != "" {
			params[category.Name] = category.Param
		}
	}
	return querystate.Mapping{
		Range:  "between",
		Params: params,
	}
}

func ListRequestFromRequest(r *http.Request, settings collection.Settings) (*ListRequest, error) {
	lr := &ListRequest{}
	if r.Method == http.MethodGet {
		query := r.URL.Query()
		decoder := schema.NewDecoder()
		decoder.IgnoreUnknownKeys(true)
		if err := decoder.Decode(lr, query); err != nil {
			return nil, err
		}
		state := filterMapping(settings).Decode(query, settings.Categories)
		lr.Filters = state.Filters
		lr.Dates = state.Dates
	} else {
		if err := json.NewDecoder(r.Body).Decode(lr); err != nil {
			return nil, err
		}
	}
	if lr.PageSize <= 0 {
		lr.PageSize = DefaultPageSize
	}
	if lr.Page < 0 {
		lr.Page = 0
	}
	return lr, nil
}
