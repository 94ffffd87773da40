package server

import (
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type ListResponse struct {
	Items     []types.Record            `json:"items"`
	Page      int                       `json:"page"`
	PageSize  int                       `json:"pageSize"`
	TotalHits int                       `json:"totalHits"`
	Sort      types.SortState           `json:"sort"`
	Options   *collection.FilterOptions `json:"options,omitempty"`
}

type CollectionInfo struct {
	Name     string              `json:"name"`
	Settings collection.Settings `json:"settings"`
	Total    int                 `json:"total"`
}
