package sync

import (
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type RabbitConfig struct {
	Url         string
	VHost       string
	TopicPrefix string
}

type TransportMaster interface {
	Connect() error
	SendRecordsUpserted(collection string, records []*types.DataRecord) error
	SendRecordDeleted(collection string, id types.RecordId) error
	Close() error
}

type TransportClient interface {
	Connect(handler collection.UpdateHandler) error
	Close() error
}

// RecordBatch is the wire payload for upserts, records travel together with
// the collection they belong to.
type RecordBatch struct {
	Collection string              `json:"collection"`
	Records    []*types.DataRecord `json:"records"`
}

type RecordTombstone struct {
	Collection string         `json:"collection"`
	Id         types.RecordId `json:"id"`
}
