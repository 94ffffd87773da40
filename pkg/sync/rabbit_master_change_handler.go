package sync

import (
	"log"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/common"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type queuedRecord struct {
	collection string
	record     *types.DataRecord
}

// RabbitMasterChangeHandler forwards registry changes to the transport.
// Upserts are collected by the queue handler and published in batches,
// deletes go out right away.
type RabbitMasterChangeHandler struct {
	Master TransportMaster
	queue  *common.QueueHandler[queuedRecord]
}

func NewRabbitMasterChangeHandler(master TransportMaster) *RabbitMasterChangeHandler {
	r := &RabbitMasterChangeHandler{Master: master}
	r.queue = common.NewQueueHandler(r.processRecords, 500)
	return r
}

func (r *RabbitMasterChangeHandler) processRecords(items []queuedRecord) {
	batches := map[string][]*types.DataRecord{}
	for _, item := range items {
		batches[item.collection] = append(batches[item.collection], item.record)
	}
	for name, records := range batches {
		if err := r.Master.SendRecordsUpserted(name, records); err != nil {
			log.Printf("Failed to send records upserted %v", err)
			continue
		}
		log.Printf("Records changed %s %d", name, len(records))
	}
}

func (r *RabbitMasterChangeHandler) RecordsUpserted(collection string, records []*types.DataRecord) {
	if len(records) == 0 {
		return
	}
	queued := make([]queuedRecord, len(records))
	for i, record := range records {
		queued[i] = queuedRecord{collection: collection, record: record}
	}
	r.queue.Add(queued...)
}

func (r *RabbitMasterChangeHandler) RecordDeleted(collection string, id types.RecordId) {
	if err := r.Master.SendRecordDeleted(collection, id); err != nil {
		log.Printf("Failed to send record deleted %v", err)
		return
	}
	log.Printf("Record deleted %s %s", collection, id)
}

// Flush publishes whatever is still queued, used on shutdown.
func (r *RabbitMasterChangeHandler) Flush() {
	r.queue.Drain()
}

// Stop ends the background publisher after a final flush.
func (r *RabbitMasterChangeHandler) Stop() {
	r.queue.Stop()
	r.queue.Drain()
}
