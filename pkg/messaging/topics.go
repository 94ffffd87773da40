package messaging

type ChangeTopic string

const (
	RecordsUpserted ChangeTopic = "records_upserted"
	RecordDeleted   ChangeTopic = "record_deleted"
)
