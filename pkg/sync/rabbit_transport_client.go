package sync

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/collection"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/messaging"
)

type RabbitTransportClient struct {
	RabbitConfig
	connection *amqp.Connection
}

// Connect starts consuming both record topics and applies everything to the
// handler. Each topic gets its own channel since the listener owns and closes
// it when the stream ends.
func (t *RabbitTransportClient) Connect(handler collection.UpdateHandler) error {
	conn, err := amqp.DialConfig(t.Url, amqp.Config{
		Vhost:      t.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return err
	}
	t.connection = conn

	upserts, err := conn.Channel()
	if err != nil {
		return err
	}
	err = messaging.ListenToTopic(upserts, t.TopicPrefix, messaging.RecordsUpserted, func(batch RecordBatch) error {
		log.Printf("Got upserts %s %d", batch.Collection, len(batch.Records))
		handler.Upsert(batch.Collection, batch.Records...)
		return nil
	})
	if err != nil {
		return err
	}

	deletes, err := conn.Channel()
	if err != nil {
		return err
	}
	return messaging.ListenToTopic(deletes, t.TopicPrefix, messaging.RecordDeleted, func(tombstone RecordTombstone) error {
		log.Printf("Got delete %s %s", tombstone.Collection, tombstone.Id)
		handler.Delete(tombstone.Collection, tombstone.Id)
		return nil
	})
}

func (t *RabbitTransportClient) Close() error {
	if t.connection != nil && !t.connection.IsClosed() {
		return t.connection.Close()
	}
	return nil
}
