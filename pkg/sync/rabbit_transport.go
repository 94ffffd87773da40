package sync

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/messaging"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type RabbitTransportMaster struct {
	RabbitConfig
	connection *amqp.Connection
}

func (t *RabbitTransportMaster) Connect() error {
	conn, err := amqp.DialConfig(t.Url, amqp.Config{
		Vhost:      t.VHost,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	if err := messaging.DefineTopic(ch, t.TopicPrefix, messaging.RecordsUpserted); err != nil {
		return err
	}
	return messaging.DefineTopic(ch, t.TopicPrefix, messaging.RecordDeleted)
}

func (t *RabbitTransportMaster) SendRecordsUpserted(collection string, records []*types.DataRecord) error {
	if t.connection == nil {
		return fmt.Errorf("master transport is not connected")
	}
	return messaging.SendChange(t.connection, t.TopicPrefix, messaging.RecordsUpserted, RecordBatch{
		Collection: collection,
		Records:    records,
	})
}

func (t *RabbitTransportMaster) SendRecordDeleted(collection string, id types.RecordId) error {
	if t.connection == nil {
		return fmt.Errorf("master transport is not connected")
	}
	return messaging.SendChange(t.connection, t.TopicPrefix, messaging.RecordDeleted, RecordTombstone{
		Collection: collection,
		Id:         id,
	})
}

func (t *RabbitTransportMaster) Close() error {
	if t.connection != nil && !t.connection.IsClosed() {
		return t.connection.Close()
	}
	return nil
}
