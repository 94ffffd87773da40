package messaging

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareBindAndConsume binds an exclusive anonymous queue to the topic
// exchange so every listener gets its own copy of the stream.
func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	err = ch.QueueBind(q.Name, name, name, false, nil)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// ListenToTopic consumes json payloads of type V until the channel closes or
// the handler fails. Messages that cannot be decoded are acked and dropped,
// handler errors stop the listener and leave the message unacked.
func ListenToTopic[V any](ch *amqp.Channel, prefix string, topic ChangeTopic, handle func(V) error) error {
	fc, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}

	go func(msgs <-chan amqp.Delivery) {
		defer ch.Close()
		for d := range msgs {
			var data V
			if err := json.Unmarshal(d.Body, &data); err != nil {
				log.Printf("Failed to unmarshal %s message: %v", topic, err)
				d.Ack(false)
				continue
			}
			if err := handle(data); err != nil {
				log.Printf("Error processing message: %v", err)
				return
			}
			d.Ack(false)
		}
	}(fc)
	return nil
}
