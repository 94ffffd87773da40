package tracking

import (
	"log"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/messaging"
	"github.com/mjaychoi/HC-Violins-and-Bows-sub009/pkg/types"
)

type RabbitTracking struct {
	connection *amqp.Connection
}

const trackingTopic = "tracking"

func NewRabbitTracking(url string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		connection: nil,
	}
	err := ret.connect(url)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return messaging.DefineTopic(ch, "global", trackingTopic)
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) send(data any) error {
	return messaging.SendChange(t.connection, "global", trackingTopic, data)
}

type BaseEvent struct {
	SessionId int    `json:"session_id"`
	Event     uint16 `json:"event"`
}

type Session struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Ip        string `json:"ip,omitempty"`
	Language  string `json:"language,omitempty"`
}

func (rt *RabbitTracking) TrackSession(sessionId int, r *http.Request) {
	ip := r.Header.Get("X-Real-Ip")
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}

	err := rt.send(Session{
		BaseEvent: &BaseEvent{Event: 0, SessionId: sessionId},
		Language:  r.Header.Get("Accept-Language"),
		UserAgent: r.UserAgent(),
		Ip:        ip,
	})
	if err != nil {
		log.Println("Error sending session event: ", err)
	}
}

type SearchEvent struct {
	*BaseEvent
	Collection      string            `json:"collection"`
	Query           string            `json:"query,omitempty"`
	Filters         types.FilterState `json:"filters"`
	NumberOfResults int               `json:"noi"`
	Referer         string            `json:"referer,omitempty"`
}

func (rt *RabbitTracking) TrackSearch(sessionId int, collection string, filters types.FilterState, query string, hits int, r *http.Request) {
	err := rt.send(&SearchEvent{
		BaseEvent:       &BaseEvent{Event: 1, SessionId: sessionId},
		Collection:      collection,
		Query:           query,
		Filters:         filters,
		NumberOfResults: hits,
		Referer:         r.Header.Get("Referer"),
	})
	if err != nil {
		log.Println("Error sending search event: ", err)
	}
}

type ViewEvent struct {
	*BaseEvent
	Collection string         `json:"collection"`
	Id         types.RecordId `json:"id"`
}

func (rt *RabbitTracking) TrackView(sessionId int, collection string, id types.RecordId) {
	err := rt.send(&ViewEvent{
		BaseEvent:  &BaseEvent{Event: 2, SessionId: sessionId},
		Collection: collection,
		Id:         id,
	})
	if err != nil {
		log.Println("Error sending view event: ", err)
	}
}
