package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Event struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DocumentEvent describes one document status change.
type DocumentEvent struct {
	DocumentID string  `json:"documento_id"`
	EstagioID  string  `json:"estagio_id"`
	Versao     float64 `json:"versao"`
	Status     string  `json:"status"`
	ActorID    string  `json:"usuario_id"`
	Message    string  `json:"observacoes,omitempty"`
}

const (
	ChannelDocument = "estagio:events:document"

	TypeDocumentStatus = "document.status_changed"
)

// Publisher is what the services depend on; Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Bus struct {
	client redis.UniversalClient
}

func NewBus(client redis.UniversalClient) *Bus {
	return &Bus{client: client}
}

func NewEvent(eventType string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}, nil
}

func (b *Bus) Publish(ctx context.Context, channel string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, payload).Err()
}

// PublishDocument wraps ev in an Event and publishes it on ChannelDocument.
func PublishDocument(ctx context.Context, p Publisher, ev DocumentEvent) error {
	event, err := NewEvent(TypeDocumentStatus, ev)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ChannelDocument, event)
}
