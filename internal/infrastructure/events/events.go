// Package events publishes sale and settlement events for downstream
// consumers such as accounting and inventory.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/pkg/kafka"
	"go.uber.org/zap"
)

const (
	EventSaleCompleted       = "sale.completed"
	EventSaleRefunded        = "sale.refunded"
	EventSettlementConfirmed = "settlement.confirmed"
)

// Event is the envelope written to the topic.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	BranchID  uuid.UUID `json:"branch_id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType string, branchID uuid.UUID, payload any) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		BranchID:  branchID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	}
}

// Publisher sends domain events. Publishing is best effort: a failure is
// logged by the caller and never undoes the write that produced the event.
type Publisher interface {
	PublishSale(ctx context.Context, key string, evt Event) error
	PublishSettlement(ctx context.Context, key string, evt Event) error
}

// KafkaPublisher writes events to Kafka, one topic for sales and one for
// settlements.
type KafkaPublisher struct {
	client           *kafka.Client
	salesTopic       string
	settlementsTopic string
}

// NewPublisher returns a Kafka publisher, or a no-op one when the client
// has no brokers configured.
func NewPublisher(client *kafka.Client, salesTopic, settlementsTopic string, log *zap.Logger) Publisher {
	if client == nil || !client.Enabled() {
		log.Info("kafka disabled, events will not be published")
		return NopPublisher{}
	}
	return &KafkaPublisher{client: client, salesTopic: salesTopic, settlementsTopic: settlementsTopic}
}

func (p *KafkaPublisher) PublishSale(ctx context.Context, key string, evt Event) error {
	return p.client.PublishJSON(ctx, p.salesTopic, key, evt)
}

func (p *KafkaPublisher) PublishSettlement(ctx context.Context, key string, evt Event) error {
	return p.client.PublishJSON(ctx, p.settlementsTopic, key, evt)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishSale(ctx context.Context, key string, evt Event) error {
	return nil
}

func (NopPublisher) PublishSettlement(ctx context.Context, key string, evt Event) error {
	return nil
}
