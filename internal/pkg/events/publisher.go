package events

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/finbloc/payblock/app/models"
	"github.com/finbloc/payblock/internal/pkg/env"
)

const (
	EventBlockCreated   = "block.created"
	EventBlockUnblocked = "block.unblocked"
	EventBlockUpdated   = "block.updated"
)

// BlockEvent is published after a block transition commits. Consumers
// (fraud-monitoring pipelines) key on the client identifier.
type BlockEvent struct {
	Type             string     `json:"type"`
	BlockID          uint       `json:"block_id"`
	ClientID         uint       `json:"client_id"`
	ClientIdentifier string     `json:"client_identifier"`
	ReasonCode       string     `json:"reason_code"`
	IsFraud          bool       `json:"is_fraud"`
	Status           string     `json:"status"`
	Actor            string     `json:"actor"`
	OccurredAt       time.Time  `json:"occurred_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// Publisher writes block events to Kafka. A nil Publisher is a no-op, which
// is how the service runs when no broker is configured.
type Publisher struct {
	writer *kafka.Writer
}

var publisher *Publisher

// SetupPublisher wires the global publisher from KAFKA_BROKERS/KAFKA_TOPIC.
// The service works without a broker; events are then dropped.
func SetupPublisher() {
	brokers := env.GetEnv("KAFKA_BROKERS", "")
	if brokers == "" {
		log.Print("Kafka brokers not configured, block events disabled")
		return
	}
	topic := env.GetEnv("KAFKA_TOPIC", "payment-block-events")
	publisher = NewPublisher(strings.Split(brokers, ","), topic)
	log.Printf("Publishing block events to Kafka topic %s", topic)
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one event, keyed by client identifier.
func (p *Publisher) Publish(event BlockEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ClientIdentifier),
		Value: msg,
		Time:  time.Now(),
	})
}

// PublishBlockEvent emits a lifecycle event for the given block, best-effort:
// publish failures are logged and never fail the request that caused them.
func PublishBlockEvent(eventType string, block *models.PaymentBlock, actor string) {
	if publisher == nil {
		return
	}
	event := BlockEvent{
		Type:             eventType,
		BlockID:          block.ID,
		ClientID:         block.ClientID,
		ClientIdentifier: block.Client.ClientIdentifier,
		ReasonCode:       block.Reason.Code,
		IsFraud:          block.Reason.IsFraud,
		Status:           block.Status,
		Actor:            actor,
		OccurredAt:       time.Now(),
		ExpiresAt:        block.ExpiresAt,
	}
	if err := publisher.Publish(event); err != nil {
		log.Printf("failed to publish %s event for block %d: %v", eventType, block.ID, err)
	}
}
