package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// rawPublisher — минимальный контракт продюсера; выделен для подмены в тестах.
type rawPublisher interface {
	Publish(topic, key string, value []byte, headers map[string]string) error
}

// outboxEnvelope — формат сообщения в topic событий заказов.
type outboxEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

func buildEnvelope(event domain.OutboxMessage) outboxEnvelope {
	return outboxEnvelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}
}

func messageKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer rawPublisher
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	p := &OutboxTopicPublisher{topic: topic}
	if producer != nil {
		p.producer = producer
	}
	return p
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	value, err := json.Marshal(buildEnvelope(event))
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}
	return p.producer.Publish(p.topic, messageKey(event), value, nil)
}

// DLQPublisher отправляет не доставленные события в dead letter topic.
// Исходный topic, время сбоя и текст ошибки уходят в заголовки, чтобы
// по DLQ можно было фильтровать без разбора тела.
type DLQPublisher struct {
	producer    rawPublisher
	topic       string
	sourceTopic string
}

// NewDLQPublisher создаёт паблишер dead letter topic-а.
func NewDLQPublisher(producer *Producer, sourceTopic string) domain.OutboxPublisher {
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	p := &DLQPublisher{topic: TopicDeadLetterQueue, sourceTopic: sourceTopic}
	if producer != nil {
		p.producer = producer
	}
	return p
}

func (p *DLQPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}

	value, err := json.Marshal(buildEnvelope(event))
	if err != nil {
		return fmt.Errorf("marshal dlq envelope: %w", err)
	}

	headers := map[string]string{
		HeaderOriginalTopic: p.sourceTopic,
		HeaderFailedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if reason := extractPublishError(event.Payload); reason != "" {
		headers[HeaderErrorMessage] = reason
	}

	return p.producer.Publish(p.topic, messageKey(event), value, headers)
}

// extractPublishError достаёт текст ошибки из payload, собранного outbox worker-ом.
func extractPublishError(payload []byte) string {
	var wrapped struct {
		PublishError string `json:"publish_error"`
	}
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return ""
	}
	return wrapped.PublishError
}

var (
	_ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
	_ domain.OutboxPublisher = (*DLQPublisher)(nil)
)
