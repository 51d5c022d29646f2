package kafka

import "time"

// EventType определяет тип доменного события.
type EventType string

const (
	EventTypeOrderCreated   EventType = "OrderCreated"
	EventTypeOrderUpdated   EventType = "OrderUpdated"
	EventTypeOrderCompleted EventType = "OrderCompleted"
	EventTypeOrderCancelled EventType = "OrderCancelled"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "orchid.order.events"
	TopicDeadLetterQueue = "orchid.dlq"
)

// Kafka headers для retry логики.
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderEvent представляет событие заказа для внешних consumer-ов.
type OrderEvent struct {
	EventType EventType              `json:"event_type"`
	OrderID   string                 `json:"order_id"`
	OwnerID   string                 `json:"owner_id"`
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа.
func NewOrderEvent(eventType EventType, orderID, ownerID, status string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType: eventType,
		OrderID:   orderID,
		OwnerID:   ownerID,
		Status:    status,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
