package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики операций жизненного цикла заказа.
type OrderMetrics struct {
	ordersCreated   prometheus.Counter
	ordersUpdated   prometheus.Counter
	ordersCompleted prometheus.Counter
	ordersCancelled prometheus.Counter

	opDuration *prometheus.HistogramVec

	outboxEvents prometheus.Counter
}

// NewOrderMetrics создаёт метрики в default registry.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orchid_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersUpdated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orchid_orders_updated_total",
			Help: "Total number of order line-set replacements",
		}),
		ordersCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orchid_orders_completed_total",
			Help: "Total number of orders paid and completed",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orchid_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		opDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orchid_order_operation_duration_seconds",
			Help:    "Duration of order lifecycle operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orchid_outbox_events_total",
			Help: "Total number of order events enqueued to the outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderUpdated увеличивает счётчик замен набора позиций.
func (m *OrderMetrics) RecordOrderUpdated() {
	m.ordersUpdated.Inc()
}

// RecordOrderCompleted увеличивает счётчик оплаченных заказов.
func (m *OrderMetrics) RecordOrderCompleted() {
	m.ordersCompleted.Inc()
}

// RecordOrderCancelled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий, поставленных в outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

// ObserveOperation фиксирует длительность операции в секундах.
func (m *OrderMetrics) ObserveOperation(operation string, seconds float64) {
	m.opDuration.WithLabelValues(operation).Observe(seconds)
}
