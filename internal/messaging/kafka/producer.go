package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer публикует события в Kafka синхронно, с подтверждением от всех
// in-sync реплик и включённой идемпотентностью.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
}

func newProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	// идемпотентный продюсер требует не более одного запроса в полёте
	config.Net.MaxOpenRequests = 1
	return config
}

// NewProducer подключается к брокерам и возвращает готовый Producer.
func NewProducer(brokers []string) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		sync:   sync,
		logger: log.WithField("component", "kafka-producer"),
	}, nil
}

// Publish отправляет готовое значение с ключом и заголовками.
func (p *Producer) Publish(topic, key string, value []byte, headers map[string]string) error {
	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now().UTC(),
	}
	for name, headerValue := range headers {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(name),
			Value: []byte(headerValue),
		})
	}

	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic": topic,
			"key":   key,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("send message to %s: %w", topic, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     topic,
		"key":       key,
		"partition": partition,
		"offset":    offset,
	}).Debug("message sent to kafka")
	return nil
}

// PublishJSON сериализует событие в JSON и отправляет его.
func (p *Producer) PublishJSON(topic, key string, event interface{}, headers map[string]string) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.Publish(topic, key, value, headers)
}

// Close закрывает подключение к брокерам.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
