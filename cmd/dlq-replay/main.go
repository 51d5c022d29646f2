// Команда dlq-replay перечитывает dead letter topic и возвращает события
// заказов в основной topic. По умолчанию работает в режиме dry-run:
// кандидаты на повтор только логируются, публикация включается флагом -execute.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	idleTimeout time.Duration
}

// dlqEnvelope повторяет формат сообщения, которое пишет DLQ publisher.
type dlqEnvelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
}

// dlqPayload — полезная нагрузка, собранная outbox worker-ом при сбое.
type dlqPayload struct {
	OutboxID     string          `json:"outbox_id"`
	EventType    string          `json:"event_type"`
	Payload      json.RawMessage `json:"payload"`
	PublishError string          `json:"publish_error"`
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("dlq replay failed")
	}
}

func readConfig() (config, error) {
	var (
		brokersRaw string
		cfg        config
	)

	flag.StringVar(&brokersRaw, "brokers", "", "Kafka brokers, comma-separated (fallback: KAFKA_BROKERS)")
	flag.StringVar(&cfg.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ topic to read")
	flag.StringVar(&cfg.targetTopic, "target-topic", kafka.TopicOrderEvents, "topic to replay into")
	flag.IntVar(&cfg.limit, "limit", defaultReplayLimit, "max messages to scan")
	flag.BoolVar(&cfg.execute, "execute", false, "actually publish; default is dry-run")
	flag.DurationVar(&cfg.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this idle period")
	flag.Parse()

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = os.Getenv("KAFKA_BROKERS")
	}
	for _, chunk := range strings.Split(brokersRaw, ",") {
		if broker := strings.TrimSpace(chunk); broker != "" {
			cfg.brokers = append(cfg.brokers, broker)
		}
	}

	if len(cfg.brokers) == 0 {
		return config{}, fmt.Errorf("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	}
	if cfg.limit <= 0 {
		return config{}, fmt.Errorf("limit must be positive")
	}
	if cfg.idleTimeout <= 0 {
		return config{}, fmt.Errorf("idle-timeout must be positive")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config) error {
	log.WithFields(log.Fields{
		"source_topic": cfg.sourceTopic,
		"target_topic": cfg.targetTopic,
		"limit":        cfg.limit,
		"execute":      cfg.execute,
	}).Info("запускаем dlq replay")

	client, err := sarama.NewClient(cfg.brokers, sarama.NewConfig())
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer func() { _ = client.Close() }()

	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	var producer *kafka.Producer
	if cfg.execute {
		producer, err = kafka.NewProducer(cfg.brokers)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
	}

	partitions, err := client.Partitions(cfg.sourceTopic)
	if err != nil {
		return fmt.Errorf("list partitions of %s: %w", cfg.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	var scanned, replayed, skipped int
	for _, partition := range partitions {
		if scanned >= cfg.limit {
			break
		}
		s, r, sk, err := replayPartition(ctx, cfg, client, consumer, producer, partition, cfg.limit-scanned)
		if err != nil {
			return err
		}
		scanned += s
		replayed += r
		skipped += sk
	}

	mode := "dry-run"
	if cfg.execute {
		mode = "execute"
	}
	log.WithFields(log.Fields{
		"mode":     mode,
		"scanned":  scanned,
		"replayed": replayed,
		"skipped":  skipped,
	}).Info("dlq replay завершён")
	return nil
}

func replayPartition(
	ctx context.Context,
	cfg config,
	client sarama.Client,
	consumer sarama.Consumer,
	producer *kafka.Producer,
	partition int32,
	limit int,
) (scanned, replayed, skipped int, err error) {
	oldest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("oldest offset of partition %d: %w", partition, err)
	}
	newest, err := client.GetOffset(cfg.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("newest offset of partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return 0, 0, 0, nil
	}

	pc, err := consumer.ConsumePartition(cfg.sourceTopic, partition, oldest)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = pc.Close() }()

	idle := time.NewTimer(cfg.idleTimeout)
	defer idle.Stop()

	for scanned < limit {
		select {
		case <-ctx.Done():
			return scanned, replayed, skipped, ctx.Err()
		case <-idle.C:
			return scanned, replayed, skipped, nil
		case msg, ok := <-pc.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return scanned, replayed, skipped, nil
			}
			idle.Reset(cfg.idleTimeout)
			scanned++

			if err := replayMessage(cfg, producer, msg); err != nil {
				skipped++
				log.WithError(err).WithFields(log.Fields{
					"partition": msg.Partition,
					"offset":    msg.Offset,
				}).Warn("пропускаем сообщение DLQ")
				continue
			}
			replayed++

			if msg.Offset+1 >= newest {
				return scanned, replayed, skipped, nil
			}
		}
	}
	return scanned, replayed, skipped, nil
}

func replayMessage(cfg config, producer *kafka.Producer, msg *sarama.ConsumerMessage) error {
	envelope, err := extractEnvelope(msg.Value)
	if err != nil {
		return err
	}

	key := envelope.AggregateID
	if key == "" {
		key = envelope.ID
	}

	if producer == nil {
		log.WithFields(log.Fields{
			"partition":    msg.Partition,
			"offset":       msg.Offset,
			"event_type":   envelope.EventType,
			"target_topic": cfg.targetTopic,
			"key":          key,
		}).Info("кандидат на повтор")
		return nil
	}

	headers := map[string]string{
		kafka.HeaderRetryCount:    strconv.Itoa(retryCount(msg) + 1),
		kafka.HeaderOriginalTopic: cfg.sourceTopic,
	}
	return producer.PublishJSON(cfg.targetTopic, key, envelope, headers)
}

// extractEnvelope восстанавливает исходное событие из сообщения DLQ.
func extractEnvelope(value []byte) (dlqEnvelope, error) {
	var envelope dlqEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		return dlqEnvelope{}, fmt.Errorf("decode dlq envelope: %w", err)
	}
	if len(envelope.Payload) == 0 {
		return dlqEnvelope{}, fmt.Errorf("dlq envelope has no payload")
	}

	// Payload сообщения DLQ оборачивает оригинальное событие; раскрываем его.
	var wrapped dlqPayload
	if err := json.Unmarshal(envelope.Payload, &wrapped); err == nil && len(wrapped.Payload) > 0 {
		if wrapped.OutboxID != "" {
			envelope.ID = wrapped.OutboxID
		}
		if wrapped.EventType != "" {
			envelope.EventType = wrapped.EventType
		}
		envelope.Payload = wrapped.Payload
	}
	return envelope, nil
}

func retryCount(msg *sarama.ConsumerMessage) int {
	for _, header := range msg.Headers {
		if header == nil || string(header.Key) != kafka.HeaderRetryCount {
			continue
		}
		if n, err := strconv.Atoi(string(header.Value)); err == nil {
			return n
		}
	}
	return 0
}
