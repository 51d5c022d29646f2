package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/messaging/kafka"
	"github.com/orchidcommerce/orchidbe/internal/storage/memory"
	"github.com/orchidcommerce/orchidbe/internal/storage/postgres"
)

// Dependencies содержит хранилища и внешние подключения приложения.
// По умолчанию используются in-memory реализации; PostgreSQL, Redis и
// Kafka подключаются, когда заданы соответствующие настройки.
type Dependencies struct {
	Orders      domain.OrderRepository
	Lines       domain.OrderLineRepository
	Orchids     domain.OrchidRepository
	Categories  domain.CategoryRepository
	Accounts    domain.AccountRepository
	Roles       domain.RoleRepository
	Outbox      domain.OutboxRepository
	Idempotency domain.IdempotencyRepository

	Postgres      *postgres.Store
	KafkaProducer *kafka.Producer
	Logger        *log.Entry
}

// NewDependencies инициализирует зависимости согласно конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Orders:      memory.NewOrderRepository(),
		Lines:       memory.NewOrderLineRepository(),
		Orchids:     memory.NewOrchidRepository(),
		Categories:  memory.NewCategoryRepository(),
		Accounts:    memory.NewAccountRepository(),
		Roles:       memory.NewRoleRepository(),
		Outbox:      memory.NewOutboxRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
		Logger:      logger,
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		deps.Postgres = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Lines = postgres.NewOrderLineRepository(store)
		deps.Orchids = postgres.NewOrchidRepository(store)
		deps.Categories = postgres.NewCategoryRepository(store)
		deps.Accounts = postgres.NewAccountRepository(store)
		deps.Roles = postgres.NewRoleRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		logger.Info("postgres storage initialized")
	}

	if cfg.KafkaBrokers != "" {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		producer, err := kafka.NewProducer(brokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.KafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.KafkaProducer != nil {
		if err := d.KafkaProducer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		} else {
			d.Logger.Info("kafka producer closed")
		}
	}
	if d.Postgres != nil {
		if err := d.Postgres.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
