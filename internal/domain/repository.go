package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов.
// Позиции заказа живут в отдельном хранилище (OrderLineRepository);
// кросс-коллекционных транзакций между ними нет.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListAll возвращает все заказы, новые первыми.
	ListAll() ([]Order, error)
	// ListByOwner возвращает заказы владельца, новые первыми.
	ListByOwner(ownerID string) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
	// Delete физически удаляет заказ; используется только компенсацией
	// при частично неуспешном создании.
	Delete(id string) error
}

// OrderLineRepository описывает хранилище позиций заказа.
type OrderLineRepository interface {
	// Insert сохраняет набор позиций.
	Insert(lines []OrderLine) error
	// ListByOrder возвращает позиции заказа в порядке создания.
	ListByOrder(orderID string) ([]OrderLine, error)
	// DeleteByOrder удаляет все позиции заказа; возвращает число удалённых.
	DeleteByOrder(orderID string) (int, error)
}

// OrchidRepository описывает хранилище каталога орхидей.
type OrchidRepository interface {
	Create(orchid Orchid) error
	Get(id string) (Orchid, error)
	List() ([]Orchid, error)
	ListByCategory(categoryID string) ([]Orchid, error)
	Update(orchid Orchid) error
	Delete(id string) error
}

// CategoryRepository описывает хранилище категорий каталога.
type CategoryRepository interface {
	Create(category Category) error
	Get(id string) (Category, error)
	List() ([]Category, error)
	Update(category Category) error
	Delete(id string) error
}

// AccountRepository описывает хранилище учётных записей.
type AccountRepository interface {
	Create(account Account) error
	Get(id string) (Account, error)
	GetByEmail(email string) (Account, error)
	List() ([]Account, error)
	Update(account Account) error
	Delete(id string) error
}

// RoleRepository описывает хранилище ролей.
type RoleRepository interface {
	Create(role Role) error
	Get(id string) (Role, error)
	GetByName(name string) (Role, error)
	List() ([]Role, error)
	Delete(id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по Idempotency-Key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
