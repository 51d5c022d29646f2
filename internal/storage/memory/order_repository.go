package memory

import (
	"sort"
	"sync"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	r.items[order.ID] = order
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListAll возвращает все заказы, новые первыми.
func (r *orderRepositoryInMemory) ListAll() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, order)
	}
	sortOrdersDesc(result)
	return result, nil
}

// ListByOwner возвращает заказы владельца, новые первыми.
func (r *orderRepositoryInMemory) ListByOwner(ownerID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.OwnerID != ownerID {
			continue
		}
		result = append(result, order)
	}
	sortOrdersDesc(result)
	return result, nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	r.items[order.ID] = order
	return nil
}

// Delete физически удаляет заказ (компенсация частично неуспешного создания).
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, id)
	return nil
}

func sortOrdersDesc(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
