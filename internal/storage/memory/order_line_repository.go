package memory

import (
	"sort"
	"sync"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// orderLineRepositoryInMemory — in-memory хранилище позиций заказов.
// Позиции индексируются по собственному ID; выборка по заказу идёт полным
// перебором, как и в документной модели оригинала.
type orderLineRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.OrderLine
}

// NewOrderLineRepository возвращает in-memory реализацию OrderLineRepository.
func NewOrderLineRepository() domain.OrderLineRepository {
	return &orderLineRepositoryInMemory{
		items: make(map[string]domain.OrderLine),
	}
}

// Insert сохраняет набор позиций.
func (r *orderLineRepositoryInMemory) Insert(lines []domain.OrderLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range lines {
		r.items[line.ID] = line
	}
	return nil
}

// ListByOrder возвращает позиции заказа в порядке создания.
func (r *orderLineRepositoryInMemory) ListByOrder(orderID string) ([]domain.OrderLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OrderLine, 0)
	for _, line := range r.items {
		if line.OrderID == orderID {
			result = append(result, line)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// DeleteByOrder удаляет все позиции заказа и возвращает число удалённых.
func (r *orderLineRepositoryInMemory) DeleteByOrder(orderID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, line := range r.items {
		if line.OrderID == orderID {
			delete(r.items, id)
			removed++
		}
	}
	return removed, nil
}

var _ domain.OrderLineRepository = (*orderLineRepositoryInMemory)(nil)
