package memory

import (
	"sort"
	"sync"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// orchidRepositoryInMemory — in-memory хранилище каталога орхидей.
type orchidRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Orchid
}

// NewOrchidRepository возвращает in-memory реализацию OrchidRepository.
func NewOrchidRepository() domain.OrchidRepository {
	return &orchidRepositoryInMemory{
		items: make(map[string]domain.Orchid),
	}
}

func (r *orchidRepositoryInMemory) Create(orchid domain.Orchid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[orchid.ID] = orchid
	return nil
}

func (r *orchidRepositoryInMemory) Get(id string) (domain.Orchid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orchid, ok := r.items[id]
	if !ok {
		return domain.Orchid{}, domain.ErrOrchidNotFound
	}
	return orchid, nil
}

func (r *orchidRepositoryInMemory) List() ([]domain.Orchid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Orchid, 0, len(r.items))
	for _, orchid := range r.items {
		result = append(result, orchid)
	}
	sortOrchidsByName(result)
	return result, nil
}

func (r *orchidRepositoryInMemory) ListByCategory(categoryID string) ([]domain.Orchid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Orchid, 0)
	for _, orchid := range r.items {
		if orchid.CategoryID == categoryID {
			result = append(result, orchid)
		}
	}
	sortOrchidsByName(result)
	return result, nil
}

func (r *orchidRepositoryInMemory) Update(orchid domain.Orchid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[orchid.ID]; !ok {
		return domain.ErrOrchidNotFound
	}
	r.items[orchid.ID] = orchid
	return nil
}

func (r *orchidRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrchidNotFound
	}
	delete(r.items, id)
	return nil
}

func sortOrchidsByName(orchids []domain.Orchid) {
	sort.Slice(orchids, func(i, j int) bool {
		if orchids[i].Name != orchids[j].Name {
			return orchids[i].Name < orchids[j].Name
		}
		return orchids[i].ID < orchids[j].ID
	})
}

var _ domain.OrchidRepository = (*orchidRepositoryInMemory)(nil)
