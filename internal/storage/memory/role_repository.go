package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// roleRepositoryInMemory — in-memory хранилище ролей.
type roleRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Role
}

// NewRoleRepository возвращает in-memory реализацию RoleRepository.
func NewRoleRepository() domain.RoleRepository {
	return &roleRepositoryInMemory{
		items: make(map[string]domain.Role),
	}
}

func (r *roleRepositoryInMemory) Create(role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[role.ID] = role
	return nil
}

func (r *roleRepositoryInMemory) Get(id string) (domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.items[id]
	if !ok {
		return domain.Role{}, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *roleRepositoryInMemory) GetByName(name string) (domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.items {
		if strings.EqualFold(role.Name, name) {
			return role, nil
		}
	}
	return domain.Role{}, domain.ErrRoleNotFound
}

func (r *roleRepositoryInMemory) List() ([]domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Role, 0, len(r.items))
	for _, role := range r.items {
		result = append(result, role)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *roleRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.RoleRepository = (*roleRepositoryInMemory)(nil)
