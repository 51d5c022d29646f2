package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// accountRepositoryInMemory — in-memory хранилище учётных записей.
type accountRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Account
}

// NewAccountRepository возвращает in-memory реализацию AccountRepository.
func NewAccountRepository() domain.AccountRepository {
	return &accountRepositoryInMemory{
		items: make(map[string]domain.Account),
	}
}

func (r *accountRepositoryInMemory) Create(account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, account.Email) {
			return domain.ErrEmailTaken
		}
	}
	r.items[account.ID] = account
	return nil
}

func (r *accountRepositoryInMemory) Get(id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.items[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *accountRepositoryInMemory) GetByEmail(email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.items {
		if strings.EqualFold(account.Email, email) {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *accountRepositoryInMemory) List() ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Account, 0, len(r.items))
	for _, account := range r.items {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Email < result[j].Email })
	return result, nil
}

func (r *accountRepositoryInMemory) Update(account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.items[account.ID] = account
	return nil
}

func (r *accountRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.AccountRepository = (*accountRepositoryInMemory)(nil)
