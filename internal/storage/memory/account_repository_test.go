package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

func TestAccountRepositoryEmailUniqueness(t *testing.T) {
	repo := NewAccountRepository()

	require.NoError(t, repo.Create(domain.Account{ID: "acc-1", Email: "lena@orchid.test"}))
	err := repo.Create(domain.Account{ID: "acc-2", Email: "lena@orchid.test"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAccountRepositoryGetByEmail(t *testing.T) {
	repo := NewAccountRepository()

	require.NoError(t, repo.Create(domain.Account{ID: "acc-1", Email: "lena@orchid.test"}))

	account, err := repo.GetByEmail("lena@orchid.test")
	require.NoError(t, err)
	require.Equal(t, "acc-1", account.ID)

	_, err = repo.GetByEmail("nobody@orchid.test")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
