package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

func TestOrderRepositoryIntegration_CreateGetSave(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	order := domain.Order{
		ID:         uuid.NewString(),
		OwnerID:    "owner-1",
		Status:     domain.OrderStatusPending,
		TotalMinor: 420000,
		OrderDate:  now,
		Version:    0,
		UpdatedAt:  now,
	}

	require.NoError(t, repo.Create(order))
	require.ErrorIs(t, repo.Create(order), domain.ErrOrderVersionConflict)

	got, err := repo.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OwnerID, got.OwnerID)
	require.Equal(t, domain.OrderStatusPending, got.Status)
	require.Equal(t, int64(420000), got.TotalMinor)

	got.Status = domain.OrderStatusCompleted
	require.NoError(t, repo.Save(got))

	// повторный Save со старой версией должен упереться в optimistic lock
	require.ErrorIs(t, repo.Save(got), domain.ErrOrderVersionConflict)

	reloaded, err := repo.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, reloaded.Status)
	require.Equal(t, int64(1), reloaded.Version)
}

func TestOrderRepositoryIntegration_ListByOwnerNewestFirst(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(domain.Order{
			ID:        uuid.NewString(),
			OwnerID:   "owner-list",
			Status:    domain.OrderStatusPending,
			OrderDate: ts,
			UpdatedAt: ts,
		}))
	}

	orders, err := repo.ListByOwner("owner-list")
	require.NoError(t, err)
	require.Len(t, orders, 3)
	for i := 1; i < len(orders); i++ {
		require.False(t, orders[i].OrderDate.After(orders[i-1].OrderDate))
	}

	none, err := repo.ListByOwner("owner-unknown")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestOrderLineRepositoryIntegration_InsertListDelete(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orders := NewOrderRepository(store)
	lines := NewOrderLineRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	orderID := uuid.NewString()
	require.NoError(t, orders.Create(domain.Order{
		ID:        orderID,
		OwnerID:   "owner-lines",
		Status:    domain.OrderStatusPending,
		OrderDate: now,
		UpdatedAt: now,
	}))

	batch := []domain.OrderLine{
		{ID: uuid.NewString(), OrderID: orderID, OrchidID: "orchid-a", Qty: 2, PriceMinor: 150000, Seq: 0, CreatedAt: now},
		{ID: uuid.NewString(), OrderID: orderID, OrchidID: "orchid-b", Qty: 1, PriceMinor: 120000, Seq: 1, CreatedAt: now},
	}
	require.NoError(t, lines.Insert(batch))

	loaded, err := lines.ListByOrder(orderID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "orchid-a", loaded[0].OrchidID)
	require.Equal(t, "orchid-b", loaded[1].OrchidID)

	deleted, err := lines.DeleteByOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)

	empty, err := lines.ListByOrder(orderID)
	require.NoError(t, err)
	require.Empty(t, empty)
}
