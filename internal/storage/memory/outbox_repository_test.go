package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

func TestOutboxPullPendingOldestFirst(t *testing.T) {
	repo := NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "ord-1", EventType: "OrderCreated"})
	require.NoError(t, err)
	second, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "ord-1", EventType: "OrderCompleted"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Отправленное сообщение из pending исчезает, неуспешное — тоже.
	require.NoError(t, repo.MarkSent(pending[0].ID))
	require.NoError(t, repo.MarkFailed(pending[1].ID))

	pending, err = repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestOutboxPullPendingHonorsLimit(t *testing.T) {
	repo := NewOutboxRepository()

	for i := 0; i < 5; i++ {
		_, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "OrderCreated"})
		require.NoError(t, err)
	}

	pending, err := repo.PullPending(3)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestOutboxStats(t *testing.T) {
	repo := NewOutboxRepository()

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
	require.True(t, stats.OldestPendingAt.IsZero())

	msg, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "OrderCreated"})
	require.NoError(t, err)

	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
	require.WithinDuration(t, time.Now().UTC(), stats.OldestPendingAt, 5*time.Second)

	require.NoError(t, repo.MarkSent(msg.ID))
	stats, err = repo.Stats()
	require.NoError(t, err)
	require.Zero(t, stats.PendingCount)
}

func TestOutboxMarkUnknownMessage(t *testing.T) {
	repo := NewOutboxRepository()
	require.ErrorIs(t, repo.MarkSent("missing"), domain.ErrOutboxPublish)
}
