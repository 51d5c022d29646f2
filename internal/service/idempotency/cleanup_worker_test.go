package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/storage/memory"
)

func TestDeleteExpiredRemovesOnlyStaleRecords(t *testing.T) {
	repo := memory.NewIdempotencyRepository()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	for _, key := range []string{"stale-1", "stale-2", "stale-3"} {
		_, err := repo.CreateProcessing(key, "hash", past)
		require.NoError(t, err)
	}
	_, err := repo.CreateProcessing("alive", "hash", future)
	require.NoError(t, err)

	// Маленький batch заставляет воркер пройти несколько итераций.
	worker := NewCleanupWorker(repo, WithBatchSize(2))
	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 3, deleted)

	_, err = repo.Get("alive")
	require.NoError(t, err)
	_, err = repo.Get("stale-1")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
}

func TestDeleteExpiredHonorsContext(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	worker := NewCleanupWorker(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := worker.DeleteExpired(ctx, time.Now().UTC())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	worker := NewCleanupWorker(repo, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup worker did not stop after context cancellation")
	}
}
