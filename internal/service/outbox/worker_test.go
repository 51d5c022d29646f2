package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orchidcommerce/orchidbe/internal/domain"
	"github.com/orchidcommerce/orchidbe/internal/storage/memory"
)

// fakePublisher считает вызовы и отдаёт заранее заданные ошибки.
type fakePublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
	failures  int
	err       error
}

func (p *fakePublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures > 0 {
		p.failures--
		if p.err != nil {
			return p.err
		}
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) events() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OutboxMessage(nil), p.published...)
}

func TestProcessOnceMarksSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{}

	_, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "ord-1", EventType: "OrderCreated"})
	require.NoError(t, err)

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	require.Len(t, publisher.events(), 1)
	require.Equal(t, "OrderCreated", publisher.events()[0].EventType)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestProcessOnceRetriesTransientFailure(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{failures: 2}

	_, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "OrderCreated"})
	require.NoError(t, err)

	worker := NewWorker(repo, publisher, WithMaxAttempts(3), WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	// Две неудачи, третья попытка успешна.
	require.Len(t, publisher.events(), 1)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestProcessOnceRoutesToDLQAfterExhaustedRetries(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{failures: 100}
	dlq := &fakePublisher{}

	msg, err := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "ord-1", EventType: "OrderCreated"})
	require.NoError(t, err)

	worker := NewWorker(repo, publisher,
		WithMaxAttempts(2),
		WithRetryBaseDelay(0),
		WithDLQPublisher(dlq),
	)
	worker.ProcessOnce(context.Background())

	require.Empty(t, publisher.events())
	require.Len(t, dlq.events(), 1)
	require.Equal(t, msg.ID, dlq.events()[0].ID)

	// Сообщение помечено failed и из pending ушло.
	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &fakePublisher{}

	worker := NewWorker(repo, publisher, WithPollInterval(10*time.Millisecond))

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
		t.Fatal("worker did not stop after context cancellation")
	}
}
