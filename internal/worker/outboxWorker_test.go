package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/ticket-booker/internal/clock"
	"github.com/ds124wfegd/ticket-booker/internal/database/memory"
	"github.com/ds124wfegd/ticket-booker/internal/entity"
	"github.com/ds124wfegd/ticket-booker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *collectingPublisher) Publish(_ context.Context, msg *entity.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, msg.Key)
	return nil
}

func (p *collectingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func enqueue(t *testing.T, store *memory.Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, store.Outbox().Enqueue(context.Background(), &entity.OutboxMessage{
			Key:     k,
			Type:    entity.NotificationBookingConfirmed,
			Payload: []byte(`{}`),
		}))
	}
}

func TestOutboxWorkerDrainsOnKick(t *testing.T) {
	store := memory.NewStore()
	pub := &collectingPublisher{}
	// batch of 2 so a single kick needs several rounds
	ns := service.NewNotificationService(store.Outbox(), pub, clock.NewSystem(), 2, time.Hour)
	w := NewOutboxWorker(ns, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	enqueue(t, store, "a", "b", "c", "d", "e")
	ns.Kick()

	assert.Eventually(t, func() bool {
		return len(pub.published()) == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, pub.published())

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestOutboxWorkerTicks(t *testing.T) {
	store := memory.NewStore()
	pub := &collectingPublisher{}
	ns := service.NewNotificationService(store.Outbox(), pub, clock.NewSystem(), 10, time.Hour)
	w := NewOutboxWorker(ns, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	enqueue(t, store, "x")

	assert.Eventually(t, func() bool {
		return len(pub.published()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
