package realtime

import (
	"context"
	"sync"

	"github.com/teamboard-dev/teamboard/internal/types"
)

// Broker moves events from the publishing hub to every subscribed hub,
// possibly on other instances.
type Broker interface {
	Publish(ctx context.Context, msg types.SocketMessage) error
	// Subscribe registers handler and returns once the subscription is
	// live. Delivery stops when ctx is done.
	Subscribe(ctx context.Context, handler func(types.SocketMessage)) error
	Close() error
}

// LocalBroker delivers in-process, synchronously, in publish order.
type LocalBroker struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(types.SocketMessage)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{handlers: make(map[int]func(types.SocketMessage))}
}

func (b *LocalBroker) Publish(_ context.Context, msg types.SocketMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers {
		h(msg)
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, handler func(types.SocketMessage)) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = handler
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.handlers)
	return nil
}
