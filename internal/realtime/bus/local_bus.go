package bus

import (
	"context"
	"sync"

	"github.com/brynevale/admincore-backend/internal/realtime"
)

// localBus is an in-process Bus for single-node deployments and tests.
type localBus struct {
	mu        sync.Mutex
	listeners []func(m realtime.EventNotice)
	closed    bool
}

func NewLocalBus() Bus {
	return &localBus{}
}

func (b *localBus) Publish(_ context.Context, msg realtime.EventNotice) error {
	b.mu.Lock()
	listeners := make([]func(m realtime.EventNotice), len(b.listeners))
	copy(listeners, b.listeners)
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}
	for _, fn := range listeners {
		fn(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onMsg func(m realtime.EventNotice)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, onMsg)
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.listeners = nil
	return nil
}
