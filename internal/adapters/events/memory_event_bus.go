package events

import (
	"context"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
)

// MemoryEventBus delivers events within a single process
type MemoryEventBus struct {
	fanout *fanout
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{fanout: newFanout()}
}

func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.PromptEvent) error {
	b.fanout.broadcast(channel, event)
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PromptEvent, error) {
	ch := b.fanout.add(channel)
	go func() {
		<-ctx.Done()
		b.fanout.remove(channel, ch)
	}()
	return ch, nil
}

func (b *MemoryEventBus) Close() error {
	b.fanout.closeAll()
	return nil
}
