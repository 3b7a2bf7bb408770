package providers

import (
	"context"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to prompt store events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.PromptEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.PromptEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelPromptUpdates carries every prompt store write
const EventChannelPromptUpdates = "prompts:updates"
