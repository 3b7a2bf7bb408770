package events

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

const subscriberBuffer = 100

// fanout delivers events to local subscriber channels without blocking the
// publisher. A full subscriber drops the event.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.PromptEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.PromptEvent]struct{})}
}

func (f *fanout) add(channel string) chan *entities.PromptEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.PromptEvent]struct{})
	}
	ch := make(chan *entities.PromptEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch
}

// remove closes ch and reports how many subscribers remain on channel
func (f *fanout) remove(channel string, ch chan *entities.PromptEvent) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	subs, ok := f.subscribers[channel]
	if !ok {
		return 0
	}
	if _, ok := subs[ch]; ok {
		delete(subs, ch)
		close(ch)
	}
	if len(subs) == 0 {
		delete(f.subscribers, channel)
	}
	return len(subs)
}

func (f *fanout) broadcast(channel string, event *entities.PromptEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subscribers[channel] {
		select {
		case sub <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, dropping event")
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel, subs := range f.subscribers {
		for sub := range subs {
			close(sub)
		}
		delete(f.subscribers, channel)
	}
}
