package entities

import "time"

// PromptEventType names a change to the prompt store.
type PromptEventType string

const (
	PromptEventUpdated PromptEventType = "prompt_updated"
)

// PromptEvent is broadcast when a stored prompt or table description changes,
// so every instance can drop its cached copy.
type PromptEvent struct {
	ID        string          `json:"id"`
	EventType PromptEventType `json:"event_type"`
	ObjectKey string          `json:"object_key"`
	Timestamp time.Time       `json:"timestamp"`
}
