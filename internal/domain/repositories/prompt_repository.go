package repositories

import (
	"context"
	"time"
)

// PromptObject is a stored text object: a prompt template, a per-table context
// prompt, or a generated table description.
type PromptObject struct {
	Key       string
	Content   string
	UpdatedAt time.Time
}

// PromptRepository is the object store behind prompts and table descriptions.
type PromptRepository interface {
	// Get returns the object at key. A missing key is a NOT_FOUND AppError.
	Get(ctx context.Context, key string) (*PromptObject, error)

	// Put creates or replaces the object at key.
	Put(ctx context.Context, key, content string) error

	// List returns keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
