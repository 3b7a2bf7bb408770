package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yashbaviskar01/model-api/internal/domain/repositories"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// MemoryPromptAdapter keeps prompt objects in process memory. It backs local
// development when no database is configured.
type MemoryPromptAdapter struct {
	mu      sync.RWMutex
	objects map[string]repositories.PromptObject
}

// NewMemoryPromptAdapter creates an empty in-memory prompt store
func NewMemoryPromptAdapter() *MemoryPromptAdapter {
	return &MemoryPromptAdapter{objects: make(map[string]repositories.PromptObject)}
}

func (a *MemoryPromptAdapter) Get(_ context.Context, key string) (*repositories.PromptObject, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	obj, ok := a.objects[key]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("prompt object %s not found", key))
	}
	return &obj, nil
}

func (a *MemoryPromptAdapter) Put(_ context.Context, key, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.objects[key] = repositories.PromptObject{Key: key, Content: content, UpdatedAt: time.Now().UTC()}
	return nil
}

func (a *MemoryPromptAdapter) List(_ context.Context, prefix string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := []string{}
	for key := range a.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
