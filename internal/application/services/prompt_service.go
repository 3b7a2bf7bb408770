package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/internal/domain/repositories"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

var promptNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_./-]*$`)

// PromptService reads and writes prompt templates and per-table context prompts
type PromptService struct {
	repo     repositories.PromptRepository
	eventBus providers.EventBus
}

// NewPromptService creates a prompt service. eventBus may be nil.
func NewPromptService(repo repositories.PromptRepository, eventBus providers.EventBus) *PromptService {
	return &PromptService{repo: repo, eventBus: eventBus}
}

// ValidatePromptName rejects names that cannot be mapped to an object key
func ValidatePromptName(name string) error {
	if !promptNamePattern.MatchString(name) || strings.Contains(name, "..") {
		return apperrors.NewValidationError(fmt.Sprintf("invalid prompt name %q", name))
	}
	return nil
}

// GetPrompt returns the stored content for name, or "" when nothing is stored
func (s *PromptService) GetPrompt(ctx context.Context, name string) (string, error) {
	if err := ValidatePromptName(name); err != nil {
		return "", err
	}
	return s.LoadObject(ctx, entities.PromptObjectKey(name))
}

// Template returns the stored template for name, falling back to the built-in default
func (s *PromptService) Template(ctx context.Context, name string) (string, error) {
	content, err := s.GetPrompt(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("prompt", name).Msg("prompt store unavailable, using built-in template")
	}
	if strings.TrimSpace(content) != "" {
		return content, nil
	}
	if def, ok := prompts.Default(name); ok {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return "", apperrors.NewNotFoundError(fmt.Sprintf("prompt %s not found", name))
}

// TablePrompt returns the context prompt stored for table. Stored JSON string
// arrays are joined line by line.
func (s *PromptService) TablePrompt(ctx context.Context, table string) (string, error) {
	content, err := s.GetPrompt(ctx, table)
	if err != nil {
		return "", err
	}
	return flattenPromptContent(content), nil
}

// UpdatePrompt stores content under name and announces the change
func (s *PromptService) UpdatePrompt(ctx context.Context, name, content string) error {
	if err := ValidatePromptName(name); err != nil {
		return err
	}
	return s.StoreObject(ctx, entities.PromptObjectKey(name), content)
}

// LoadObject returns the raw object at key, or "" when nothing is stored
func (s *PromptService) LoadObject(ctx context.Context, key string) (string, error) {
	obj, err := s.repo.Get(ctx, key)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return obj.Content, nil
}

// StoreObject writes a raw object at key and announces the change
func (s *PromptService) StoreObject(ctx context.Context, key, content string) error {
	if err := s.repo.Put(ctx, key, content); err != nil {
		return err
	}
	s.publish(ctx, key)
	return nil
}

// SeedDefaults writes the built-in templates. Existing entries are kept unless overwrite is set.
func (s *PromptService) SeedDefaults(ctx context.Context, overwrite bool) (int, error) {
	written := 0
	for name, content := range prompts.Defaults {
		if !overwrite {
			existing, err := s.GetPrompt(ctx, name)
			if err != nil {
				return written, err
			}
			if existing != "" {
				continue
			}
		}
		if err := s.UpdatePrompt(ctx, name, content); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *PromptService) publish(ctx context.Context, key string) {
	if s.eventBus == nil {
		return
	}
	event := &entities.PromptEvent{
		ID:        uuid.New().String(),
		EventType: entities.PromptEventUpdated,
		ObjectKey: key,
		Timestamp: time.Now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelPromptUpdates, event); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to publish prompt update")
	}
}

func flattenPromptContent(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "[") {
		return content
	}
	var lines []string
	if err := json.Unmarshal([]byte(trimmed), &lines); err != nil {
		return content
	}
	return strings.Join(lines, "\n")
}
