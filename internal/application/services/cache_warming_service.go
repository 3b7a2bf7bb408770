package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
)

// PromptLoader reads a prompt by name through whatever cache sits in front of the store
type PromptLoader interface {
	GetPrompt(ctx context.Context, name string) (string, error)
}

// CacheWarmingService keeps the workflow templates resident in the prompt cache
type CacheWarmingService struct {
	loader PromptLoader
	names  []string
}

// NewCacheWarmingService warms the built-in template names
func NewCacheWarmingService(loader PromptLoader) *CacheWarmingService {
	names := make([]string, 0, len(prompts.Defaults))
	for name := range prompts.Defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return &CacheWarmingService{loader: loader, names: names}
}

// WarmCache reads every template once and returns how many are stored
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	stored := 0
	var errs []error
	for _, name := range s.names {
		content, err := s.loader.GetPrompt(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("warm %s: %w", name, err))
			continue
		}
		if content != "" {
			stored++
		}
	}
	log.Debug().Int("stored", stored).Int("templates", len(s.names)).Msg("prompt cache warmed")
	return stored, errors.Join(errs...)
}

// StartPeriodicWarming warms once, then again every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("initial prompt cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping prompt cache warming")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("periodic prompt cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic prompt cache warming")
}
