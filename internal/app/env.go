package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/pkg/secrets"
)

// LoadEnvironment reads an optional .env file and then any Vault secret, so
// both are visible to config.Load.
func LoadEnvironment(ctx context.Context) error {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	result, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())
	if err != nil {
		return fmt.Errorf("load vault secrets: %w", err)
	}
	if result.Enabled {
		log.Info().Str("path", result.Path).Strs("keys", result.Loaded).Int("skipped", result.Skipped).Msg("vault secrets applied")
	}
	return nil
}
