package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/yashbaviskar01/model-api/internal/domain/repositories"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/clients/postgres"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
)

// PromptAdapter stores prompt objects in a Postgres table keyed by object key
type PromptAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	table  string
	now    func() time.Time
}

// NewPromptAdapter creates a new prompt adapter over table
func NewPromptAdapter(client *postgres.Client, table string) *PromptAdapter {
	return &PromptAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		table:  table,
		now:    time.Now,
	}
}

// EnsureSchema creates the backing table if it does not exist
func (a *PromptAdapter) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, pq.QuoteIdentifier(a.table))

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		return apperrors.NewInternalError("failed to create prompt table", err)
	}
	return nil
}

// Get retrieves the object stored at key
func (a *PromptAdapter) Get(ctx context.Context, key string) (*repositories.PromptObject, error) {
	query, args, err := a.db.From(a.table).
		Select("key", "content", "updated_at").
		Where(goqu.Ex{"key": key}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build prompt query", err)
	}

	obj := &repositories.PromptObject{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&obj.Key, &obj.Content, &obj.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("prompt object %s not found", key))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get prompt object", err)
	}
	return obj, nil
}

// Put creates or replaces the object at key
func (a *PromptAdapter) Put(ctx context.Context, key, content string) error {
	query, args, err := a.db.Insert(a.table).
		Rows(goqu.Record{
			"key":        key,
			"content":    content,
			"updated_at": a.now().UTC(),
		}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"content":    goqu.L("EXCLUDED.content"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build prompt upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store prompt object", err)
	}
	return nil
}

// List returns keys starting with prefix, ordered
func (a *PromptAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	query, args, err := a.db.From(a.table).
		Select("key").
		Where(goqu.C("key").Like(prefix + "%")).
		Order(goqu.C("key").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build prompt list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list prompt objects", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, apperrors.NewInternalError("failed to scan prompt key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate prompt keys", err)
	}
	return keys, nil
}
