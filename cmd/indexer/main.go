package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/app"
	"github.com/yashbaviskar01/model-api/internal/application/services"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

type options struct {
	tables      []string
	drop        []string
	describe    bool
	documents   string
	seedPrompts bool
	overwrite   bool
}

func main() {
	var (
		tablesFlag   string
		dropFlag     string
		intervalFlag string
		opts         options
	)
	flag.StringVar(&tablesFlag, "tables", "", "comma-separated tables whose descriptions are embedded into the table index")
	flag.StringVar(&dropFlag, "drop", "", "comma-separated tables to remove from the table index")
	flag.BoolVar(&opts.describe, "describe", false, "generate a fresh description for each table before embedding it")
	flag.StringVar(&opts.documents, "documents", "", "JSON Lines file of knowledge base passages to ingest")
	flag.BoolVar(&opts.seedPrompts, "seed-prompts", false, "write the built-in prompt templates to the prompt store")
	flag.BoolVar(&opts.overwrite, "overwrite", false, "with -seed-prompts, replace templates that already exist")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	if err := app.LoadEnvironment(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load environment")
	}

	opts.tables = splitList(tablesFlag)
	opts.drop = splitList(dropFlag)
	if len(opts.tables) == 0 && len(opts.drop) == 0 && opts.documents == "" && !opts.seedPrompts {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -tables, -drop, -documents or -seed-prompts")
		flag.Usage()
		os.Exit(2)
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}
	var interval time.Duration
	if intervalValue != "" {
		var err error
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logCloser := observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Environment, cfg.Logging)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	for {
		if err := indexOnce(ctx, application, opts); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}
		if interval <= 0 {
			return
		}

		// prompts are seeded and tables dropped once per process
		opts.seedPrompts = false
		opts.drop = nil
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")
		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, a *app.App, opts options) error {
	var errs []error

	if opts.seedPrompts {
		written, err := a.Prompts.SeedDefaults(ctx, opts.overwrite)
		if err != nil {
			errs = append(errs, fmt.Errorf("seed prompts: %w", err))
		} else {
			log.Info().Int("written", written).Msg("prompt templates seeded")
		}
	}

	for _, table := range opts.drop {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Embeddings.Remove(ctx, table); err != nil {
			log.Warn().Err(err).Str("table", table).Msg("table not removed")
			errs = append(errs, err)
		}
	}

	for _, table := range opts.tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := indexTable(ctx, a, table, opts.describe); err != nil {
			log.Warn().Err(err).Str("table", table).Msg("table not indexed")
			errs = append(errs, err)
			continue
		}
		log.Info().Str("table", table).Msg("table indexed")
	}

	if opts.documents != "" {
		docs, err := loadDocuments(opts.documents)
		if err != nil {
			errs = append(errs, err)
		} else if _, err := a.Ingestion.Ingest(ctx, docs); err != nil {
			errs = append(errs, fmt.Errorf("ingest %s: %w", opts.documents, err))
		}
	}
	return errors.Join(errs...)
}

func indexTable(ctx context.Context, a *app.App, table string, describe bool) error {
	if describe {
		description, err := a.Descriptions.Generate(ctx, table)
		if err != nil {
			return fmt.Errorf("describe %s: %w", table, err)
		}
		if description == services.DescriptionFailedMessage {
			return fmt.Errorf("describe %s: model produced no description", table)
		}
	}
	return a.Embeddings.Store(ctx, table)
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
