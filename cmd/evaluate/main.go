package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/app"
	"github.com/yashbaviskar01/model-api/internal/application/workflow"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/evaluation"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"github.com/yashbaviskar01/model-api/pkg/config"
)

// stagesRouter runs the classify and similarity search stages of the workflow
type stagesRouter struct {
	stages *workflow.Stages
}

func (r *stagesRouter) Route(ctx context.Context, query string) (entities.QueryIntent, []string, error) {
	state := r.stages.Classify(ctx, entities.NewPipelineState(query, ""))
	state = r.stages.SimilaritySearch(ctx, state)
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	tables := make([]string, len(state.SimilarTables))
	for i, t := range state.SimilarTables {
		tables[i] = t.TableName
	}
	return state.QueryIntent, tables, nil
}

func main() {
	var (
		goldenPath string
		asJSON     bool
		guard      evaluation.GuardrailConfig
	)
	flag.StringVar(&goldenPath, "golden", "config/golden_queries.json", "golden query set")
	flag.BoolVar(&asJSON, "json", false, "print the summary as JSON")
	flag.Float64Var(&guard.MinIntentAccuracy, "min-intent-accuracy", 0, "fail when intent accuracy is below this value")
	flag.Float64Var(&guard.MinRecallAt5, "min-recall", 0, "fail when table Recall@5 is below this value")
	flag.Float64Var(&guard.MinMRRAt5, "min-mrr", 0, "fail when table MRR@5 is below this value")
	flag.IntVar(&guard.MaxErrors, "max-errors", 0, "routing errors tolerated before failing")
	flag.Parse()

	if err := app.LoadEnvironment(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to load environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logCloser := observability.InitLogger(cfg.OTEL.ServiceName+"-evaluate", cfg.Server.Environment, cfg.Logging)
	defer logCloser.Close()

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("invalid golden queries")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	summary, err := evaluation.NewRunner(&stagesRouter{stages: application.Stages}).Run(ctx, queries)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	if asJSON {
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))
	} else {
		renderSummary(os.Stdout, summary)
	}

	if violations := evaluation.NewGuardrails(guard).Violations(summary); len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "guardrails failed: "+strings.Join(violations, "; "))
		application.Close()
		os.Exit(1)
	}
}

func renderSummary(w io.Writer, s *evaluation.EvalSummary) {
	results := table.NewWriter()
	results.SetOutputMirror(w)
	results.SetStyle(table.StyleLight)
	results.AppendHeader(table.Row{"ID", "Intent", "Predicted", "Recall@5", "MRR@5", "Tables", "Latency"})
	for _, r := range s.Results {
		predicted := string(r.PredictedIntent)
		if r.Error != "" {
			predicted = "error: " + r.Error
		}
		results.AppendRow(table.Row{
			r.QueryID,
			r.Intent,
			predicted,
			fmt.Sprintf("%.2f", r.RecallAt5),
			fmt.Sprintf("%.2f", r.MRRAt5),
			strings.Join(r.RetrievedTables, ", "),
			r.Latency.Round(time.Millisecond),
		})
	}
	results.Render()

	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.SetStyle(table.StyleLight)
	totals.AppendHeader(table.Row{"Intent", "Queries", "Accuracy", "Recall@5", "MRR@5"})
	for _, intent := range evaluation.ValidIntents() {
		is, ok := s.ByIntent[intent]
		if !ok {
			continue
		}
		totals.AppendRow(table.Row{intent, is.Count, fmt.Sprintf("%.3f", is.IntentAccuracy), fmt.Sprintf("%.3f", is.AvgRecallAt5), fmt.Sprintf("%.3f", is.AvgMRRAt5)})
	}
	totals.AppendFooter(table.Row{"all", s.TotalQueries, fmt.Sprintf("%.3f", s.IntentAccuracy), fmt.Sprintf("%.3f", s.AvgRecallAt5), fmt.Sprintf("%.3f", s.AvgMRRAt5)})
	totals.Render()
}
