package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yashbaviskar01/model-api/internal/application/prompts"
	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// RAGFusionConfig tunes retrieval for knowledge base answers
type RAGFusionConfig struct {
	EmbeddingModel string
	AnswerModel    string
	FetchK         int
	TopK           int
	Lambda         float64
}

// RAGFusionService answers general questions from the document index. It
// expands the question into sub-queries, retrieves for each with MMR and
// fuses the ranked lists with reciprocal rank fusion.
type RAGFusionService struct {
	completion providers.CompletionProvider
	documents  providers.DocumentIndex
	cfg        RAGFusionConfig
}

func NewRAGFusionService(completion providers.CompletionProvider, documents providers.DocumentIndex, cfg RAGFusionConfig) *RAGFusionService {
	return &RAGFusionService{completion: completion, documents: documents, cfg: cfg}
}

// GenerateSubQueries asks the model for alternative phrasings of question, one per line
func (s *RAGFusionService) GenerateSubQueries(ctx context.Context, question string) ([]string, error) {
	out, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model:        s.cfg.AnswerModel,
		SystemPrompt: prompts.SubQuerySystem,
		Prompt:       utils.RenderTemplate(prompts.SubQueryUser, map[string]string{"question": question}),
		Temperature:  providers.Temperature(0),
	})
	if err != nil {
		return nil, fmt.Errorf("generate sub-queries: %w", err)
	}
	queries := utils.NonEmptyLines(out)
	if len(queries) == 0 {
		return nil, fmt.Errorf("generate sub-queries: model returned no queries")
	}
	return queries, nil
}

// Retrieve returns up to TopK diverse documents for query
func (s *RAGFusionService) Retrieve(ctx context.Context, query string) ([]entities.Document, error) {
	vector, err := s.completion.Embed(ctx, query, s.cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("embed sub-query: %w", err)
	}
	candidates, err := s.documents.Candidates(ctx, vector, s.cfg.FetchK)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	return MaxMarginalRelevance(vector, candidates, s.cfg.TopK, s.cfg.Lambda), nil
}

// Fuse retrieves every query concurrently and merges the results
func (s *RAGFusionService) Fuse(ctx context.Context, queries []string) ([]entities.FusedDocument, error) {
	lists := make([][]entities.Document, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			docs, err := s.Retrieve(gctx, q)
			if err != nil {
				return err
			}
			lists[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ReciprocalRankFusion(lists, RRFConstant), nil
}

// Answer runs the full pipeline for question
func (s *RAGFusionService) Answer(ctx context.Context, question string) (string, error) {
	queries, err := s.GenerateSubQueries(ctx, question)
	if err != nil {
		return "", err
	}
	fused, err := s.Fuse(ctx, queries)
	if err != nil {
		return "", err
	}
	log.Debug().Int("sub_queries", len(queries)).Int("documents", len(fused)).Msg("rag fusion retrieved context")

	answer, err := s.completion.Complete(ctx, providers.CompletionRequest{
		Model: s.cfg.AnswerModel,
		Prompt: utils.RenderTemplate(prompts.RAGAnswer, map[string]string{
			"context": FusedContext(fused),
			"query":   question,
		}),
		Temperature: providers.Temperature(0),
	})
	if err != nil {
		return "", fmt.Errorf("generate rag answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// FusedContext renders fused documents for the answer prompt, best first
func FusedContext(fused []entities.FusedDocument) string {
	parts := make([]string, 0, len(fused))
	for _, f := range fused {
		if content := strings.TrimSpace(f.Document.Content); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n")
}
