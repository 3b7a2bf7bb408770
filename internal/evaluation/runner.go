package evaluation

import (
	"context"
	"time"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
)

// QueryRouter classifies a question and lists the tables retrieved for it, best first.
type QueryRouter interface {
	Route(ctx context.Context, query string) (entities.QueryIntent, []string, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	router QueryRouter
	now    func() time.Time
}

func NewRunner(router QueryRouter) *Runner {
	return &Runner{router: router, now: time.Now}
}

// Run scores every query. A routing error is recorded on the result and
// counts as a miss; only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByIntent:     make(map[Intent]*IntentSummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := r.now()
		intent, tables, err := r.router.Route(ctx, gq.Query)
		result := EvalResult{
			QueryID:         gq.ID,
			Query:           gq.Query,
			Intent:          gq.Intent,
			PredictedIntent: intent,
			RetrievedTables: tables,
			Latency:         r.now().Sub(start),
		}
		if err != nil {
			result.Error = err.Error()
		} else {
			result.IntentCorrect = intent == gq.Intent
			result.RecallAt5 = RecallAtK(gq.ExpectedTables, tables, RetrievalK)
			result.MRRAt5 = MRRAtK(gq.ExpectedTables, tables, RetrievalK)
		}

		r.updateSummary(summary, result, len(gq.ExpectedTables) > 0)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult, scoredRetrieval bool) {
	s.Results = append(s.Results, res)
	s.AvgLatency += res.Latency
	if res.Error != "" {
		s.Errors++
	}
	if res.IntentCorrect {
		s.IntentAccuracy++
	}

	if _, ok := s.ByIntent[res.Intent]; !ok {
		s.ByIntent[res.Intent] = &IntentSummary{}
	}
	is := s.ByIntent[res.Intent]
	is.Count++
	if res.IntentCorrect {
		is.correct++
	}

	if !scoredRetrieval {
		return
	}
	s.RetrievalQueries++
	s.AvgRecallAt5 += res.RecallAt5
	s.AvgMRRAt5 += res.MRRAt5
	is.retrieval++
	is.AvgRecallAt5 += res.RecallAt5
	is.AvgMRRAt5 += res.MRRAt5
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		s.IntentAccuracy /= float64(s.TotalQueries)
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}
	if s.RetrievalQueries > 0 {
		n := float64(s.RetrievalQueries)
		s.AvgRecallAt5 /= n
		s.AvgMRRAt5 /= n
	}

	for _, is := range s.ByIntent {
		if is.Count > 0 {
			is.IntentAccuracy = float64(is.correct) / float64(is.Count)
		}
		if is.retrieval > 0 {
			n := float64(is.retrieval)
			is.AvgRecallAt5 /= n
			is.AvgMRRAt5 /= n
		}
	}
}
