package evaluation

import "fmt"

// GuardrailConfig holds the minimum scores an evaluation run must reach.
// A zero threshold is not checked.
type GuardrailConfig struct {
	MinIntentAccuracy float64
	MinRecallAt5      float64
	MinMRRAt5         float64
	MaxErrors         int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxErrors < 0 {
		config.MaxErrors = 0
	}
	return &Guardrails{config: config}
}

// Violations lists every threshold the summary misses.
func (g *Guardrails) Violations(s *EvalSummary) []string {
	var out []string
	if g.config.MinIntentAccuracy > 0 && s.IntentAccuracy < g.config.MinIntentAccuracy {
		out = append(out, fmt.Sprintf("intent accuracy %.3f below %.3f", s.IntentAccuracy, g.config.MinIntentAccuracy))
	}
	if s.RetrievalQueries > 0 {
		if g.config.MinRecallAt5 > 0 && s.AvgRecallAt5 < g.config.MinRecallAt5 {
			out = append(out, fmt.Sprintf("recall@5 %.3f below %.3f", s.AvgRecallAt5, g.config.MinRecallAt5))
		}
		if g.config.MinMRRAt5 > 0 && s.AvgMRRAt5 < g.config.MinMRRAt5 {
			out = append(out, fmt.Sprintf("mrr@5 %.3f below %.3f", s.AvgMRRAt5, g.config.MinMRRAt5))
		}
	}
	if s.Errors > g.config.MaxErrors {
		out = append(out, fmt.Sprintf("%d routing errors, at most %d allowed", s.Errors, g.config.MaxErrors))
	}
	return out
}

// Pass reports whether the summary meets every threshold.
func (g *Guardrails) Pass(s *EvalSummary) bool {
	return len(g.Violations(s)) == 0
}
