// Package workflow routes a question through intent classification to either
// the SQL path or the RAG path and produces the final answer.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashbaviskar01/model-api/internal/domain/entities"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Node identifies a stage of the pipeline
type Node string

const (
	NodeClassify         Node = "classify"
	NodeSimilaritySearch Node = "similarity_search"
	NodeGenerateSQL      Node = "generate_sql"
	NodeExecuteSQL       Node = "execute_sql"
	NodeFetchPrompt      Node = "fetch_prompt"
	NodeFinalAnswer      Node = "final_answer"
	NodeRAGAnswer        Node = "rag_answer"
	NodeEnd              Node = "end"
)

// ErrInvalidState is returned when a traversal cannot reach NodeEnd
var ErrInvalidState = errors.New("workflow reached an invalid state")

// Handler runs one stage. Stage failures are recorded in the returned state.
type Handler func(ctx context.Context, state *entities.PipelineState) *entities.PipelineState

// edges holds the fixed transitions. NodeClassify branches in next.
var edges = map[Node]Node{
	NodeSimilaritySearch: NodeGenerateSQL,
	NodeGenerateSQL:      NodeExecuteSQL,
	NodeExecuteSQL:       NodeFetchPrompt,
	NodeFetchPrompt:      NodeFinalAnswer,
	NodeFinalAnswer:      NodeEnd,
	NodeRAGAnswer:        NodeEnd,
}

// maxSteps bounds a traversal. The longest path visits every node but RAG once.
const maxSteps = 7

// Orchestrator walks the node graph for one request at a time
type Orchestrator struct {
	handlers map[Node]Handler
	metrics  *observability.WorkflowMetrics
}

// NewOrchestrator creates an orchestrator over handlers. metrics may be nil.
func NewOrchestrator(handlers map[Node]Handler, metrics *observability.WorkflowMetrics) *Orchestrator {
	return &Orchestrator{handlers: handlers, metrics: metrics}
}

// Run answers query for clientID. It only fails when the traversal itself is
// broken; stage failures surface as placeholder answers.
func (o *Orchestrator) Run(ctx context.Context, query, clientID string) (*entities.PipelineState, error) {
	state := entities.NewPipelineState(query, clientID)
	node := NodeClassify

	for steps := 0; node != NodeEnd; steps++ {
		if steps >= maxSteps {
			return nil, fmt.Errorf("%w: no end after %d steps", ErrInvalidState, steps)
		}
		handler, ok := o.handlers[node]
		if !ok {
			return nil, fmt.Errorf("%w: no handler for node %q", ErrInvalidState, node)
		}

		state = o.runNode(ctx, node, handler, state)
		if state == nil {
			return nil, fmt.Errorf("%w: node %q returned no state", ErrInvalidState, node)
		}
		node = next(node, state)
	}

	return state, nil
}

func (o *Orchestrator) runNode(ctx context.Context, node Node, handler Handler, state *entities.PipelineState) *entities.PipelineState {
	ctx, span := observability.StartSpan(ctx, "workflow."+string(node))
	defer span.End()

	start := time.Now()
	out := handler(ctx, state)
	o.metrics.ObserveStage(string(node), time.Since(start))

	if out != nil && node == NodeClassify {
		o.metrics.ObserveRoute(string(out.QueryIntent))
		observability.SetSpanAttributes(span, attribute.String("workflow.intent", string(out.QueryIntent)))
	}
	return out
}

func next(node Node, state *entities.PipelineState) Node {
	if node == NodeClassify {
		if state.QueryIntent == entities.IntentGeneralQuery {
			return NodeRAGAnswer
		}
		return NodeSimilaritySearch
	}
	if to, ok := edges[node]; ok {
		return to
	}
	// no outgoing edge: the step bound ends the traversal
	return node
}
