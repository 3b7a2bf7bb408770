package routes

import (
	"net/http"

	"github.com/yashbaviskar01/model-api/internal/api/handlers"
	"github.com/yashbaviskar01/model-api/internal/api/middleware"
	"github.com/yashbaviskar01/model-api/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	chatHandler          *handlers.ChatHandler
	knowledgeBaseHandler *handlers.KnowledgeBaseHandler
	tableHandler         *handlers.TableHandler
	promptHandler        *handlers.PromptHandler

	metrics         *observability.Metrics
	workflowMetrics *observability.WorkflowMetrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	chatHandler *handlers.ChatHandler,
	knowledgeBaseHandler *handlers.KnowledgeBaseHandler,
	tableHandler *handlers.TableHandler,
	promptHandler *handlers.PromptHandler,
	metrics *observability.Metrics,
	workflowMetrics *observability.WorkflowMetrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:                  http.NewServeMux(),
		chatHandler:          chatHandler,
		knowledgeBaseHandler: knowledgeBaseHandler,
		tableHandler:         tableHandler,
		promptHandler:        promptHandler,
		metrics:              metrics,
		workflowMetrics:      workflowMetrics,
		allowedOrigins:       allowedOrigins,
	}
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.ObservabilityMiddleware(r.metrics)(h))
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.handle("GET /{$}", handlers.Health)
	r.handle("GET /health", handlers.Health)

	r.handle("POST /chat", r.chatHandler.Chat)
	r.handle("POST /query_knowledge_base", r.knowledgeBaseHandler.Query)

	r.handle("POST /generate_table_description", r.tableHandler.GenerateDescription)
	r.handle("POST /store_table_embedding", r.tableHandler.StoreEmbedding)

	r.handle("PUT /prompts/update", r.promptHandler.UpdatePrompt)
	r.handle("GET /prompts/{name...}", r.promptHandler.GetPrompt)

	if r.workflowMetrics != nil {
		r.mux.Handle("GET /metrics", r.workflowMetrics.Handler())
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.Compression(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
