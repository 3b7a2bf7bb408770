package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/yashbaviskar01/model-api/internal/domain/providers"
	"github.com/yashbaviskar01/model-api/pkg/config"
	apperrors "github.com/yashbaviskar01/model-api/pkg/errors"
	"github.com/yashbaviskar01/model-api/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements providers.CompletionProvider against the OpenAI HTTP API.
type Client struct {
	apiKey          string
	baseURL         string
	classifierModel string
	httpClient      *http.Client
	limiter         *tokenBucket
	breaker         *gobreaker.CircuitBreaker
	embeddings      *lru.Cache[string, []float32]
	retryConfig     retry.Config
}

var _ providers.CompletionProvider = (*Client)(nil)

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	classifierModel := cfg.ClassifierModel
	if classifierModel == "" {
		classifierModel = "gpt-4o-2024-11-20"
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	var embeddings *lru.Cache[string, []float32]
	if cfg.EmbeddingCacheSize > 0 {
		cache, err := lru.New[string, []float32](cfg.EmbeddingCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding cache: %w", err)
		}
		embeddings = cache
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		classifierModel: classifierModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:     newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		breaker:     newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout),
		embeddings:  embeddings,
		retryConfig: retry.QuickConfig(),
	}, nil
}

func newBreaker(failures int, timeout time.Duration) *gobreaker.CircuitBreaker {
	if failures <= 0 {
		failures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("OpenAI circuit breaker state changed")
		},
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Classify sends prompt to the classifier model at its default temperature.
func (c *Client) Classify(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, providers.CompletionRequest{
		Model:  c.classifierModel,
		Prompt: prompt,
	})
}

// Complete returns the first choice's message content.
func (c *Client) Complete(ctx context.Context, req providers.CompletionRequest) (string, error) {
	if req.Model == "" {
		return "", apperrors.NewValidationError("completion model is required")
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	var resp chatResponse
	err := c.post(ctx, "/chat/completions", "complete", req.Model, chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewExternalError("openai response contained no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding for text. Results are cached per model and text.
func (c *Client) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		return nil, apperrors.NewValidationError("embedding model is required")
	}

	cacheKey := model + "\x00" + text
	if c.embeddings != nil {
		if vec, ok := c.embeddings.Get(cacheKey); ok {
			return vec, nil
		}
	}

	var resp embeddingResponse
	if err := c.post(ctx, "/embeddings", "embed", model, embeddingRequest{Model: model, Input: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, apperrors.NewExternalError("openai response contained no embedding", nil)
	}

	vec := resp.Data[0].Embedding
	if c.embeddings != nil {
		c.embeddings.Add(cacheKey, vec)
	}
	return vec, nil
}

func (c *Client) post(ctx context.Context, path, operation, model string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternalError("failed to encode openai request", err)
	}

	return retry.Do(ctx, c.retryConfig, func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.send(ctx, path, operation, model, body, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return retry.Permanent(apperrors.NewExternalError("openai circuit breaker open", err))
		}
		return err
	})
}

func (c *Client) send(ctx context.Context, path, operation, model string, body []byte, out any) error {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordOpenAIMetric(ctx, operation, model, 0, 0, err)
			return retry.Permanent(err)
		}
		recordOpenAIRateLimitWait(ctx, model, time.Since(waitStart))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordOpenAIMetric(ctx, operation, model, 0, time.Since(start), err)
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return apperrors.NewExternalError("openai request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		recordOpenAIMetric(ctx, operation, model, resp.StatusCode, time.Since(start), statusErr)

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return retry.Permanent(&apperrors.AppError{Type: apperrors.ErrorTypeUnauthorized, Message: "openai rejected credentials", Err: statusErr})
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return apperrors.NewExternalError("openai request failed", statusErr)
		default:
			return retry.Permanent(apperrors.NewExternalError("openai request rejected", statusErr))
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		recordOpenAIMetric(ctx, operation, model, resp.StatusCode, time.Since(start), err)
		return retry.Permanent(apperrors.NewExternalError("failed to decode openai response", err))
	}

	recordOpenAIMetric(ctx, operation, model, resp.StatusCode, time.Since(start), nil)
	return nil
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type openAIMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	openaiMetricsOnce sync.Once
	openaiMetrics     *openAIMetrics
)

func ensureOpenAIMetrics() *openAIMetrics {
	openaiMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/yashbaviskar01/model-api/openai")

		requestCount, err := meter.Int64Counter(
			"ai.openai.request.count",
			metric.WithDescription("Number of OpenAI requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.openai.request.duration",
			metric.WithDescription("OpenAI request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.openai.request.errors",
			metric.WithDescription("Number of OpenAI request errors"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.openai.rate_limit.wait",
			metric.WithDescription("Time spent waiting for OpenAI rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		openaiMetrics = &openAIMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
	})
	return openaiMetrics
}

func recordOpenAIMetric(ctx context.Context, operation, model string, statusCode int, duration time.Duration, err error) {
	m := ensureOpenAIMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.operation", operation),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordOpenAIRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	m := ensureOpenAIMetrics()
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	m.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
