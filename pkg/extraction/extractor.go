// Package extraction sends one chunk at a time to the external
// entity/relation extraction service, parses the embedded JSON response, and
// retries transient transport failures with exponential backoff behind a
// circuit breaker.
package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/docugraph/docugraph/pkg/cache"
	"github.com/docugraph/docugraph/pkg/llm"
	"github.com/docugraph/docugraph/pkg/types"
	"github.com/sony/gobreaker"
)

const (
	// DefaultMaxRetries bounds retries of transient failures per chunk.
	DefaultMaxRetries = 3
	// DefaultBaseDelay seeds the exponential backoff (base << attempt).
	DefaultBaseDelay = 500 * time.Millisecond
	// DefaultCacheTTL keeps cached chunk results for a day.
	DefaultCacheTTL = 24 * time.Hour
)

// Options configures an Extractor.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	Cache      cache.Cache // optional; nil disables caching
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// Extractor extracts entities and relations from one chunk per call.
type Extractor struct {
	client     llm.Client
	model      string
	maxRetries int
	baseDelay  time.Duration
	breaker    *gobreaker.CircuitBreaker
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// New creates an Extractor on top of the given chat client. model is only
// used to key the result cache; the client itself carries the model it
// requests.
func New(client llm.Client, model string, opts Options) *Extractor {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "extraction",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Extractor{
		client:     client,
		model:      model,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		breaker:    breaker,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		logger:     opts.Logger,
	}
}

// Extract sends one chunk to the extraction service and returns the parsed
// result. Malformed response content degrades to an empty result; transport
// failures return *ExtractionError once retries are exhausted.
func (e *Extractor) Extract(ctx context.Context, text string) (*types.ChunkResult, error) {
	if cached, ok := e.fromCache(text); ok {
		return cached, nil
	}

	messages := []llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(RenderPrompt(text)),
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.baseDelay << (attempt - 1)
			e.logger.Warn("retrying extraction", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &ExtractionError{Attempts: attempt, Err: ctx.Err()}
			}
		}

		out, err := e.breaker.Execute(func() (any, error) {
			return e.client.Chat(ctx, messages)
		})
		if err == nil {
			result := ParseResponse(out.(*llm.Response).Content)
			e.toCache(text, &result)
			return &result, nil
		}
		lastErr = err

		if status, ok := llm.StatusOf(err); ok && !retryableStatus(status) {
			return nil, &ExtractionError{
				StatusCode: status,
				Body:       llm.BodyOf(err),
				Attempts:   attempt + 1,
				Err:        err,
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &ExtractionError{Attempts: attempt + 1, Err: err}
		}
	}

	failure := &ExtractionError{Attempts: e.maxRetries + 1, Err: lastErr}
	if status, ok := llm.StatusOf(lastErr); ok {
		failure.StatusCode = status
		failure.Body = llm.BodyOf(lastErr)
	}
	return nil, failure
}

// retryableStatus classifies HTTP status codes. 401/403 count as retryable
// because the gateway signals a stale x-bce-date signature that way; the
// transport stamps a fresh header on the next attempt.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return true
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}

func (e *Extractor) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(e.model + "\x00" + promptTemplate + "\x00" + text))
	return "extract:" + hex.EncodeToString(sum[:])
}

func (e *Extractor) fromCache(text string) (*types.ChunkResult, bool) {
	if e.cache == nil {
		return nil, false
	}
	raw, err := e.cache.Get(e.cacheKey(text))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			e.logger.Warn("extraction cache read failed", "error", err)
		}
		return nil, false
	}
	var result types.ChunkResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (e *Extractor) toCache(text string, result *types.ChunkResult) {
	if e.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := e.cache.Set(e.cacheKey(text), raw, e.cacheTTL); err != nil {
		e.logger.Warn("extraction cache write failed", "error", err)
	}
}
