// Package openai adapts the OpenAI chat-completions API as the external
// bias-analysis capability.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/biaslab/bias-engine/internal/core/domain"
	"github.com/biaslab/bias-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// RequestsPerSecond throttles outbound calls to the provider's rate
	// limit; zero disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
	Executor          *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	executor := options.Executor
	if executor == nil {
		// Retry policy belongs to the core scorer; the executor only
		// carries the circuit breaker for the shared dependency.
		executor = resilience.NewExecutor(resilience.BreakerOnly())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   executor,
	}
}

// scorePayload is the loosely-typed model response, validated into the
// fixed score shape at this boundary.
type scorePayload struct {
	Value              *float64 `json:"value"`
	HighlightedPhrases []string `json:"highlighted_phrases"`
	Rationale          string   `json:"rationale"`
}

func (c *Client) ScoreDimension(ctx context.Context, doc *domain.Document, kind domain.DimensionKind) (domain.DimensionScore, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.DimensionScore{}, err
		}
	}

	request := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": buildDimensionPrompt(doc, kind)},
		},
		"temperature":     0.1,
		"max_tokens":      600,
		"response_format": map[string]string{"type": "json_object"},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	operation := "score." + string(kind)
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/v1/chat/completions", request, &response, operation)
	}, classifyModelError)
	if err != nil {
		return domain.DimensionScore{}, wrapTemporaryIfNeeded(operation, err)
	}

	if len(response.Choices) == 0 {
		return domain.DimensionScore{}, malformedResponse(operation, fmt.Errorf("no choices in response"))
	}

	payload, err := parseScorePayload(response.Choices[0].Message.Content)
	if err != nil {
		return domain.DimensionScore{}, malformedResponse(operation, err)
	}

	phrases := payload.HighlightedPhrases
	if phrases == nil {
		phrases = []string{}
	}
	return domain.DimensionScore{
		Kind:               kind,
		Value:              *payload.Value,
		HighlightedPhrases: phrases,
		Rationale:          strings.TrimSpace(payload.Rationale),
	}, nil
}

func parseScorePayload(content string) (*scorePayload, error) {
	var payload scorePayload
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &payload); err != nil {
		return nil, fmt.Errorf("parse score json: %w", err)
	}
	if payload.Value == nil {
		return nil, fmt.Errorf("score json has no value field")
	}
	return &payload, nil
}

// malformedResponse marks a bad payload as temporary: the model often
// produces valid JSON on a second ask, so the core retry policy applies.
func malformedResponse(operation string, err error) error {
	return domain.WrapError(domain.ErrTemporary, operation, err)
}

// extractJSONObject tolerates models wrapping JSON in prose or fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
