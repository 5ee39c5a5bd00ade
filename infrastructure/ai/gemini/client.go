// Package gemini implements the AI provider port against the Gemini
// generateContent API
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

const providerName = "gemini"

// Config holds the client settings
type Config struct {
	APIKeys         []string
	BaseURL         string
	Model           string
	MinRequestDelay time.Duration
	RequestTimeout  time.Duration
	MaxOutputTokens int
	Temperature     float64
	TopK            int
	TopP            float64
}

// Client talks to the Gemini generateContent endpoint with round-robin
// credential rotation, per-credential spacing and a circuit breaker
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rateLimiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// Compile-time interface check
var _ ports.AIClient = (*Client)(nil)

// NewClient creates a Gemini client. With zero credentials the client stays
// constructible and every call reports a not configured error, so AI-backed
// features degrade instead of crashing.
func NewClient(config Config, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.MinRequestDelay <= 0 {
		config.MinRequestDelay = 4 * time.Second
	}

	if len(config.APIKeys) == 0 {
		logger.Warn("No AI provider credentials configured, AI features disabled")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		limiter:    newRateLimiter(config.APIKeys, config.MinRequestDelay),
		breaker:    breaker,
		logger:     logger,
		metrics:    metrics,
	}
}

// Enabled reports whether at least one credential is configured
func (c *Client) Enabled() bool {
	return len(c.config.APIKeys) > 0
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generateContent runs one prompt through the rate limiter and breaker and
// returns the first candidate's text, empty when the provider returned none
func (c *Client) generateContent(ctx context.Context, operation, prompt string) (string, error) {
	if !c.Enabled() {
		return "", errors.NewNotConfiguredError("ai provider credentials")
	}

	start := time.Now()
	var text string

	err := c.limiter.do(ctx, func(ctx context.Context, apiKey string) error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.post(ctx, apiKey, prompt)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return errors.NewExternalError(providerName, "provider temporarily unavailable").WithCause(err)
			}
			return err
		}
		text = result.(string)
		return nil
	})

	outcome := "success"
	if err != nil {
		switch {
		case errors.IsRateLimit(err):
			outcome = "rate_limited"
		case errors.IsMalformedResponse(err):
			outcome = "malformed"
		case errors.IsNotConfigured(err):
			outcome = "not_configured"
		default:
			outcome = "error"
		}
	}
	if c.metrics != nil {
		c.metrics.RecordAIRequest(operation, outcome, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     c.config.Temperature,
			TopK:            c.config.TopK,
			TopP:            c.config.TopP,
			MaxOutputTokens: c.config.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewInternalError("failed to encode provider request").WithCause(err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(c.config.BaseURL, "/"), c.config.Model, apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.NewInternalError("failed to build provider request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewExternalError(providerName, "provider request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.NewRateLimitError(providerName)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewExternalError(providerName,
			fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewExternalError(providerName, "failed to read provider response").WithCause(err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", errors.NewMalformedResponseError(providerName, "provider response is not valid JSON").WithCause(err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// ExtractConcepts pulls concept labels out of a text. An unparseable
// response degrades to an empty slice so ingestion keeps going.
func (c *Client) ExtractConcepts(ctx context.Context, text string) ([]string, error) {
	response, err := c.generateContent(ctx, "extract_concepts", conceptExtractionPrompt(text))
	if err != nil {
		return nil, err
	}

	var concepts []string
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &concepts); err != nil {
		c.logger.Warn("Concept extraction returned unparseable response", zap.Error(err))
		return []string{}, nil
	}
	return concepts, nil
}

// ExtractStructuredKnowledge pulls concepts plus a one-sentence summary.
// An unparseable response degrades to an empty result.
func (c *Client) ExtractStructuredKnowledge(ctx context.Context, text string) (ports.StructuredKnowledge, error) {
	response, err := c.generateContent(ctx, "extract_structured", structuredKnowledgePrompt(text))
	if err != nil {
		return ports.StructuredKnowledge{}, err
	}

	var decoded struct {
		Concepts []string `json:"concepts"`
		Summary  string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &decoded); err != nil {
		c.logger.Warn("Structured extraction returned unparseable response", zap.Error(err))
		return ports.StructuredKnowledge{Concepts: []string{}}, nil
	}
	if decoded.Concepts == nil {
		decoded.Concepts = []string{}
	}
	return ports.StructuredKnowledge{Concepts: decoded.Concepts, Summary: decoded.Summary}, nil
}

// JudgeRelation asks the provider whether two nodes are related. Unlike the
// extraction calls, a parse failure here is reported as a malformed response
// error; the suggestion engine decides how to degrade per pair.
func (c *Client) JudgeRelation(ctx context.Context, source, target ports.NodeDescriptor) (ports.RelationJudgement, error) {
	response, err := c.generateContent(ctx, "judge_relation", relationJudgementPrompt(source, target))
	if err != nil {
		return ports.RelationJudgement{}, err
	}

	var decoded struct {
		Related          bool    `json:"related"`
		Confidence       float64 `json:"confidence"`
		RelationshipType string  `json:"relationship_type"`
		Explanation      string  `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &decoded); err != nil {
		return ports.RelationJudgement{}, errors.NewMalformedResponseError(providerName,
			"relation judgement is not valid JSON").WithCause(err)
	}

	return ports.RelationJudgement{
		Related:          decoded.Related,
		Confidence:       decoded.Confidence,
		RelationshipType: decoded.RelationshipType,
		Explanation:      decoded.Explanation,
	}, nil
}

// AnswerQuestion generates an answer grounded in the supplied context
func (c *Client) AnswerQuestion(ctx context.Context, question, contextText string) (string, error) {
	return c.generateContent(ctx, "answer_question", answerQuestionPrompt(question, contextText))
}

// Summarize condenses a text to roughly maxWords words
func (c *Client) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 200
	}
	return c.generateContent(ctx, "summarize", summarizePrompt(text, maxWords))
}

// RerankSearchResults asks the provider to reorder search results by
// semantic relevance and returns the IDs best first
func (c *Client) RerankSearchResults(ctx context.Context, query string, results []ports.RankedItem) ([]string, error) {
	response, err := c.generateContent(ctx, "rerank_search", rerankPrompt(query, results))
	if err != nil {
		return nil, err
	}

	parts := strings.Split(response, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, errors.NewMalformedResponseError(providerName, "rerank response contained no ids")
	}
	return ids, nil
}
