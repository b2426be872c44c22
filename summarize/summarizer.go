// Package summarize produces short topic briefs from document snippets
// using Claude Haiku.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel   = anthropic.Model("claude-3-5-haiku-latest")
	maxRetries     = 3
	initialBackoff = 1 * time.Second
)

// ErrAPIKeyRequired is returned when an API key is needed but not provided.
var ErrAPIKeyRequired = errors.New("API key required")

// Request describes one summarization call
type Request struct {
	// Topic is a short label for what the snippets have in common.
	Topic string
	// Snippets are document excerpts to summarize.
	Snippets []string
	// MaxWords caps the brief length. Zero selects a default.
	MaxWords int
}

// Summarizer produces a short brief for a set of document snippets
type Summarizer interface {
	Summarize(ctx context.Context, request Request) (string, error)
}

// AnthropicSummarizer wraps the Anthropic API for topic briefs.
type AnthropicSummarizer struct {
	client         anthropic.Client
	model          anthropic.Model
	promptTemplate *template.Template
	maxRetries     int
	initialBackoff time.Duration
}

// NewAnthropicSummarizer creates a new summarizer. Env var
// ANTHROPIC_API_KEY takes precedence over the explicit apiKey.
func NewAnthropicSummarizer(apiKey string) (*AnthropicSummarizer, error) {
	envKey := os.Getenv("ANTHROPIC_API_KEY")
	if envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY environment variable or provide via config", ErrAPIKeyRequired)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	promptTmpl, err := template.New("brief").Parse(briefPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse brief template: %w", err)
	}

	return &AnthropicSummarizer{
		client:         client,
		model:          defaultModel,
		promptTemplate: promptTmpl,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
	}, nil
}

// Summarize produces a brief for the request's snippets.
func (s *AnthropicSummarizer) Summarize(ctx context.Context, request Request) (string, error) {
	if len(request.Snippets) == 0 {
		return "", fmt.Errorf("no snippets to summarize")
	}

	prompt, err := renderPrompt(s.promptTemplate, request)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	return s.callWithRetry(ctx, prompt)
}

func (s *AnthropicSummarizer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		message, err := s.client.Messages.New(ctx, params)

		if err == nil {
			if len(message.Content) > 0 {
				content := message.Content[0]
				if content.Type == "text" {
					return strings.TrimSpace(content.Text), nil
				}
				return "", fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type)
			}
			return "", fmt.Errorf("unexpected response format: no content blocks")
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if !isRetryable(err) {
			return "", fmt.Errorf("non-retryable error: %w", err)
		}
	}

	return "", fmt.Errorf("failed after %d retries: %w", s.maxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		statusCode := apiErr.StatusCode
		if statusCode == 429 || statusCode >= 500 {
			return true
		}
		return false
	}

	return false
}

type promptData struct {
	Topic    string
	Snippets []string
	MaxWords int
}

func renderPrompt(tmpl *template.Template, request Request) (string, error) {
	maxWords := request.MaxWords
	if maxWords <= 0 {
		maxWords = 80
	}

	var builder strings.Builder
	err := tmpl.Execute(&builder, promptData{
		Topic:    request.Topic,
		Snippets: request.Snippets,
		MaxWords: maxWords,
	})
	if err != nil {
		return "", err
	}
	return builder.String(), nil
}

const briefPromptTemplate = `You are writing a brief for a digest of recent documents. The excerpts below all belong to the topic "{{.Topic}}".

{{range .Snippets}}---
{{.}}
{{end}}---

Write a single paragraph of at most {{.MaxWords}} words summarizing what these documents cover. State the concrete subjects and developments, no preamble and no bullet points.`
