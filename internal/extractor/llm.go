package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"

	"call-insights-go/internal/logger"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "google/gemma-3n-4b"
	DefaultTimeout = 8 * time.Second

	maxTokens   = 400
	temperature = 0.3
)

var (
	// ErrUnavailable covers every way the model can fail to answer: disabled
	// client, transport error, non-2xx status, timeout or empty content.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrMalformed means the model answered but the answer could not be parsed.
	ErrMalformed = errors.New("llm response malformed")
)

// Completer sends one system+user prompt pair and returns the completion text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Mock disables the network entirely; every call fails with ErrUnavailable
	// so callers take their deterministic path.
	Mock       bool
	HTTPClient *http.Client
}

// Client talks to an OpenAI-compatible chat completions endpoint.
// One attempt per call, bounded by the configured timeout.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     *logrus.Entry
}

func NewClient(cfg Config) *Client {
	c := &Client{
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     logger.New().WithField("component", "llm-client"),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.Mock || strings.TrimSpace(cfg.APIKey) == "" {
		c.log.Info("llm client disabled, analysis will use the deterministic fallback")
		return c
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	api := openai.NewClient(opts...)
	c.api = &api
	return c
}

// Enabled reports whether calls will reach the network.
func (c *Client) Enabled() bool { return c.api != nil }

func (c *Client) Model() string { return c.model }

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.api == nil {
		return "", fmt.Errorf("%w: client disabled", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	log := c.log.WithFields(logrus.Fields{"model": c.model, "elapsed_ms": time.Since(start).Milliseconds()})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			log.WithField("http_status", apiErr.StatusCode).Warn("llm returned an error status")
			return "", fmt.Errorf("%w: status %d", ErrUnavailable, apiErr.StatusCode)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("llm request timed out")
		} else {
			log.WithError(err).Warn("llm request failed")
		}
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrUnavailable)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	log.Debug("llm raw:\n" + content)
	return content, nil
}
