// Package llm provides the OpenAI-compatible text-generation client
// used by the fallback classifier.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Config represents the generation service configuration.
type Config struct {
	Provider    string // openai, deepseek, siliconflow, ollama, or any OpenAI-compatible provider
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0 (classification wants determinism)
	Timeout     int     // request timeout in seconds (default: 30)
}

// Service issues structured generation requests: a prompt plus a JSON
// schema in, a schema-conformant JSON payload out.
type Service struct {
	client    *openai.Client
	model     string
	provider  string
	maxTokens int
	timeout   int
}

// providerBaseURLs holds the default endpoint per known provider.
var providerBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"ollama":      "http://localhost:11434/v1",
}

// NewService creates the generation client.
func NewService(cfg Config) (*Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = newHTTPClient()

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = providerBaseURLs[cfg.Provider]
	}
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	return &Service{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		provider:  cfg.Provider,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

// GenerateStructured sends one completion request in JSON mode and
// returns the raw payload. The schema is embedded in the request so the
// model sees the exact contract; validation stays with the caller.
func (s *Service) GenerateStructured(ctx context.Context, prompt string, schema string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Reply with a single JSON object conforming to this schema:\n" + schema,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Debug("structured generation failed",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, errors.Wrap(err, "structured generation")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from generation service")
	}

	slog.Debug("structured generation completed",
		"provider", s.provider,
		"model", s.model,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return []byte(resp.Choices[0].Message.Content), nil
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
