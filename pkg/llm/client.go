package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// maxResponseSize limits the response body read to prevent memory
// exhaustion on a misbehaving endpoint.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// RetryConfig controls retry behavior for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

// Provider builds and parses requests for one LLM API family.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// BuildRequest constructs the HTTP request for a prompt.
	BuildRequest(ctx context.Context, baseURL, model, apiKey, prompt string) (*http.Request, error)

	// ParseResponse extracts the generated text from the response body.
	ParseResponse(body []byte) (string, error)
}

// Client is a provider-agnostic Generator backed by an HTTP chat API,
// with bounded retry and jittered backoff.
type Client struct {
	provider    Provider
	baseURL     string
	model       string
	apiKey      string
	httpClient  *http.Client
	retryConfig RetryConfig
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// NewClient creates a Generator that talks to the given provider.
func NewClient(provider Provider, baseURL, model, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		provider:    provider,
		baseURL:     baseURL,
		model:       model,
		apiKey:      apiKey,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Allow time for model responses
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt and returns the generated text, retrying
// transient failures.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("empty prompt")
	}

	var lastErr error
	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		text, retryable, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", errors.Wrapf(lastErr, "llm generate failed after %d attempts", c.retryConfig.MaxAttempts)
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryConfig.BaseDelay << uint(attempt-1)
	if delay > c.retryConfig.MaxDelay {
		delay = c.retryConfig.MaxDelay
	}
	// Full jitter keeps concurrent sessions from retrying in lockstep.
	return time.Duration(rand.Int63n(int64(delay)) + int64(delay)/2)
}

func (c *Client) complete(ctx context.Context, prompt string) (text string, retryable bool, err error) {
	req, err := c.provider.BuildRequest(ctx, c.baseURL, c.model, c.apiKey, prompt)
	if err != nil {
		return "", false, errors.Wrap(err, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", true, errors.Wrap(err, "read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		out, perr := c.provider.ParseResponse(body)
		if perr != nil {
			return "", false, errors.Wrapf(perr, "parse %s response", c.provider.Name())
		}
		return out, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", true, fmt.Errorf("%s returned status %d", c.provider.Name(), resp.StatusCode)
	default:
		return "", false, fmt.Errorf("%s returned status %d: %s", c.provider.Name(), resp.StatusCode, truncate(string(body), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// OpenAIProvider targets OpenAI-compatible chat completion endpoints
// (OpenAI, Ollama, vLLM, most gateways).
type OpenAIProvider struct{}

func (OpenAIProvider) Name() string { return "openai" }

func (OpenAIProvider) BuildRequest(ctx context.Context, baseURL, model, apiKey, prompt string) (*http.Request, error) {
	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return req, nil
}

func (OpenAIProvider) ParseResponse(body []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}

// AnthropicProvider targets the Anthropic messages endpoint.
type AnthropicProvider struct{}

func (AnthropicProvider) Name() string { return "anthropic" }

func (AnthropicProvider) BuildRequest(ctx context.Context, baseURL, model, apiKey, prompt string) (*http.Request, error) {
	payload := map[string]any{
		"model":      model,
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (AnthropicProvider) ParseResponse(body []byte) (string, error) {
	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return parsed.Content[0].Text, nil
}
