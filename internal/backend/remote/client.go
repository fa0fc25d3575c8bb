// Package remote is a Generator backed by an OpenAI-compatible
// /v1/completions endpoint such as a llama.cpp or vLLM server.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/samcharles93/nextline/internal/predict"
)

type Config struct {
	// Endpoint is the server base URL, e.g. http://127.0.0.1:8080.
	Endpoint string
	Model    string
	APIKey   string
	// Timeout is a transport-level ceiling; the engine's per-call budget
	// normally fires first.
	Timeout time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	http  *resty.Client
	url   string
	model string
}

type completionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	Seed        *int64  `json:"seed,omitempty"`
	N           int     `json:"n"`
	Echo        bool    `json:"echo"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Choices []completionChoice `json:"choices"`
	Error   *apiError          `json:"error,omitempty"`
}

type completionChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: remote endpoint is required", predict.ErrModelUnavailable)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	hc := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		hc.SetAuthToken(cfg.APIKey)
	}
	return &Client{
		http:  hc,
		url:   endpoint + "/v1/completions",
		model: cfg.Model,
	}, nil
}

// Generate requests a single completion for prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts predict.SamplingOptions) (string, error) {
	req := completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxNewTokens,
		Temperature: opts.Temperature,
		TopK:        opts.TopK,
		TopP:        opts.TopP,
		N:           1,
	}
	if opts.Seed >= 0 {
		seed := opts.Seed
		req.Seed = &seed
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.url)
	if err != nil {
		return "", classifyTransport(ctx, err)
	}

	var out completionResponse
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &out); err != nil && !resp.IsError() {
			return "", &predict.GenerationError{Kind: predict.KindRejected, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	if resp.IsError() {
		msg := strings.TrimSpace(string(resp.Body()))
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", statusError(resp.StatusCode(), msg)
	}
	if out.Error != nil {
		return "", &predict.GenerationError{Kind: predict.KindRejected, Err: errors.New(out.Error.Message)}
	}
	if len(out.Choices) == 0 {
		return "", &predict.GenerationError{Kind: predict.KindRejected, Err: errors.New("response has no choices")}
	}
	return out.Choices[0].Text, nil
}

func statusError(status int, msg string) error {
	err := fmt.Errorf("status %d: %s", status, msg)
	switch status {
	case http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &predict.GenerationError{Kind: predict.KindModelUnavailable, Err: err}
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return &predict.GenerationError{Kind: predict.KindTimeout, Err: err}
	default:
		return &predict.GenerationError{Kind: predict.KindRejected, Err: err}
	}
}

func classifyTransport(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &predict.GenerationError{Kind: predict.KindTimeout, Err: err}
	}
	return &predict.GenerationError{Kind: predict.KindModelUnavailable, Err: err}
}
