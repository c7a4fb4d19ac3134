package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/metrics"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

// AnthropicClient calls the Messages API over plain HTTP.
type AnthropicClient struct {
	APIKey  string
	Model   string
	BaseURL string
	opts    Options
	client  *http.Client
}

func NewAnthropic(apiKey, model, baseURL string, opts Options) *AnthropicClient {
	opts = opts.withDefaults()
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &AnthropicClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

func (c *AnthropicClient) Provider() string { return "anthropic" }

func (c *AnthropicClient) Generate(ctx context.Context, system, user string) (string, error) {
	body := map[string]interface{}{
		"model":      c.Model,
		"max_tokens": c.opts.MaxTokens,
		"messages": []map[string]interface{}{{
			"role":    "user",
			"content": []map[string]string{{"type": "text", "text": user}},
		}},
	}
	if system != "" {
		body["system"] = system
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}

	err := postJSONWithRetry(ctx, c.client, c.BaseURL+"/v1/messages", body, &resp, c.opts.MaxRetries, c.Provider(), func(req *http.Request) {
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", err
	}

	if len(resp.Content) == 0 {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", errors.NewProviderError(c.Provider(), fmt.Errorf("no content in response"))
	}

	metrics.LLMRequests.WithLabelValues(c.Provider(), "ok").Inc()
	return resp.Content[0].Text, nil
}
