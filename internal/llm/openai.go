package llm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/metrics"
)

const openAIDefaultBaseURL = "https://api.openai.com"

// OpenAIClient calls the Chat Completions API over plain HTTP.
type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	opts    Options
	client  *http.Client
}

func NewOpenAI(apiKey, model, baseURL string, opts Options) *OpenAIClient {
	opts = opts.withDefaults()
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &OpenAIClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

func (c *OpenAIClient) Provider() string { return "openai" }

func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	messages := []map[string]string{}
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": user})

	body := map[string]interface{}{
		"model":       c.Model,
		"messages":    messages,
		"temperature": c.opts.Temperature,
		"max_tokens":  c.opts.MaxTokens,
	}

	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	err := postJSONWithRetry(ctx, c.client, c.BaseURL+"/v1/chat/completions", body, &resp, c.opts.MaxRetries, c.Provider(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", errors.NewProviderError(c.Provider(), fmt.Errorf("no choices in response"))
	}

	metrics.LLMRequests.WithLabelValues(c.Provider(), "ok").Inc()
	return resp.Choices[0].Message.Content, nil
}

// postJSONWithRetry issues the request with exponential backoff on transient
// failures, mapping context expiry to PROVIDER_TIMEOUT.
func postJSONWithRetry(ctx context.Context, client *http.Client, url string, body interface{}, out interface{}, maxRetries int, provider string, decorate func(*http.Request)) error {
	payload, _ := json.Marshal(body)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.NewProviderTimeoutError(provider)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return errors.NewProviderError(provider, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if decorate != nil {
			decorate(req)
		}

		resp, err := client.Do(req)

		if ctx.Err() != nil ||
			stderrors.Is(err, context.DeadlineExceeded) ||
			stderrors.Is(err, context.Canceled) {
			return errors.NewProviderTimeoutError(provider)
		}

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		decodeErr := json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if decodeErr != nil {
			return errors.NewProviderError(provider, fmt.Errorf("decode response: %v", decodeErr))
		}
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return errors.NewProviderTimeoutError(provider)
	}
	return errors.NewProviderError(provider, lastErr)
}
