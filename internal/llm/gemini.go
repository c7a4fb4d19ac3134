package llm

import (
	"context"
	stderrors "errors"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/metrics"
)

// GeminiClient uses the official generative-ai-go SDK.
type GeminiClient struct {
	apiKey string
	model  string
	opts   Options
}

func NewGemini(apiKey, model string, opts Options) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model, opts: opts.withDefaults()}
}

func (c *GeminiClient) Provider() string { return "google" }

func (c *GeminiClient) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", errors.NewProviderError(c.Provider(), err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	temp := float32(c.opts.Temperature)
	model.Temperature = &temp
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		if stderrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewProviderTimeoutError(c.Provider())
		}
		return "", errors.NewProviderError(c.Provider(), err)
	}

	text := firstText(resp)
	if text == "" {
		metrics.LLMRequests.WithLabelValues(c.Provider(), "error").Inc()
		return "", errors.NewProviderError(c.Provider(), fmt.Errorf("empty response"))
	}

	metrics.LLMRequests.WithLabelValues(c.Provider(), "ok").Inc()
	return text, nil
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
