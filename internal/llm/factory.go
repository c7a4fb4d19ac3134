package llm

import (
	"fmt"
	"time"

	"realestate-agent/internal/common/config"
	"realestate-agent/internal/common/errors"
)

// Factory builds provider clients from a strategy's provider/model pair.
// API keys and call limits come from deployment config, not the strategy.
type Factory struct {
	cfg config.LLMConfig
}

func NewFactory(cfg config.LLMConfig) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) options() Options {
	return Options{
		Timeout:     secondsOrZero(f.cfg.Timeout),
		MaxRetries:  f.cfg.MaxRetries,
		MaxTokens:   f.cfg.MaxTokens,
		Temperature: f.cfg.Temperature,
	}
}

func secondsOrZero(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// New returns a Client for the given provider name. Provider names follow
// the strategy records: openai, anthropic, google_vertexai (alias google),
// plus mock for tests and local runs.
func (f *Factory) New(provider, model string) (Client, error) {
	switch provider {
	case "openai":
		if f.cfg.OpenAIAPIKey == "" {
			return nil, errors.NewConfigurationError("strategy requires provider 'openai' but OPENAI_API_KEY is not set")
		}
		return NewOpenAI(f.cfg.OpenAIAPIKey, model, f.cfg.OpenAIBaseURL, f.options()), nil
	case "anthropic":
		if f.cfg.AnthropicAPIKey == "" {
			return nil, errors.NewConfigurationError("strategy requires provider 'anthropic' but ANTHROPIC_API_KEY is not set")
		}
		return NewAnthropic(f.cfg.AnthropicAPIKey, model, "", f.options()), nil
	case "google", "google_vertexai":
		if f.cfg.GoogleAPIKey == "" {
			return nil, errors.NewConfigurationError("strategy requires a Google provider but GOOGLE_API_KEY is not set")
		}
		return NewGemini(f.cfg.GoogleAPIKey, model, f.options()), nil
	case "mock":
		return NewMock(), nil
	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("unsupported LLM provider %q", provider))
	}
}
