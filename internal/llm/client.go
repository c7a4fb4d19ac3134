// Package llm abstracts the chat-completion providers behind a single
// capability interface so the workflow and its tests can substitute a
// deterministic stub.
package llm

import (
	"context"
	"time"
)

// Client is the capability the workflow depends on: one system-prompted
// completion call. Implementations collapse network, auth, rate-limit and
// malformed-response conditions into PROVIDER_ERROR / PROVIDER_TIMEOUT.
type Client interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Provider() string
}

// Options holds deployment-level call limits shared by all providers.
type Options struct {
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 1024
	}
	return o
}
