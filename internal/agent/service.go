package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/logger"
	"realestate-agent/internal/common/metrics"
	"realestate-agent/internal/common/observability"
	"realestate-agent/internal/llm"
	"realestate-agent/internal/strategy"
)

// StrategyLookup resolves a strategy name to its provider/model/prompts.
type StrategyLookup interface {
	Lookup(ctx context.Context, name string) (*strategy.Strategy, error)
}

// ClientFactory builds an LLM client for a provider/model pair.
type ClientFactory interface {
	New(provider, model string) (llm.Client, error)
}

// Request is one user query plus its conversational context.
type Request struct {
	UserQuery    string    `json:"user_query"`
	History      []Message `json:"chat_history,omitempty"`
	StrategyName string    `json:"strategy_name,omitempty"`
}

// Result is the outcome of one query. Exactly one of Answer/Error carries
// the user-facing content.
type Result struct {
	Answer string     `json:"answer,omitempty"`
	Error  *ErrorInfo `json:"error,omitempty"`
	Debug  Debug      `json:"debug"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Debug exposes the workflow's internals for troubleshooting; it is not
// part of the conversational answer.
type Debug struct {
	RequestID string   `json:"request_id"`
	Intent    string   `json:"intent"`
	Params    Params   `json:"params"`
	Retrieved []string `json:"retrieved,omitempty"`
	Error     string   `json:"error,omitempty"`
	Duration  float64  `json:"duration_seconds"`
}

const defaultStrategy = "default"

// Service orchestrates a query end to end: strategy lookup, client
// construction, workflow run, result shaping.
type Service struct {
	strategies StrategyLookup
	factory    ClientFactory
	workflow   *Workflow
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(strategies StrategyLookup, factory ClientFactory, workflow *Workflow, obs *observability.Observability, log logger.Logger) *Service {
	return &Service{
		strategies: strategies,
		factory:    factory,
		workflow:   workflow,
		obs:        obs,
		logger:     log.With(map[string]interface{}{"component": "agent"}),
	}
}

// HandleQuery runs one query through the workflow. It never returns a Go
// error: every failure becomes a structured ErrorInfo in the result.
func (s *Service) HandleQuery(ctx context.Context, req Request) Result {
	requestID := uuid.New().String()
	start := time.Now()

	log := s.logger.With(map[string]interface{}{"requestId": requestID})
	log.Info("query received", map[string]interface{}{
		"query":    req.UserQuery,
		"strategy": req.StrategyName,
	})

	if strings.TrimSpace(req.UserQuery) == "" {
		return s.failure(requestID, start, State{},
			errors.NewValidationError("user_query must not be empty"))
	}

	strategyName := req.StrategyName
	if strategyName == "" {
		strategyName = defaultStrategy
	}

	strat, err := s.strategies.Lookup(ctx, strategyName)
	if err != nil {
		return s.failure(requestID, start, State{}, err)
	}

	client, err := s.factory.New(strat.Provider, strat.Model)
	if err != nil {
		return s.failure(requestID, start, State{}, err)
	}

	final := s.workflow.Run(ctx, State{
		RequestID: requestID,
		UserQuery: req.UserQuery,
		History:   req.History,
		Strategy:  strat,
		LLM:       client,
	})

	if final.Err != nil {
		return s.failure(requestID, start, final, final.Err)
	}

	duration := time.Since(start)
	if s.obs != nil {
		s.obs.RecordQueryProcessed(ctx, string(final.Intent), "success")
		s.obs.RecordQueryDuration(ctx, duration, "success")
	}
	log.Info("query answered", map[string]interface{}{
		"intent":   string(final.Intent),
		"duration": duration.String(),
	})

	return Result{
		Answer: final.Answer,
		Debug:  debugFrom(requestID, final, duration),
	}
}

func (s *Service) failure(requestID string, start time.Time, state State, err error) Result {
	code := errors.CodeOf(err)
	metrics.QueryFailures.WithLabelValues(string(code)).Inc()

	duration := time.Since(start)
	if s.obs != nil {
		s.obs.RecordQueryProcessed(context.Background(), string(state.Intent), "error")
	}
	s.logger.Warn("query failed", map[string]interface{}{
		"requestId": requestID,
		"code":      string(code),
		"error":     err.Error(),
	})

	return Result{
		Error: &ErrorInfo{
			Code:    string(code),
			Message: "Sorry, I couldn't complete your request: " + errors.MessageFor(err),
		},
		Debug: debugFrom(requestID, state, duration),
	}
}

func debugFrom(requestID string, state State, duration time.Duration) Debug {
	d := Debug{
		RequestID: requestID,
		Intent:    string(state.Intent),
		Params:    state.Params,
		Retrieved: retrievedKeys(state.Retrieved),
		Duration:  duration.Seconds(),
	}
	if state.Err != nil {
		d.Error = state.Err.Error()
	}
	return d
}

func retrievedKeys(r Retrieved) []string {
	var keys []string
	if r.DataQuery != nil {
		keys = append(keys, "data_query")
	}
	if r.TotalPnL != nil {
		keys = append(keys, "total_pnl")
	}
	if r.Asset != nil {
		keys = append(keys, "asset_details")
	}
	if r.Comparison != nil {
		keys = append(keys, "price_comparison")
	}
	return keys
}
