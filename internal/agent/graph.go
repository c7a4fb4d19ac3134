package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"realestate-agent/internal/common/logger"
	"realestate-agent/internal/common/metrics"
	"realestate-agent/internal/common/observability"
	"realestate-agent/internal/dataset"
)

// NodeID identifies one node of the fixed workflow graph.
type NodeID string

const (
	NodeDetectIntent  NodeID = "detect_intent"
	NodeExtractParams NodeID = "extract_params"
	NodeRetrieveData  NodeID = "retrieve_data"
	NodeComputeAnswer NodeID = "compute_answer"
	NodeEndWithError  NodeID = "end_with_error"
	NodeTerminal      NodeID = "terminal"
)

// Workflow is the five-node state machine:
//
//	detect_intent -> extract_params -> retrieve_data
//	    -> compute_answer | end_with_error -> terminal
//
// One instance serves all queries; per-query data lives in State. Execution
// is synchronous and single-threaded per query.
type Workflow struct {
	data     *dataset.Store
	rowLimit int
	logger   logger.Logger
	tracing  *observability.Tracing
}

func NewWorkflow(data *dataset.Store, rowLimit int, log logger.Logger, tracing *observability.Tracing) *Workflow {
	if rowLimit <= 0 {
		rowLimit = 200
	}
	return &Workflow{
		data:     data,
		rowLimit: rowLimit,
		logger:   log.With(map[string]interface{}{"component": "workflow"}),
		tracing:  tracing,
	}
}

// Run executes the graph to the terminal state and returns the final state.
func (w *Workflow) Run(ctx context.Context, state State) State {
	node := NodeDetectIntent
	for node != NodeTerminal {
		state, node = w.step(ctx, node, state)
	}
	return state
}

func (w *Workflow) step(ctx context.Context, node NodeID, state State) (State, NodeID) {
	start := time.Now()
	spanCtx, span := w.tracing.StartSpan(ctx, "workflow."+string(node),
		attribute.String("request_id", state.RequestID))
	defer func() {
		span.End()
		metrics.StepDuration.WithLabelValues(string(node)).Observe(time.Since(start).Seconds())
	}()

	switch node {
	case NodeDetectIntent:
		return w.detectIntent(spanCtx, state), NodeExtractParams
	case NodeExtractParams:
		return w.extractParams(spanCtx, state), NodeRetrieveData
	case NodeRetrieveData:
		state = w.retrieveData(spanCtx, state)
		return state, routeAfterRetrieval(state)
	case NodeComputeAnswer:
		return w.computeAnswer(spanCtx, state), NodeTerminal
	case NodeEndWithError:
		return w.endWithError(state), NodeTerminal
	default:
		return state, NodeTerminal
	}
}

// routeAfterRetrieval is the single conditional edge of the graph.
func routeAfterRetrieval(state State) NodeID {
	if state.Err != nil {
		return NodeEndWithError
	}
	return NodeComputeAnswer
}

// endWithError is terminal: the error stays in state and the caller renders
// it. Answer remains unset so that at most one of answer/error is populated.
func (w *Workflow) endWithError(state State) State {
	w.logger.Warn("workflow ended with error", map[string]interface{}{
		"requestId": state.RequestID,
		"intent":    string(state.Intent),
		"error":     state.Err.Error(),
	})
	return state
}
