package agent

import (
	"context"
	"strings"

	"realestate-agent/internal/common/metrics"
	"realestate-agent/internal/strategy"
)

// dataKeywords force data_query whenever they appear in a query the
// classifier labelled general_qa. The classifier is probabilistic; these are
// unambiguous signals that the user wants rows back.
var dataKeywords = []string{
	"show me", "list all", "show all", "list the", "how many records",
	"records for", "rows for", "entries for", "filter by",
}

var pnlKeywords = []string{
	"total profit", "total loss", "total pnl", "total p&l", "sum of", "aggregate",
}

var compareKeywords = []string{
	"compare", " vs ", "versus", "which is more profitable",
}

var assetKeywords = []string{
	"building", "property", "tenant", "rent", "asset",
}

// detectIntent classifies the user query into the closed intent set. An LLM
// failure is not fatal here: classification falls back to general_qa and a
// keyword failsafe then rescues the common data-question phrasings.
func (w *Workflow) detectIntent(ctx context.Context, state State) State {
	prompt, err := state.Strategy.Prompt(strategy.RoleIntent)
	if err != nil {
		state.Err = err
		return state
	}

	intent := IntentGeneralQA
	raw, err := state.LLM.Generate(ctx, prompt, classifierInput(state))
	if err != nil {
		w.logger.Warn("intent classification failed, defaulting to general_qa", map[string]interface{}{
			"requestId": state.RequestID,
			"error":     err.Error(),
		})
	} else {
		intent = ParseIntent(normalizeLabel(raw))
	}

	if intent == IntentGeneralQA {
		intent = keywordFailsafe(state.UserQuery, intent)
	}

	state.Intent = intent
	metrics.QueriesTotal.WithLabelValues(string(intent)).Inc()
	w.logger.Debug("intent detected", map[string]interface{}{
		"requestId": state.RequestID,
		"intent":    string(intent),
	})
	return state
}

// classifierInput folds recent history into the classification input so that
// follow-up questions ("and for 2024?") keep their intent.
func classifierInput(state State) string {
	if len(state.History) == 0 {
		return state.UserQuery
	}
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	history := state.History
	if len(history) > 6 {
		history = history[len(history)-6:]
	}
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nCurrent question: ")
	b.WriteString(state.UserQuery)
	return b.String()
}

// normalizeLabel strips the decoration models wrap labels in.
func normalizeLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, "`\"'.")
	if i := strings.IndexAny(label, " \n"); i > 0 {
		label = label[:i]
	}
	return label
}

// keywordFailsafe upgrades a general_qa label when the query plainly asks
// about the dataset. Checked from most to least specific.
func keywordFailsafe(query string, intent Intent) Intent {
	q := strings.ToLower(query)
	for _, kw := range pnlKeywords {
		if strings.Contains(q, kw) {
			return IntentTotalPnL
		}
	}
	for _, kw := range dataKeywords {
		if strings.Contains(q, kw) {
			return IntentDataQuery
		}
	}
	for _, kw := range compareKeywords {
		if strings.Contains(q, kw) {
			return IntentPriceComparison
		}
	}
	for _, kw := range assetKeywords {
		if strings.Contains(q, kw) {
			return IntentAssetDetails
		}
	}
	return intent
}
