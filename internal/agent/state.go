package agent

import (
	"realestate-agent/internal/dataset"
	"realestate-agent/internal/llm"
	"realestate-agent/internal/strategy"
)

// Intent is the classified purpose of a user query. Closed set; anything
// the classifier cannot place lands on IntentGeneralQA.
type Intent string

const (
	IntentGeneralQA       Intent = "general_qa"
	IntentDataQuery       Intent = "data_query"
	IntentTotalPnL        Intent = "total_pnl"
	IntentAssetDetails    Intent = "asset_details"
	IntentPriceComparison Intent = "price_comparison"
)

// ParseIntent maps a raw classifier label onto the closed intent set,
// defaulting to general_qa.
func ParseIntent(label string) Intent {
	switch Intent(label) {
	case IntentDataQuery, IntentTotalPnL, IntentAssetDetails, IntentPriceComparison, IntentGeneralQA:
		return Intent(label)
	default:
		return IntentGeneralQA
	}
}

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params is the filter/action descriptor produced by extraction. Absent
// fields mean "no filter".
type Params struct {
	Addresses []string               `json:"addresses"`
	Year      *int                   `json:"year"`
	Month     *int                   `json:"month"`
	Filters   map[string]interface{} `json:"filters"`
	Action    dataset.Action         `json:"action"`
}

// PnLResult is the scalar aggregate retrieved for total_pnl.
type PnLResult struct {
	Year  *int    `json:"year"`
	Month *int    `json:"month"`
	Value float64 `json:"value"`
}

// Retrieved holds whichever result the intent's retrieval produced.
type Retrieved struct {
	DataQuery  *dataset.QueryResult `json:"data_query,omitempty"`
	TotalPnL   *PnLResult           `json:"total_pnl,omitempty"`
	Asset      *dataset.AssetSummary `json:"asset_details,omitempty"`
	Comparison []dataset.AssetValue `json:"price_comparison,omitempty"`
}

// Empty reports whether no retrieval result is present.
func (r Retrieved) Empty() bool {
	return r.DataQuery == nil && r.TotalPnL == nil && r.Asset == nil && r.Comparison == nil
}

// State is the record threaded through the workflow. Each node consumes the
// prior state and returns an updated copy; there is no hidden mutation.
// Invariant: at most one of Answer/Err is set when the workflow terminates.
type State struct {
	RequestID string
	UserQuery string
	History   []Message
	Strategy  *strategy.Strategy
	LLM       llm.Client

	Intent    Intent
	Params    Params
	Retrieved Retrieved
	Answer    string
	Err       error
}
