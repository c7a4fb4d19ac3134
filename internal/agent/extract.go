package agent

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"realestate-agent/internal/dataset"
	"realestate-agent/internal/strategy"
)

// paramsSchema constrains what the extractor model may return. Anything that
// fails validation is discarded in favour of the regex fallback.
const paramsSchema = `{
  "type": "object",
  "properties": {
    "addresses": {"type": "array", "items": {"type": "string"}},
    "year": {"type": ["integer", "null"], "minimum": 1900, "maximum": 2100},
    "month": {"type": ["integer", "null"], "minimum": 1, "maximum": 12},
    "filters": {"type": "object"},
    "action": {"type": ["string", "null"]}
  },
  "additionalProperties": true
}`

var paramsSchemaLoader = gojsonschema.NewStringLoader(paramsSchema)

type extractPayload struct {
	Addresses []string               `json:"addresses"`
	Year      *int                   `json:"year"`
	Month     *int                   `json:"month"`
	Filters   map[string]interface{} `json:"filters"`
	Action    string                 `json:"action"`
}

var (
	buildingPattern = regexp.MustCompile(`(?i)building\s+(\d+)`)
	tenantPattern   = regexp.MustCompile(`(?i)tenant\s+(\d+)`)
	yearMonthPattern = regexp.MustCompile(`\b(20\d{2})-M(\d{2})\b`)
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
)

// extractParams pulls structured query parameters from the user text.
// Extraction is best-effort: an LLM failure, malformed JSON or a schema
// violation all degrade to the regex fallback, never to a workflow error.
// general_qa needs no parameters and skips the model call entirely.
func (w *Workflow) extractParams(ctx context.Context, state State) State {
	if state.Err != nil {
		return state
	}
	if state.Intent == IntentGeneralQA {
		state.Params = Params{Action: dataset.ActionShow}
		return state
	}

	prompt, err := state.Strategy.Prompt(strategy.RoleExtract)
	if err != nil {
		state.Err = err
		return state
	}

	raw, err := state.LLM.Generate(ctx, prompt, state.UserQuery)
	if err != nil {
		w.logger.Warn("parameter extraction call failed, using regex fallback", map[string]interface{}{
			"requestId": state.RequestID,
			"error":     err.Error(),
		})
		state.Params = regexFallback(state.UserQuery)
		return state
	}

	payload, ok := decodePayload(raw)
	if !ok {
		w.logger.Warn("extractor returned unusable JSON, using regex fallback", map[string]interface{}{
			"requestId": state.RequestID,
		})
		state.Params = regexFallback(state.UserQuery)
		return state
	}

	state.Params = reconcile(payload, state.UserQuery)
	w.logger.Debug("parameters extracted", map[string]interface{}{
		"requestId": state.RequestID,
		"addresses": state.Params.Addresses,
		"action":    string(state.Params.Action),
	})
	return state
}

// decodePayload strips markdown fences, validates against paramsSchema and
// unmarshals. Returns ok=false on any failure.
func decodePayload(raw string) (extractPayload, bool) {
	var payload extractPayload

	text := stripFences(raw)
	if text == "" {
		return payload, false
	}

	result, err := gojsonschema.Validate(paramsSchemaLoader, gojsonschema.NewStringLoader(text))
	if err != nil || !result.Valid() {
		return payload, false
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return payload, false
	}
	return payload, true
}

// stripFences removes a ```json ... ``` wrapper if present.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}

// reconcile fills gaps the extractor left using the fallback patterns, so a
// partially correct extraction still produces usable parameters.
func reconcile(payload extractPayload, query string) Params {
	params := Params{
		Addresses: payload.Addresses,
		Year:      payload.Year,
		Month:     payload.Month,
		Filters:   payload.Filters,
		Action:    dataset.ParseAction(payload.Action),
	}
	if params.Filters == nil {
		params.Filters = make(map[string]interface{})
	}

	fallback := regexFallback(query)
	if len(params.Addresses) == 0 {
		if prop, ok := params.Filters["property_name"].(string); ok && prop != "" {
			params.Addresses = []string{prop}
		} else {
			params.Addresses = fallback.Addresses
		}
	}
	if params.Year == nil {
		params.Year = fallback.Year
	}
	if params.Month == nil {
		params.Month = fallback.Month
	}
	return params
}

// regexFallback recovers parameters directly from the query text when the
// model's extraction is unavailable or unusable.
func regexFallback(query string) Params {
	params := Params{
		Filters: make(map[string]interface{}),
		Action:  fallbackAction(query),
	}

	for _, m := range buildingPattern.FindAllStringSubmatch(query, -1) {
		params.Addresses = append(params.Addresses, "Building "+m[1])
	}
	if len(params.Addresses) > 0 {
		params.Filters["property_name"] = params.Addresses[0]
	}

	if m := tenantPattern.FindStringSubmatch(query); m != nil {
		params.Filters["tenant_name"] = "Tenant " + m[1]
	}

	if m := yearMonthPattern.FindStringSubmatch(query); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			params.Year = &year
			params.Month = &month
		}
	} else if m := yearPattern.FindStringSubmatch(query); m != nil {
		year, _ := strconv.Atoi(m[1])
		params.Year = &year
	}

	return params
}

func fallbackAction(query string) dataset.Action {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "compare") || strings.Contains(q, "versus") || strings.Contains(q, " vs "):
		return dataset.ActionCompare
	case strings.Contains(q, "how many") || strings.Contains(q, "count"):
		return dataset.ActionCount
	case strings.Contains(q, "total") || strings.Contains(q, "sum") || strings.Contains(q, "aggregate") || strings.Contains(q, "breakdown"):
		return dataset.ActionAggregate
	default:
		return dataset.ActionShow
	}
}
