package agent

import (
	"context"
	"fmt"

	"realestate-agent/internal/common/errors"
)

// retrieveData runs the intent's dataset operation. This is the node whose
// failures route to end_with_error; everything upstream degrades softly.
func (w *Workflow) retrieveData(ctx context.Context, state State) State {
	if state.Err != nil {
		return state
	}

	switch state.Intent {
	case IntentGeneralQA:
		// Nothing to retrieve; the answer comes straight from the model.
		return state

	case IntentDataQuery:
		filters := mergePeriod(state.Params)
		state.Retrieved.DataQuery = w.data.QueryFlexible(filters, state.Params.Action, w.rowLimit)
		return state

	case IntentTotalPnL:
		state.Retrieved.TotalPnL = &PnLResult{
			Year:  state.Params.Year,
			Month: state.Params.Month,
			Value: w.data.TotalPnL(state.Params.Year, state.Params.Month),
		}
		return state

	case IntentAssetDetails:
		if len(state.Params.Addresses) == 0 {
			state.Err = errors.NewValidationError("I couldn't identify the property name.")
			return state
		}
		summary, err := w.data.GetSingleAsset(state.Params.Addresses[0])
		if err != nil {
			state.Err = err
			return state
		}
		state.Retrieved.Asset = summary
		return state

	case IntentPriceComparison:
		values, err := w.data.CompareAssetsByPrice(state.Params.Addresses)
		if err != nil {
			state.Err = err
			return state
		}
		state.Retrieved.Comparison = values
		return state

	default:
		state.Err = errors.NewValidationError(fmt.Sprintf("unsupported intent %q", state.Intent))
		return state
	}
}

// mergePeriod folds the extracted year/month into the filter map without
// clobbering filters the extractor set explicitly. Year and month together
// become a single exact period key, month alone matches across years.
func mergePeriod(params Params) map[string]interface{} {
	filters := make(map[string]interface{}, len(params.Filters)+2)
	for k, v := range params.Filters {
		filters[k] = v
	}
	if params.Year != nil {
		if _, ok := filters["year"]; !ok {
			filters["year"] = *params.Year
		}
	}
	if params.Month != nil {
		if _, ok := filters["month"]; !ok {
			if params.Year != nil {
				filters["month"] = fmt.Sprintf("%d-M%02d", *params.Year, *params.Month)
			} else {
				filters["month"] = *params.Month
			}
		}
	}
	return filters
}
