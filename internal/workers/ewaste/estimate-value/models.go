// internal/workers/ewaste/estimate-value/models.go
package estimatevalue

import "ecycle-workers/internal/valuation"

type Input struct {
	SessionID      string                 `json:"sessionId,omitempty"`
	Items          []valuation.Descriptor `json:"items"`
	FromClassifier bool                   `json:"fromClassifier,omitempty"`
}

// Output is the valuation result tagged with an estimate ID.
type Output struct {
	EstimateID string `json:"estimateId"`
	valuation.Result
	Prefilled bool                      `json:"prefilled,omitempty"`
	Listing   *valuation.ListingPrefill `json:"listing,omitempty"`
}
