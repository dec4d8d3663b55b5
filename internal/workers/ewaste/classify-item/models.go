// internal/workers/ewaste/classify-item/models.go
package classifyitem

import (
	"ecycle-workers/internal/classifier"
	"ecycle-workers/internal/valuation"
)

// Input carries either predictions already produced by the vision service or an
// image reference to classify. A nil Predictions slice means "not provided".
type Input struct {
	SessionID   string                  `json:"sessionId,omitempty"`
	Predictions []classifier.Prediction `json:"predictions"`
	Category    *string                 `json:"category,omitempty"`
	ImageURL    string                  `json:"imageUrl,omitempty"`
}

type Output struct {
	Category      classifier.Category             `json:"category"`
	Title         string                          `json:"title"`
	Suggestion    string                          `json:"suggestion"`
	Actions       []classifier.Action             `json:"actions"`
	Scores        map[classifier.Category]float64 `json:"scores"`
	Source        classifier.Source               `json:"source"`
	TopLabel      string                          `json:"topLabel,omitempty"`
	TopConfidence float64                         `json:"topConfidence"`
	Speed         string                          `json:"speed,omitempty"`
	Prefill       *valuation.Descriptor           `json:"prefill,omitempty"`
}
