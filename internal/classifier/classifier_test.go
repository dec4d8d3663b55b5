// internal/classifier/classifier_test.go
package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Decision Tests
// ==========================

func TestDecideCategory(t *testing.T) {
	tests := []struct {
		name        string
		predictions []Prediction
		backend     string
		expected    Category
		source      Source
	}{
		{
			name:        "lithium battery is hazardous",
			predictions: []Prediction{{Label: "Li-ion battery pack", Confidence: 0.9}},
			expected:    Hazardous,
			source:      SourceScored,
		},
		{
			name:        "no keyword match falls back to recyclable",
			predictions: []Prediction{{Label: "unknown object", Confidence: 0.5}},
			expected:    Recyclable,
			source:      SourceHeuristic,
		},
		{
			name:     "empty predictions default to recyclable",
			expected: Recyclable,
			source:   SourceDefault,
		},
		{
			name:     "backend category overrides empty predictions",
			backend:  "reusable",
			expected: Reusable,
			source:   SourceBackend,
		},
		{
			name:        "backend category overrides scored predictions",
			predictions: []Prediction{{Label: "battery", Confidence: 0.99}},
			backend:     "recyclable",
			expected:    Recyclable,
			source:      SourceBackend,
		},
		{
			name:        "unknown backend category is ignored",
			predictions: []Prediction{{Label: "battery", Confidence: 0.99}},
			backend:     "HAZARDOUS",
			expected:    Hazardous,
			source:      SourceScored,
		},
		{
			name:        "camera is reusable",
			predictions: []Prediction{{Label: "digital camera", Confidence: 0.7}},
			expected:    Reusable,
			source:      SourceScored,
		},
		{
			name:        "charging cable is recyclable",
			predictions: []Prediction{{Label: "USB cable", Confidence: 0.8}},
			expected:    Recyclable,
			source:      SourceScored,
		},
		{
			name:        "zero confidence battery uses heuristic",
			predictions: []Prediction{{Label: "battery", Confidence: 0}},
			expected:    Hazardous,
			source:      SourceHeuristic,
		},
		{
			name:        "zero confidence phone uses heuristic",
			predictions: []Prediction{{Label: "old phone", Confidence: 0}},
			expected:    Reusable,
			source:      SourceHeuristic,
		},
		{
			name:        "blank labels score nothing",
			predictions: []Prediction{{Label: "!!!", Confidence: 0.9}},
			expected:    Recyclable,
			source:      SourceHeuristic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Default().Classify(tt.predictions, tt.backend)

			assert.Equal(t, tt.expected, result.Category)
			assert.Equal(t, tt.source, result.Source)
			assert.Equal(t, tt.expected, result.Definition.Key)
			assert.Equal(t, tt.expected, DecideCategory(tt.predictions, tt.backend))
		})
	}
}

func TestDecideCategory_BackendAlwaysWins(t *testing.T) {
	inputs := [][]Prediction{
		nil,
		{{Label: "laptop", Confidence: 1}},
		{{Label: "copper cable", Confidence: 0.9}, {Label: "plastic frame", Confidence: 0.8}},
	}
	for _, preds := range inputs {
		assert.Equal(t, Hazardous, DecideCategory(preds, "hazardous"))
	}
}

func TestClassify_ScoresAccumulate(t *testing.T) {
	result := Default().Classify([]Prediction{{Label: "Li-ion battery pack", Confidence: 0.9}}, "")

	// "battery" and "li-ion" both match.
	assert.InDelta(t, 2*0.9*2.4, result.Scores[Hazardous], 1e-9)
	assert.Zero(t, result.Scores[Reusable])
	assert.Zero(t, result.Scores[Recyclable])
}

func TestClassify_TokenFragmentsMatch(t *testing.T) {
	// "ion" is a fragment of "li-ion", "television" and "workstation".
	result := Default().Classify([]Prediction{{Label: "ion", Confidence: 0.5}}, "")

	assert.InDelta(t, 0.5*2.4, result.Scores[Hazardous], 1e-9)
	assert.InDelta(t, 2*0.5*1.6, result.Scores[Reusable], 1e-9)
	assert.Zero(t, result.Scores[Recyclable])
	assert.Equal(t, Reusable, result.Category)
}

func TestClassify_PhraseKeywordsNeedWholePhrase(t *testing.T) {
	result := Default().Classify([]Prediction{{Label: "heat", Confidence: 0.9}}, "")
	assert.Zero(t, result.Scores[Recyclable])

	result = Default().Classify([]Prediction{{Label: "aluminium heat sink", Confidence: 0.9}}, "")
	assert.Greater(t, result.Scores[Recyclable], 0.0)
}

func TestClassify_OnlyTopSixPredictionsCount(t *testing.T) {
	preds := make([]Prediction, 0, 7)
	for i := 0; i < MaxPredictions; i++ {
		preds = append(preds, Prediction{Label: "unknown object", Confidence: 0.9})
	}
	preds = append(preds, Prediction{Label: "battery", Confidence: 0.9})

	result := Default().Classify(preds, "")

	assert.Equal(t, Recyclable, result.Category)
	assert.Equal(t, SourceHeuristic, result.Source)
	assert.Zero(t, result.Scores[Hazardous])
}

func TestClassify_DoesNotResort(t *testing.T) {
	// The heuristic only reads the first prediction, in caller order.
	preds := []Prediction{
		{Label: "old phone", Confidence: 0},
		{Label: "battery", Confidence: 0},
	}
	assert.Equal(t, Reusable, DecideCategory(preds, ""))
}

// ==========================
// Tie-Break Tests
// ==========================

func TestClassify_TieBreak(t *testing.T) {
	tests := []struct {
		name        string
		predictions []Prediction
		expected    Category
		source      Source
	}{
		{
			name: "recyclable narrowly ahead of hazardous flips to hazardous",
			predictions: []Prediction{
				{Label: "metal", Confidence: 0.62},
				{Label: "capacitor", Confidence: 0.25},
			},
			expected: Hazardous,
			source:   SourceTieBreak,
		},
		{
			name: "recyclable clearly ahead stays recyclable",
			predictions: []Prediction{
				{Label: "metal", Confidence: 0.9},
				{Label: "capacitor", Confidence: 0.2},
			},
			expected: Recyclable,
			source:   SourceScored,
		},
		{
			name: "hazardous narrowly ahead stays hazardous",
			predictions: []Prediction{
				{Label: "capacitor", Confidence: 0.26},
				{Label: "metal", Confidence: 0.62},
			},
			expected: Hazardous,
			source:   SourceScored,
		},
		{
			// Near-ties between reusable and hazardous are not overridden.
			name: "reusable narrowly ahead of hazardous stays reusable",
			predictions: []Prediction{
				{Label: "camera", Confidence: 0.5},
				{Label: "capacitor", Confidence: 0.33},
			},
			expected: Reusable,
			source:   SourceScored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Default().Classify(tt.predictions, "")

			assert.Equal(t, tt.expected, result.Category)
			assert.Equal(t, tt.source, result.Source)
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	preds := []Prediction{
		{Label: "laptop charger", Confidence: 0.7},
		{Label: "power supply unit", Confidence: 0.2},
	}

	first := Default().Classify(preds, "")
	second := Default().Classify(preds, "")

	assert.Equal(t, first, second)
}

// ==========================
// Table & Helper Tests
// ==========================

func TestNew_RejectsInvalidTables(t *testing.T) {
	defs := DefaultDefinitions()

	_, err := New(defs[:2])
	assert.Error(t, err)

	dup := DefaultDefinitions()
	dup[1].Key = Hazardous
	_, err = New(dup)
	assert.Error(t, err)

	zero := DefaultDefinitions()
	zero[2].Weight = 0
	_, err = New(zero)
	assert.Error(t, err)
}

func TestNew_CustomWeights(t *testing.T) {
	defs := DefaultDefinitions()
	for i := range defs {
		if defs[i].Key == Recyclable {
			defs[i].Weight = 10
		}
	}
	c, err := New(defs)
	require.NoError(t, err)

	preds := []Prediction{
		{Label: "capacitor", Confidence: 0.9},
		{Label: "metal", Confidence: 0.5},
	}
	assert.Equal(t, Recyclable, c.Decide(preds, ""))
	assert.Equal(t, Hazardous, Default().Decide(preds, ""))
}

func TestDefinition(t *testing.T) {
	c := Default()

	haz := c.Definition(Hazardous)
	assert.Equal(t, "Hazardous", haz.Title)
	assert.Len(t, haz.Actions, 2)
	assert.Equal(t, "/facility-locator", haz.Actions[0].Target)

	assert.Equal(t, Recyclable, c.Definition("bogus").Key)

	// Returned definitions are copies.
	haz.Keywords[0] = "mutated"
	assert.Equal(t, "battery", c.Definition(Hazardous).Keywords[0])
}

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"Li-ion Battery":      "li-ion battery",
		"  Li_Ion Battery!! ": "li ion battery",
		"CRT (monitor)":       "crt  monitor",
		"":                    "",
		"écran":               "cran",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeLabel(in), "input %q", in)
	}
}

func TestSortPredictions(t *testing.T) {
	in := []Prediction{
		{Label: "a", Confidence: 0.2},
		{Label: "b", Confidence: 0.9},
		{Label: "c", Confidence: 0.2},
		{Label: "d", Confidence: 0.5},
	}

	out := SortPredictions(in)

	assert.Equal(t, []string{"b", "d", "a", "c"}, labels(out))
	assert.Equal(t, "a", in[0].Label, "input must not be reordered")
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("reusable")
	assert.True(t, ok)
	assert.Equal(t, Reusable, c)

	_, ok = ParseCategory("Reusable")
	assert.False(t, ok)
}

func labels(preds []Prediction) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Label
	}
	return out
}
