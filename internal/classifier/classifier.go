// internal/classifier/classifier.go
package classifier

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// MaxPredictions is how many leading predictions take part in scoring.
	MaxPredictions = 6
	// TieMargin is the relative gap under which hazardous wins a near-tie with recyclable.
	TieMargin = 0.10
)

var (
	hazardousHints = []string{"battery", "pcb", "capacitor", "mercury"}
	reusableHints  = []string{"phone", "laptop", "tablet", "monitor"}
)

// Prediction is one label reported by the external vision classifier.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Source records which rule produced a decision.
type Source string

const (
	SourceBackend   Source = "backend"
	SourceDefault   Source = "default"
	SourceHeuristic Source = "heuristic"
	SourceScored    Source = "scored"
	SourceTieBreak  Source = "tie_break"
)

// Result is a decision together with the metadata needed to render it.
type Result struct {
	Category   Category             `json:"category"`
	Definition Definition           `json:"definition"`
	Scores     map[Category]float64 `json:"scores"`
	Source     Source               `json:"source"`
}

// Classifier scores predictions against a fixed set of category definitions.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	defs     map[Category]Definition
	keywords map[Category][]string
}

var defaultClassifier = mustNew(DefaultDefinitions())

// Default returns the classifier built from DefaultDefinitions.
func Default() *Classifier {
	return defaultClassifier
}

// New builds a classifier over defs. The definitions are copied.
func New(defs []Definition) (*Classifier, error) {
	if err := validateDefinitions(defs); err != nil {
		return nil, err
	}

	c := &Classifier{
		defs:     make(map[Category]Definition, len(defs)),
		keywords: make(map[Category][]string, len(defs)),
	}
	for _, d := range defs {
		c.defs[d.Key] = copyDefinition(d)
		kws := make([]string, 0, len(d.Keywords))
		for _, kw := range d.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		c.keywords[d.Key] = kws
	}
	return c, nil
}

func mustNew(defs []Definition) *Classifier {
	c, err := New(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// DecideCategory picks a category using the default tables.
func DecideCategory(predictions []Prediction, backendCategory string) Category {
	return defaultClassifier.Decide(predictions, backendCategory)
}

// Decide returns only the category of Classify.
func (c *Classifier) Decide(predictions []Prediction, backendCategory string) Category {
	return c.Classify(predictions, backendCategory).Category
}

// Classify decides the category for predictions, which must already be ordered by the
// caller. A valid backendCategory is trusted as-is.
func (c *Classifier) Classify(predictions []Prediction, backendCategory string) Result {
	if cat, ok := ParseCategory(backendCategory); ok {
		return c.result(cat, nil, SourceBackend)
	}

	top := predictions
	if len(top) > MaxPredictions {
		top = top[:MaxPredictions]
	}
	if len(top) == 0 {
		return c.result(Recyclable, nil, SourceDefault)
	}

	scores := c.score(top)
	if allZero(scores) {
		return c.result(heuristic(normalizeLabel(top[0].Label)), scores, SourceHeuristic)
	}

	ranked := rank(scores)
	first, second := ranked[0], ranked[1]
	if scores[first] > 0 && scores[second] > 0 {
		gap := (scores[first] - scores[second]) / math.Max(1, scores[first])
		if gap < TieMargin && isHazardousRecyclablePair(first, second) && first != Hazardous {
			return c.result(Hazardous, scores, SourceTieBreak)
		}
	}

	return c.result(first, scores, SourceScored)
}

// Definition returns the metadata for cat, falling back to recyclable.
func (c *Classifier) Definition(cat Category) Definition {
	d, ok := c.defs[cat]
	if !ok {
		d = c.defs[Recyclable]
	}
	return copyDefinition(d)
}

func (c *Classifier) score(predictions []Prediction) map[Category]float64 {
	scores := make(map[Category]float64, len(Categories))
	for _, cat := range Categories {
		scores[cat] = 0
	}

	for _, p := range predictions {
		label := normalizeLabel(p.Label)
		if label == "" {
			continue
		}
		conf := p.Confidence
		if math.IsNaN(conf) {
			conf = 0
		}
		tokens := strings.Fields(label)

		for _, cat := range Categories {
			weight := c.defs[cat].Weight
			for _, kw := range c.keywords[cat] {
				if keywordMatches(label, tokens, kw) {
					scores[cat] += conf * weight
				}
			}
		}
	}
	return scores
}

func (c *Classifier) result(cat Category, scores map[Category]float64, src Source) Result {
	if scores == nil {
		scores = map[Category]float64{Hazardous: 0, Reusable: 0, Recyclable: 0}
	}
	return Result{
		Category:   cat,
		Definition: c.Definition(cat),
		Scores:     scores,
		Source:     src,
	}
}

// keywordMatches treats keywords containing a space as phrases. Single-token keywords
// also match when a label token is a fragment of the keyword.
func keywordMatches(label string, tokens []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(label, kw)
	}
	for _, tok := range tokens {
		if strings.Contains(tok, kw) || strings.Contains(kw, tok) {
			return true
		}
	}
	return strings.Contains(label, kw)
}

func heuristic(label string) Category {
	if containsAny(label, hazardousHints) {
		return Hazardous
	}
	if containsAny(label, reusableHints) {
		return Reusable
	}
	return Recyclable
}

func rank(scores map[Category]float64) []Category {
	ranked := make([]Category, len(Categories))
	copy(ranked, Categories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	return ranked
}

func isHazardousRecyclablePair(a, b Category) bool {
	return (a == Hazardous && b == Recyclable) || (a == Recyclable && b == Hazardous)
}

func allZero(scores map[Category]float64) bool {
	for _, v := range scores {
		if v != 0 {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// normalizeLabel lowercases s and blanks every rune other than ASCII letters, digits,
// whitespace and hyphens.
func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// SortPredictions returns a copy of predictions ordered by descending confidence.
// Equal confidences keep their input order.
func SortPredictions(predictions []Prediction) []Prediction {
	sorted := make([]Prediction, len(predictions))
	copy(sorted, predictions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}

func copyDefinition(d Definition) Definition {
	out := d
	out.Keywords = append([]string(nil), d.Keywords...)
	out.Actions = append([]Action{}, d.Actions...)
	return out
}
