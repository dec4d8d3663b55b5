// internal/valuation/estimator.go
package valuation

import (
	"math"
)

const (
	SuggestionResell  = "resell"
	SuggestionRecycle = "recycle"

	resellMessage  = "Good candidate for resale. Consider selling on the marketplace or through a trade-in program."
	recycleMessage = "Better to recycle or scrap. Take it to a certified e-waste collection center."

	// MaxQuantity bounds the per-item quantity so totals stay within int64.
	MaxQuantity = 1_000_000
)

// Descriptor is one device to value. Fields are loosely typed so that partial
// form input can be passed through and coerced by Estimate.
type Descriptor struct {
	Category  string   `json:"category"`
	Condition string   `json:"condition"`
	AgeYears  *float64 `json:"age_years,omitempty"`
	Brand     *string  `json:"brand,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
}

type Suggestion struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ItemEstimate echoes the normalized descriptor alongside the computed values.
// Money fields are rounded to whole currency units.
type ItemEstimate struct {
	Category  DeviceCategory `json:"category"`
	Condition Condition      `json:"condition"`
	AgeYears  float64        `json:"age_years"`
	Brand     string         `json:"brand,omitempty"`
	BrandKey  string         `json:"brand_key"`
	Quantity  int            `json:"quantity"`

	BasePrice          int64      `json:"base_price"`
	ResaleValuePerUnit int64      `json:"resale_value_per_unit"`
	ResaleMinPerUnit   int64      `json:"resale_min_per_unit"`
	ResaleMaxPerUnit   int64      `json:"resale_max_per_unit"`
	ScrapValuePerUnit  int64      `json:"scrap_value_per_unit"`
	EstimatedMinTotal  int64      `json:"estimated_min_total"`
	EstimatedMaxTotal  int64      `json:"estimated_max_total"`
	Suggestion         Suggestion `json:"suggestion"`
	UseResale          bool       `json:"useResale"`
}

type Result struct {
	TotalMinValue int64          `json:"total_min_value"`
	TotalMaxValue int64          `json:"total_max_value"`
	Items         []ItemEstimate `json:"items"`
}

// Estimator prices descriptors against an immutable PriceModel and is safe
// for concurrent use.
type Estimator struct {
	model PriceModel
}

var defaultEstimator = &Estimator{model: DefaultPriceModel()}

func Default() *Estimator {
	return defaultEstimator
}

func NewEstimator(model PriceModel) (*Estimator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{model: model.clone()}, nil
}

// Estimate values items with the default price model.
func Estimate(items []Descriptor) Result {
	return defaultEstimator.Estimate(items)
}

// Estimate never fails. Invalid or missing inputs are coerced: age is clamped to
// zero, quantity is truncated and clamped to [1, MaxQuantity], unknown categories become
// Other and unknown conditions become Working.
func (e *Estimator) Estimate(items []Descriptor) Result {
	out := Result{Items: make([]ItemEstimate, 0, len(items))}
	for _, d := range items {
		item := e.estimateItem(d)
		out.TotalMinValue = addMoney(out.TotalMinValue, item.EstimatedMinTotal)
		out.TotalMaxValue = addMoney(out.TotalMaxValue, item.EstimatedMaxTotal)
		out.Items = append(out.Items, item)
	}
	return out
}

func (e *Estimator) estimateItem(d Descriptor) ItemEstimate {
	m := e.model

	category := ParseDeviceCategory(d.Category)
	condition := ParseCondition(d.Condition)
	age := normalizeAge(d.AgeYears)
	qty := normalizeQuantity(d.Quantity)

	var brand string
	if d.Brand != nil {
		brand = *d.Brand
	}
	brandKey := ResolveBrand(brand)

	base := m.BasePrice[category]
	afterAge := base * math.Pow(m.YearlyDepreciation[category], age)
	nominal := afterAge * m.ConditionMultiplier[condition] * m.brandPremium(brandKey)
	resaleMin := math.Max(0, nominal*(1-m.ResaleBand))
	resaleMax := nominal * (1 + m.ResaleBand)
	scrap := math.Max(0, base*m.ScrapFraction[category])

	useResale := condition != Dead && nominal > scrap*m.ResaleMargin

	perUnitMin, perUnitMax := scrap, scrap
	suggestion := Suggestion{Type: SuggestionRecycle, Message: recycleMessage}
	if useResale {
		perUnitMin, perUnitMax = resaleMin, resaleMax
		suggestion = Suggestion{Type: SuggestionResell, Message: resellMessage}
	}

	return ItemEstimate{
		Category:           category,
		Condition:          condition,
		AgeYears:           age,
		Brand:              brand,
		BrandKey:           brandKey,
		Quantity:           qty,
		BasePrice:          roundMoney(base),
		ResaleValuePerUnit: roundMoney(nominal),
		ResaleMinPerUnit:   roundMoney(resaleMin),
		ResaleMaxPerUnit:   roundMoney(resaleMax),
		ScrapValuePerUnit:  roundMoney(scrap),
		EstimatedMinTotal:  roundMoney(float64(qty) * perUnitMin),
		EstimatedMaxTotal:  roundMoney(float64(qty) * perUnitMax),
		Suggestion:         suggestion,
		UseResale:          useResale,
	}
}

func normalizeAge(age *float64) float64 {
	if age == nil || math.IsNaN(*age) || math.IsInf(*age, 0) || *age < 0 {
		return 0
	}
	return *age
}

func normalizeQuantity(qty *float64) int {
	if qty == nil || math.IsNaN(*qty) || math.IsInf(*qty, 0) || *qty < 1 {
		return 1
	}
	if *qty >= MaxQuantity {
		return MaxQuantity
	}
	return int(math.Floor(*qty))
}

// roundMoney rounds half away from zero on non-negative values and saturates
// at the int64 range.
func roundMoney(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Floor(v + 0.5)
	switch {
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	}
	return int64(r)
}

// addMoney adds two amounts, saturating instead of wrapping.
func addMoney(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

func (m PriceModel) clone() PriceModel {
	out := m
	out.BasePrice = cloneMap(m.BasePrice)
	out.YearlyDepreciation = cloneMap(m.YearlyDepreciation)
	out.ScrapFraction = cloneMap(m.ScrapFraction)
	out.ConditionMultiplier = cloneMap(m.ConditionMultiplier)
	out.BrandPremium = cloneMap(m.BrandPremium)
	return out
}

func cloneMap[K comparable](in map[K]float64) map[K]float64 {
	out := make(map[K]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
