// internal/valuation/price_model.go
package valuation

import (
	"fmt"
	"strings"
)

type DeviceCategory string

const (
	Phone   DeviceCategory = "phone"
	Laptop  DeviceCategory = "laptop"
	Tablet  DeviceCategory = "tablet"
	TV      DeviceCategory = "tv"
	Desktop DeviceCategory = "desktop"
	Other   DeviceCategory = "other"
)

var DeviceCategories = []DeviceCategory{Phone, Laptop, Tablet, TV, Desktop, Other}

type Condition string

const (
	Working     Condition = "working"
	MinorIssues Condition = "minor_issues"
	MajorIssues Condition = "major_issues"
	Dead        Condition = "dead"
)

var Conditions = []Condition{Working, MinorIssues, MajorIssues, Dead}

// ParseDeviceCategory maps s onto a known category, falling back to Other.
func ParseDeviceCategory(s string) DeviceCategory {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range DeviceCategories {
		if string(c) == s {
			return c
		}
	}
	return Other
}

// ParseCondition maps s onto a known condition, falling back to Working.
func ParseCondition(s string) Condition {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Conditions {
		if string(c) == s {
			return c
		}
	}
	return Working
}

const DefaultBrand = "default"

// PriceModel holds the lookup tables the estimator prices against.
type PriceModel struct {
	BasePrice           map[DeviceCategory]float64
	YearlyDepreciation  map[DeviceCategory]float64
	ScrapFraction       map[DeviceCategory]float64
	ConditionMultiplier map[Condition]float64
	BrandPremium        map[string]float64

	// ResaleBand is the relative half-width of the resale range around the nominal value.
	ResaleBand float64
	// ResaleMargin is how far resale must exceed scrap before resale is recommended.
	ResaleMargin float64
}

func DefaultPriceModel() PriceModel {
	return PriceModel{
		BasePrice: map[DeviceCategory]float64{
			Phone:   15000,
			Laptop:  45000,
			Tablet:  20000,
			TV:      30000,
			Desktop: 25000,
			Other:   5000,
		},
		YearlyDepreciation: map[DeviceCategory]float64{
			Phone:   0.72,
			Laptop:  0.80,
			Tablet:  0.76,
			TV:      0.78,
			Desktop: 0.80,
			Other:   0.85,
		},
		ScrapFraction: map[DeviceCategory]float64{
			Phone:   0.06,
			Laptop:  0.12,
			Tablet:  0.05,
			TV:      0.08,
			Desktop: 0.09,
			Other:   0.04,
		},
		ConditionMultiplier: map[Condition]float64{
			Working:     1.0,
			MinorIssues: 0.7,
			MajorIssues: 0.35,
			Dead:        0,
		},
		BrandPremium: map[string]float64{
			"apple":      1.12,
			"apple_mac":  1.18,
			"samsung":    1.03,
			"xiaomi":     0.9,
			"oneplus":    1.0,
			"dell":       0.98,
			"hp":         0.9,
			"lenovo":     0.95,
			"asus":       0.95,
			"acer":       0.85,
			DefaultBrand: 1.0,
		},
		ResaleBand:   0.12,
		ResaleMargin: 1.2,
	}
}

func (m PriceModel) Validate() error {
	for _, c := range DeviceCategories {
		if v, ok := m.BasePrice[c]; !ok || v < 0 {
			return fmt.Errorf("base price for %q missing or negative", c)
		}
		if v, ok := m.YearlyDepreciation[c]; !ok || v <= 0 || v > 1 {
			return fmt.Errorf("depreciation rate for %q must be in (0, 1]", c)
		}
		if v, ok := m.ScrapFraction[c]; !ok || v < 0 {
			return fmt.Errorf("scrap fraction for %q missing or negative", c)
		}
	}
	for _, c := range Conditions {
		if v, ok := m.ConditionMultiplier[c]; !ok || v < 0 || v > 1 {
			return fmt.Errorf("condition multiplier for %q must be in [0, 1]", c)
		}
	}
	if m.ConditionMultiplier[Dead] != 0 {
		return fmt.Errorf("condition multiplier for %q must be 0", Dead)
	}
	if _, ok := m.BrandPremium[DefaultBrand]; !ok {
		return fmt.Errorf("brand premium table has no %q entry", DefaultBrand)
	}
	if m.ResaleBand < 0 || m.ResaleBand >= 1 {
		return fmt.Errorf("resale band must be in [0, 1)")
	}
	if m.ResaleMargin < 0 {
		return fmt.Errorf("resale margin must not be negative")
	}
	return nil
}

func (m PriceModel) brandPremium(key string) float64 {
	if v, ok := m.BrandPremium[key]; ok {
		return v
	}
	return m.BrandPremium[DefaultBrand]
}
