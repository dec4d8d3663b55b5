// internal/classifier/category.go
package classifier

import "fmt"

// Category is the disposal-guidance bucket for an e-waste item.
type Category string

const (
	Hazardous  Category = "hazardous"
	Reusable   Category = "reusable"
	Recyclable Category = "recyclable"
)

// Categories lists the valid categories in ranking order. Ties keep this order.
var Categories = []Category{Hazardous, Reusable, Recyclable}

// ParseCategory reports whether s is one of the three category keys.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Action is a suggested next step rendered under a classification result.
type Action struct {
	Label  string `json:"label"`
	Target string `json:"target"`
	Style  string `json:"style"`
}

// Definition holds the matching table and display metadata for one category.
type Definition struct {
	Key        Category `json:"key"`
	Title      string   `json:"title"`
	Keywords   []string `json:"keywords"`
	Weight     float64  `json:"weight"`
	Suggestion string   `json:"suggestion"`
	Actions    []Action `json:"actions"`
}

// DefaultDefinitions returns a fresh copy of the built-in category tables.
// Hazardous carries the largest weight so that batteries and boards are flagged first.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Key:   Hazardous,
			Title: "Hazardous",
			Keywords: []string{
				"battery", "li-ion", "li ion", "lithium", "lead acid", "capacitor",
				"pcb", "printed circuit", "transformer", "mercury", "cfl", "fluorescent",
				"acid", "chemical", "brominated", "hazardous", "explosive", "tox",
				"toxicity", "pcbboard", "power supply", "solder",
			},
			Weight: 2.4,
			Suggestion: "This item may contain hazardous materials (batteries, mercury, capacitors, PCBs). " +
				"Do NOT throw it in regular trash. Use a certified e-waste facility for safe disposal.",
			Actions: []Action{
				{Label: "Find Safe Facility", Target: "/facility-locator", Style: "danger"},
				{Label: "Safety Tips", Target: "/education", Style: "danger-outline"},
			},
		},
		{
			Key:   Reusable,
			Title: "Reusable",
			Keywords: []string{
				"phone", "smartphone", "laptop", "tablet", "monitor", "tv", "television",
				"camera", "printer", "speaker", "console", "router", "keyboard", "mouse",
				"hard drive", "ssd", "macbook", "iphone", "galaxy", "imac", "workstation",
			},
			Weight: 1.6,
			Suggestion: "This device looks reusable or resellable. Consider donating, listing it in the " +
				"marketplace, or selling to extend the device's life.",
			Actions: []Action{},
		},
		{
			Key:   Recyclable,
			Title: "Recyclable",
			Keywords: []string{
				"cable", "charger", "adapter", "keyboard", "headphone", "earbuds", "plastic",
				"metal", "pcb scrap", "motherboard", "case", "frame", "fan", "heat sink",
				"accessory", "power cord", "speaker cone",
			},
			Weight: 1.0,
			Suggestion: "This item can be recycled. Drop it at a certified e-waste recycling center so " +
				"materials are recovered responsibly.",
			Actions: []Action{
				{Label: "Find Facility", Target: "/facility-locator", Style: "primary"},
				{Label: "Estimate Value", Target: "/value-estimator", Style: "primary-outline"},
			},
		},
	}
}

// validateDefinitions checks that defs hold each category exactly once.
func validateDefinitions(defs []Definition) error {
	if len(defs) != len(Categories) {
		return fmt.Errorf("expected %d category definitions, got %d", len(Categories), len(defs))
	}
	seen := make(map[Category]bool, len(defs))
	for _, d := range defs {
		if _, ok := ParseCategory(string(d.Key)); !ok {
			return fmt.Errorf("unknown category %q", d.Key)
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate category %q", d.Key)
		}
		if d.Weight <= 0 {
			return fmt.Errorf("category %q: weight must be positive", d.Key)
		}
		seen[d.Key] = true
	}
	return nil
}
