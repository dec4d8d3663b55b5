// internal/valuation/prefill.go
package valuation

import "strings"

var labelRules = []struct {
	category DeviceCategory
	hints    []string
}{
	{Phone, []string{"phone"}},
	{Laptop, []string{"laptop", "notebook"}},
	{Tablet, []string{"tablet", "ipad"}},
	{TV, []string{"tv", "television"}},
	{Desktop, []string{"desktop", "pc"}},
}

// DetectCategory guesses a device category from a classifier label.
func DetectCategory(label string) DeviceCategory {
	s := strings.ToLower(label)
	for _, rule := range labelRules {
		for _, h := range rule.hints {
			if strings.Contains(s, h) {
				return rule.category
			}
		}
	}
	return Other
}

// DescriptorFromLabel builds an estimator form from a classified item label.
// The brand is taken as the label's first word.
func DescriptorFromLabel(label string) Descriptor {
	var brand string
	if fields := strings.Fields(label); len(fields) > 0 {
		brand = fields[0]
	}
	age, qty := 1.0, 1.0
	return Descriptor{
		Category:  string(DetectCategory(label)),
		Condition: string(Working),
		AgeYears:  &age,
		Brand:     &brand,
		Quantity:  &qty,
	}
}

// ListingPrefill seeds a marketplace listing from a valuation.
type ListingPrefill struct {
	Title     string         `json:"title,omitempty"`
	ImageURL  string         `json:"imageUrl,omitempty"`
	Price     int64          `json:"price"`
	Category  DeviceCategory `json:"category"`
	Condition Condition      `json:"condition"`
}

// NewListingPrefill builds the listing for the first valued item. The title and
// image come from the classified item, if any. It returns nil for an empty result.
func NewListingPrefill(label, imageURL string, result Result) *ListingPrefill {
	if len(result.Items) == 0 {
		return nil
	}
	first := result.Items[0]
	return &ListingPrefill{
		Title:     strings.TrimSpace(label),
		ImageURL:  imageURL,
		Price:     first.ResaleValuePerUnit,
		Category:  first.Category,
		Condition: first.Condition,
	}
}
