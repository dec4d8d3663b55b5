// internal/valuation/brand.go
package valuation

import "strings"

type brandRule struct {
	key     string
	aliases []string
}

// Checked in order. "mac" must win over "apple" so Mac laptops get their own premium.
var brandRules = []brandRule{
	{key: "apple_mac", aliases: []string{"mac", "macbook"}},
	{key: "apple", aliases: []string{"apple"}},
	{key: "samsung", aliases: []string{"samsung"}},
	{key: "xiaomi", aliases: []string{"xiaomi", "redmi", "mi"}},
	{key: "oneplus", aliases: []string{"oneplus"}},
	{key: "dell", aliases: []string{"dell"}},
	{key: "hp", aliases: []string{"hp"}},
	{key: "lenovo", aliases: []string{"lenovo"}},
	{key: "asus", aliases: []string{"asus"}},
	{key: "acer", aliases: []string{"acer"}},
}

// ResolveBrand maps free-text brand input to a brand premium key by
// case-insensitive substring match. Unmatched input resolves to DefaultBrand.
func ResolveBrand(brand string) string {
	s := strings.ToLower(strings.TrimSpace(brand))
	if s == "" {
		return DefaultBrand
	}
	for _, rule := range brandRules {
		for _, alias := range rule.aliases {
			if strings.Contains(s, alias) {
				return rule.key
			}
		}
	}
	return DefaultBrand
}
