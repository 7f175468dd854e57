// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/fundscore/pkg/types"
)

// DefaultStrategyRules returns the strategy table in match order. Keys are
// matched as substrings, so order decides overlaps: "private equity" must
// precede "pe", and "credit" catches "private credit" only after it.
func DefaultStrategyRules() []types.Rule {
	return []types.Rule{
		{Key: "private equity", Label: "Buyout"},
		{Key: "pe", Label: "Buyout"},
		{Key: "buyout", Label: "Buyout"},
		{Key: "lbo", Label: "Buyout"},
		{Key: "venture capital", Label: "Venture Capital"},
		{Key: "vc", Label: "Venture Capital"},
		{Key: "venture", Label: "Venture Capital"},
		{Key: "growth equity", Label: "Growth Equity"},
		{Key: "growth", Label: "Growth Equity"},
		{Key: "infrastructure", Label: "Infrastructure"},
		{Key: "infra", Label: "Infrastructure"},
		{Key: "real estate", Label: "Real Estate"},
		{Key: "real assets", Label: "Real Assets"},
		{Key: "private credit", Label: "Private Credit"},
		{Key: "credit", Label: "Private Credit"},
		{Key: "distressed", Label: "Distressed/Special Situations"},
		{Key: "special situations", Label: "Distressed/Special Situations"},
		{Key: "secondary", Label: "Secondary"},
		{Key: "secondaries", Label: "Secondary"},
		{Key: "co-investment", Label: "Co-Investment"},
		{Key: "hedge fund", Label: "Hedge Fund"},
	}
}

// DefaultGeographyRules returns the geography table in match order. Exact
// matches are tried before substring matches, so short aliases such as
// "us" and "em" only win a substring match when nothing earlier does.
func DefaultGeographyRules() []types.Rule {
	return []types.Rule{
		{Key: "usa", Label: "North America"},
		{Key: "us", Label: "North America"},
		{Key: "united states", Label: "North America"},
		{Key: "north america", Label: "North America"},
		{Key: "na", Label: "North America"},
		{Key: "europe", Label: "Europe"},
		{Key: "eu", Label: "Europe"},
		{Key: "emea", Label: "Europe"},
		{Key: "uk", Label: "Europe"},
		{Key: "united kingdom", Label: "Europe"},
		{Key: "asia", Label: "Asia-Pacific"},
		{Key: "asia-pacific", Label: "Asia-Pacific"},
		{Key: "apac", Label: "Asia-Pacific"},
		{Key: "china", Label: "Asia-Pacific"},
		{Key: "japan", Label: "Asia-Pacific"},
		{Key: "india", Label: "Asia-Pacific"},
		{Key: "global", Label: "Global"},
		{Key: "worldwide", Label: "Global"},
		{Key: "latin america", Label: "Latin America"},
		{Key: "latam", Label: "Latin America"},
		{Key: "emerging markets", Label: "Emerging Markets"},
		{Key: "em", Label: "Emerging Markets"},
		{Key: "middle east", Label: "Middle East"},
	}
}

// ValidateRules checks that every rule has a lower-case, trimmed key and a
// non-blank label. Every violation is reported.
func ValidateRules(table string, rules []types.Rule) error {
	var errs []error
	for i, r := range rules {
		if strings.TrimSpace(r.Key) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: key is empty", table, i))
		} else if r.Key != strings.ToLower(strings.TrimSpace(r.Key)) {
			errs = append(errs, fmt.Errorf("%s[%d]: key %q must be lower-case and trimmed", table, i, r.Key))
		}
		if strings.TrimSpace(r.Label) == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: label is empty", table, i))
		}
	}
	return errors.Join(errs...)
}

// matchLabel returns the canonical label equal to s, ignoring case. This
// keeps canonical values stable under repeated normalization.
func matchLabel(rules []types.Rule, s string) (string, bool) {
	for _, r := range rules {
		if strings.EqualFold(r.Label, s) {
			return r.Label, true
		}
	}
	return "", false
}

// matchExact returns the label of the first rule whose key equals s.
func matchExact(rules []types.Rule, s string) (string, bool) {
	for _, r := range rules {
		if r.Key == s {
			return r.Label, true
		}
	}
	return "", false
}

// matchSubstring returns the label of the first rule whose key occurs in s.
func matchSubstring(rules []types.Rule, s string) (string, bool) {
	for _, r := range rules {
		if strings.Contains(s, r.Key) {
			return r.Label, true
		}
	}
	return "", false
}
