// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/pkg/types"
)

var (
	one = decimal.NewFromInt(1)
	dec = decimal.RequireFromString
)

// DefaultReliability returns the built-in source reliability table.
// Regulatory filings rank highest, then public pension disclosures, manager
// reports and verified manual entry, then unverified entry and web scraping.
func DefaultReliability() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"sec_form_d":     dec("0.95"),
		"sec_10k":        dec("0.95"),
		"blackstone_10k": dec("0.95"),
		"kkr_10k":        dec("0.95"),
		"apollo_10k":     dec("0.95"),
		"ares_10k":       dec("0.95"),
		"carlyle_10k":    dec("0.95"),

		"psers_holdings":   dec("0.90"),
		"calpers_holdings": dec("0.90"),
		"washington_sib":   dec("0.90"),
		"florida_sba":      dec("0.90"),

		"manager_investor_report": dec("0.85"),
		"manual_verified":         dec("0.85"),

		"manual_unverified": dec("0.60"),
		"web_scrape":        dec("0.50"),
	}
}

// DefaultConfig returns the scorer configuration with the built-in tables.
// Weights sum to 1.
func DefaultConfig() types.ScoringConfig {
	return types.ScoringConfig{
		Reliability:        DefaultReliability(),
		DefaultReliability: dec("0.50"),
		RequiredFields:     []string{types.FieldName, types.FieldStrategy, types.FieldVintageYear},
		ImportantFields:    []string{types.FieldFundSize, types.FieldManager, types.FieldGeography},
		Weights: types.ScoreWeights{
			Source:     dec("0.40"),
			Required:   dec("0.35"),
			Important:  dec("0.15"),
			Validation: dec("0.10"),
		},
		Bounds: types.ValidationBounds{
			VintageMin:    normalize.MinVintageYear,
			VintageMax:    normalize.MaxVintageYear,
			FundSizeFloor: decimal.Zero,
			FeeMin:        decimal.Zero,
			FeeMax:        dec("5"),
			CarryMin:      decimal.Zero,
			CarryMax:      dec("50"),
		},
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent and
// reports every violation in one error.
func ValidateConfig(c types.ScoringConfig) error {
	var errs []error

	weights := []struct {
		name string
		w    decimal.Decimal
	}{
		{"weights.source", c.Weights.Source},
		{"weights.required", c.Weights.Required},
		{"weights.important", c.Weights.Important},
		{"weights.validation", c.Weights.Validation},
		{"default_reliability", c.DefaultReliability},
	}
	for _, w := range weights {
		if !types.Bounded(w.w) {
			errs = append(errs, fmt.Errorf("%s: magnitude out of range", w.name))
			continue
		}
		if !unit(w.w) {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %s", w.name, w.w))
		}
	}

	for source, w := range c.Reliability {
		if strings.TrimSpace(source) == "" {
			errs = append(errs, errors.New("reliability: empty source identifier"))
		}
		switch {
		case !types.Bounded(w):
			errs = append(errs, fmt.Errorf("reliability[%s]: magnitude out of range", source))
		case !unit(w):
			errs = append(errs, fmt.Errorf("reliability[%s] must be in [0,1], got %s", source, w))
		}
	}

	errs = append(errs, validateFields("required_fields", c.RequiredFields)...)
	errs = append(errs, validateFields("important_fields", c.ImportantFields)...)

	b := c.Bounds
	if b.VintageMin > b.VintageMax {
		errs = append(errs, fmt.Errorf("bounds: vintage_min %d exceeds vintage_max %d", b.VintageMin, b.VintageMax))
	}
	bounded := true
	for _, d := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"fund_size_floor", b.FundSizeFloor},
		{"fee_min", b.FeeMin},
		{"fee_max", b.FeeMax},
		{"carry_min", b.CarryMin},
		{"carry_max", b.CarryMax},
	} {
		if !types.Bounded(d.v) {
			errs = append(errs, fmt.Errorf("bounds: %s magnitude out of range", d.name))
			bounded = false
		}
	}
	if bounded && b.FeeMin.GreaterThan(b.FeeMax) {
		errs = append(errs, fmt.Errorf("bounds: fee_min %s exceeds fee_max %s", b.FeeMin, b.FeeMax))
	}
	if bounded && b.CarryMin.GreaterThan(b.CarryMax) {
		errs = append(errs, fmt.Errorf("bounds: carry_min %s exceeds carry_max %s", b.CarryMin, b.CarryMax))
	}

	if len(errs) > 0 {
		return fmt.Errorf("scorer: config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func validateFields(name string, fields []string) []error {
	if len(fields) == 0 {
		return []error{fmt.Errorf("%s must not be empty", name)}
	}
	var errs []error
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		switch {
		case strings.TrimSpace(f) == "":
			errs = append(errs, fmt.Errorf("%s[%d] is blank", name, i))
		case seen[f]:
			errs = append(errs, fmt.Errorf("%s: duplicate field %q", name, f))
		}
		seen[f] = true
	}
	return errs
}

func unit(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(one)
}
