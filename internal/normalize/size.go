// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/pkg/types"
)

// magnitudes lists the recognized trailing suffixes in priority order:
// billions, then millions, then thousands. Longer spellings come first so
// "BN" and "MM" are stripped whole.
var magnitudes = []struct {
	suffix     string
	multiplier decimal.Decimal
}{
	{"BN", decimal.New(1, 9)},
	{"B", decimal.New(1, 9)},
	{"MM", decimal.New(1, 6)},
	{"M", decimal.New(1, 6)},
	{"K", decimal.New(1, 3)},
}

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

// FundSize converts v to a positive USD amount. Exact decimals are returned
// unchanged. Numbers are accepted when positive. Text such as "$30.5B",
// "1,500M" or "€250k" is parsed after stripping currency symbols and
// thousands separators and applying the magnitude suffix. Anything that
// fails to parse, is not strictly positive, or is not types.Bounded yields
// Null.
func FundSize(v types.Value) types.Value {
	switch v.Kind() {
	case types.KindNull:
		return types.Null()
	case types.KindDecimal:
		d, _ := v.Num()
		if !types.Bounded(d) {
			return types.Null()
		}
		return v
	case types.KindNumber:
		d, _ := v.Num()
		return positive(d)
	case types.KindText:
		s, _ := v.Text()
		return parseSize(s)
	default:
		return parseSize(v.String())
	}
}

func parseSize(s string) types.Value {
	s = strings.TrimSpace(currencyStripper.Replace(strings.TrimSpace(s)))

	multiplier := decimal.New(1, 0)
	for _, m := range magnitudes {
		if hasSuffixFold(s, m.suffix) {
			multiplier = m.multiplier
			s = strings.TrimSpace(s[:len(s)-len(m.suffix)])
			break
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return types.Null()
	}
	return positive(d.Mul(multiplier))
}

func positive(d decimal.Decimal) types.Value {
	if !d.IsPositive() || !types.Bounded(d) {
		return types.Null()
	}
	return types.Decimal(d)
}

// hasSuffixFold reports whether s ends with the ASCII suffix, ignoring case.
func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
