// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes the fields of raw fund records: name,
// strategy, geography, fund size and vintage year. Malformed input never
// produces an error; it normalizes to Null.
//
// A Normalizer holds only read-only rule tables and is safe for concurrent use.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/fundscore/pkg/types"
)

// Accepted vintage years, inclusive.
const (
	MinVintageYear = 1990
	MaxVintageYear = 2030
)

var (
	legalSuffix  = regexp.MustCompile(`(?i),\s*(L\.P\.|LP|Ltd\.|Limited|LLC)$`)
	romanNumeral = regexp.MustCompile(`(?i)^[IVX]+$`)
)

// Normalizer canonicalizes fund records against ordered rule tables.
type Normalizer struct {
	strategies  []types.Rule
	geographies []types.Rule
}

// New returns a Normalizer using the given rule tables. A nil table selects
// the default one. The tables are copied.
func New(strategies, geographies []types.Rule) *Normalizer {
	if strategies == nil {
		strategies = DefaultStrategyRules()
	}
	if geographies == nil {
		geographies = DefaultGeographyRules()
	}
	return &Normalizer{
		strategies:  append([]types.Rule(nil), strategies...),
		geographies: append([]types.Rule(nil), geographies...),
	}
}

// Default returns a Normalizer with the default rule tables.
func Default() *Normalizer {
	return New(nil, nil)
}

// Normalize returns a new record with the name, strategy, geography,
// fund_size_usd and vintage_year fields canonicalized. Only keys present in
// rec are touched; all other keys are copied unchanged. rec is not modified.
// Normalizing an already normalized record returns an equal record.
func (n *Normalizer) Normalize(rec types.Record) types.Record {
	out := rec.Clone()

	if v, ok := rec[types.FieldName]; ok {
		out[types.FieldName] = types.Text(Name(v.String()))
	}
	if v, ok := rec[types.FieldStrategy]; ok {
		out[types.FieldStrategy] = n.Strategy(v)
	}
	if v, ok := rec[types.FieldGeography]; ok {
		out[types.FieldGeography] = n.Geography(v)
	}
	if v, ok := rec[types.FieldFundSize]; ok {
		out[types.FieldFundSize] = FundSize(v)
	}
	if v, ok := rec[types.FieldVintageYear]; ok {
		out[types.FieldVintageYear] = VintageYear(v)
	}

	return out
}

// Name collapses whitespace, strips trailing legal-entity suffixes
// (", L.P.", ", LP", ", Ltd.", ", Limited", ", LLC") and upper-cases Roman
// numeral tokens. Other tokens keep their case.
func Name(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	for {
		stripped := legalSuffix.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = strings.TrimSpace(stripped)
	}

	words := strings.Fields(name)
	for i, w := range words {
		if romanNumeral.MatchString(w) {
			words[i] = strings.ToUpper(w)
		}
	}
	return strings.Join(words, " ")
}

// Strategy maps v to a canonical strategy label. Inputs equal to a label
// keep it; otherwise the first rule whose key occurs in the lower-cased
// input wins. Unmatched input is returned title-cased. Empty input yields Null.
func (n *Normalizer) Strategy(v types.Value) types.Value {
	s, ok := textOf(v)
	if !ok {
		return types.Null()
	}
	lower := strings.ToLower(s)

	if label, ok := matchLabel(n.strategies, lower); ok {
		return types.Text(label)
	}
	if label, ok := matchSubstring(n.strategies, lower); ok {
		return types.Text(label)
	}
	return types.Text(titleCase(s))
}

// Geography maps v to a canonical region. An exact key match wins, then an
// exact label match, then the first key occurring in the input. Unmatched
// input is returned title-cased. Empty input yields Null.
func (n *Normalizer) Geography(v types.Value) types.Value {
	s, ok := textOf(v)
	if !ok {
		return types.Null()
	}
	lower := strings.ToLower(s)

	if label, ok := matchExact(n.geographies, lower); ok {
		return types.Text(label)
	}
	if label, ok := matchLabel(n.geographies, lower); ok {
		return types.Text(label)
	}
	if label, ok := matchSubstring(n.geographies, lower); ok {
		return types.Text(label)
	}
	return types.Text(titleCase(s))
}

var (
	minVintage          = decimal.NewFromInt(MinVintageYear)
	maxVintageExclusive = decimal.NewFromInt(MaxVintageYear + 1)
)

// VintageYear parses v as a year and returns it when it lies in
// [MinVintageYear, MaxVintageYear]. Fractional numbers are truncated.
// Numbers are range-checked before truncation, so values beyond int64 never
// wrap into range. Anything else yields Null.
func VintageYear(v types.Value) types.Value {
	var year int64

	switch v.Kind() {
	case types.KindNumber, types.KindDecimal:
		d, _ := v.Num()
		if !types.Bounded(d) || d.LessThan(minVintage) || d.GreaterThanOrEqual(maxVintageExclusive) {
			return types.Null()
		}
		year = d.IntPart()
	case types.KindText:
		s, _ := v.Text()
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return types.Null()
		}
		year = n
	default:
		return types.Null()
	}

	if year < MinVintageYear || year > MaxVintageYear {
		return types.Null()
	}
	return types.Int(year)
}

// textOf returns the trimmed text form of v, or false when v carries no text.
func textOf(v types.Value) (string, bool) {
	if !v.Truthy() {
		return "", false
	}
	s := strings.TrimSpace(v.String())
	return s, s != ""
}

// titleCase capitalizes the first letter of each word and lower-cases the
// rest. A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
