// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes confidence scores for normalized fund records.
//
// A score is the sum of four weighted components, clamped to [0,1]:
// the reliability of the record's source, the completeness of the required
// fields, the completeness of the important fields, and a pass/fail
// plausibility check. The arithmetic is exact decimal arithmetic, so equal
// inputs always produce identical scores.
package score

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/pkg/types"
)

// divisionPrecision is the number of decimal places kept when a
// completeness fraction is not exact (e.g. 2 x 0.35 / 3).
const divisionPrecision = 16

// ErrUnknownSource is returned when configuration names a source that is
// not in the reliability table.
var ErrUnknownSource = errors.New("unknown source")

// Scorer computes confidence scores. It holds only read-only configuration
// and is safe for concurrent use.
type Scorer struct {
	cfg types.ScoringConfig
}

// New returns a Scorer for cfg. An inconsistent configuration is a
// programming error and is reported rather than corrected.
func New(cfg types.ScoringConfig) (*Scorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	cfg.Reliability = maps.Clone(cfg.Reliability)
	cfg.RequiredFields = slices.Clone(cfg.RequiredFields)
	cfg.ImportantFields = slices.Clone(cfg.ImportantFields)
	return &Scorer{cfg: cfg}, nil
}

// Default returns a Scorer with DefaultConfig.
func Default() *Scorer {
	s, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Violation describes a field that failed its plausibility bound.
type Violation struct {
	Field  string `json:"field" yaml:"field"`
	Value  string `json:"value" yaml:"value"`
	Reason string `json:"reason" yaml:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s=%s: %s", v.Field, v.Value, v.Reason)
}

// Breakdown itemizes how a score was computed.
type Breakdown struct {
	Source      string          `json:"source" yaml:"source"`
	Reliability decimal.Decimal `json:"reliability" yaml:"reliability"`

	SourceScore     decimal.Decimal `json:"source_score" yaml:"source_score"`
	RequiredScore   decimal.Decimal `json:"required_score" yaml:"required_score"`
	ImportantScore  decimal.Decimal `json:"important_score" yaml:"important_score"`
	ValidationScore decimal.Decimal `json:"validation_score" yaml:"validation_score"`

	MissingRequired  []string    `json:"missing_required,omitempty" yaml:"missing_required,omitempty"`
	MissingImportant []string    `json:"missing_important,omitempty" yaml:"missing_important,omitempty"`
	Violations       []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`

	// Total is the clamped sum of the four component scores.
	Total decimal.Decimal `json:"total" yaml:"total"`
}

// Score returns the confidence score of rec when it comes from source.
// The result is in [0,1]. Sources missing from the reliability table get
// the default reliability.
func (s *Scorer) Score(rec types.Record, source string) decimal.Decimal {
	return s.Explain(rec, source).Total
}

// Explain computes the same score as Score and returns every component.
func (s *Scorer) Explain(rec types.Record, source string) Breakdown {
	w := s.cfg.Weights
	b := Breakdown{
		Source:      source,
		Reliability: s.Reliability(source),
	}

	b.SourceScore = b.Reliability.Mul(w.Source)
	b.RequiredScore, b.MissingRequired = completeness(rec, s.cfg.RequiredFields, w.Required)
	b.ImportantScore, b.MissingImportant = completeness(rec, s.cfg.ImportantFields, w.Important)

	b.Violations = s.Violations(rec)
	b.ValidationScore = decimal.Zero
	if len(b.Violations) == 0 {
		b.ValidationScore = w.Validation
	}

	total := b.SourceScore.Add(b.RequiredScore).Add(b.ImportantScore).Add(b.ValidationScore)
	b.Total = decimal.Max(decimal.Zero, decimal.Min(total, one))
	return b
}

// completeness returns count(truthy fields) x weight / len(fields) and the
// names of the fields that were missing.
func completeness(rec types.Record, fields []string, weight decimal.Decimal) (decimal.Decimal, []string) {
	var present int64
	var missing []string
	for _, f := range fields {
		if rec.Get(f).Truthy() {
			present++
		} else {
			missing = append(missing, f)
		}
	}
	contribution := decimal.NewFromInt(present).Mul(weight).
		DivRound(decimal.NewFromInt(int64(len(fields))), divisionPrecision)
	return contribution, missing
}

// PassesValidation reports whether rec has no plausibility violations.
// Absent fields never fail.
func (s *Scorer) PassesValidation(rec types.Record) bool {
	return len(s.Violations(rec)) == 0
}

// Violations checks vintage year, fund size, management fee and carry
// against the configured bounds. A field is checked when it is present,
// meaning truthy and not blank text, so 0 and false are skipped. A present
// value that is not numeric, or whose magnitude is not types.Bounded, is a
// violation.
func (s *Scorer) Violations(rec types.Record) []Violation {
	b := s.cfg.Bounds
	var out []Violation

	check := func(field string, ok func(decimal.Decimal) bool, reason string) {
		v := rec.Get(field)
		d, present, numeric := numericValue(v)
		switch {
		case !present:
		case !numeric:
			out = append(out, Violation{Field: field, Value: v.String(), Reason: "not numeric"})
		case !types.Bounded(d):
			out = append(out, Violation{Field: field, Value: v.String(), Reason: "magnitude out of range"})
		case !ok(d):
			out = append(out, Violation{Field: field, Value: v.String(), Reason: reason})
		}
	}

	vintageMin, vintageMax := decimal.NewFromInt(int64(b.VintageMin)), decimal.NewFromInt(int64(b.VintageMax))
	check(types.FieldVintageYear, between(vintageMin, vintageMax),
		fmt.Sprintf("outside [%d, %d]", b.VintageMin, b.VintageMax))
	check(types.FieldFundSize, func(d decimal.Decimal) bool { return d.GreaterThan(b.FundSizeFloor) },
		fmt.Sprintf("must be greater than %s", b.FundSizeFloor))
	check(types.FieldManagementFee, between(b.FeeMin, b.FeeMax),
		fmt.Sprintf("outside [%s, %s]", b.FeeMin, b.FeeMax))
	check(types.FieldCarry, between(b.CarryMin, b.CarryMax),
		fmt.Sprintf("outside [%s, %s]", b.CarryMin, b.CarryMax))

	return out
}

func between(lo, hi decimal.Decimal) func(decimal.Decimal) bool {
	return func(d decimal.Decimal) bool {
		return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
	}
}

// numericValue reports whether v is present and, if so, its numeric value.
func numericValue(v types.Value) (d decimal.Decimal, present, numeric bool) {
	if !v.Truthy() {
		return decimal.Zero, false, false
	}
	switch v.Kind() {
	case types.KindNumber, types.KindDecimal:
		n, _ := v.Num()
		return n, true, true
	case types.KindText:
		s, _ := v.Text()
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, false, false
		}
		n, err := decimal.NewFromString(s)
		return n, true, err == nil
	default:
		return decimal.Zero, true, false
	}
}

// Reliability returns the reliability weight of source, or the default
// reliability when source is not in the table.
func (s *Scorer) Reliability(source string) decimal.Decimal {
	if w, ok := s.cfg.Reliability[source]; ok {
		return w
	}
	return s.cfg.DefaultReliability
}

// KnownSource reports whether source is in the reliability table.
func (s *Scorer) KnownSource(source string) bool {
	_, ok := s.cfg.Reliability[source]
	return ok
}

// RequireSource returns ErrUnknownSource when source is not in the
// reliability table. Use it for sources named by configuration, where an
// unknown name is a mistake rather than a data-quality signal.
func (s *Scorer) RequireSource(source string) error {
	if !s.KnownSource(source) {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return nil
}

// Sources returns the source identifiers of the reliability table, sorted.
func (s *Scorer) Sources() []string {
	return slices.Sorted(maps.Keys(s.cfg.Reliability))
}

// Config returns a copy of the scorer configuration.
func (s *Scorer) Config() types.ScoringConfig {
	cfg := s.cfg
	cfg.Reliability = maps.Clone(s.cfg.Reliability)
	cfg.RequiredFields = slices.Clone(s.cfg.RequiredFields)
	cfg.ImportantFields = slices.Clone(s.cfg.ImportantFields)
	return cfg
}

// RequiresManualReview reports whether score falls short of full
// confidence. Only a score of exactly 1 is trusted without review.
func RequiresManualReview(score decimal.Decimal) bool {
	return score.LessThan(one)
}

// RequiresManualReview reports whether the breakdown's total falls short of
// full confidence.
func (b Breakdown) RequiresManualReview() bool {
	return RequiresManualReview(b.Total)
}
