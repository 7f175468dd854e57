// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "github.com/shopspring/decimal"

// Rule maps inputs containing Key to the canonical Label. Rule tables are
// ordered; the first matching rule wins.
type Rule struct {
	// Key is a lower-case fragment matched against the lower-cased input.
	Key string `json:"key" yaml:"key"`

	// Label is the canonical value returned on a match.
	Label string `json:"label" yaml:"label"`
}

// NormalizationConfig holds the rule tables of the normalizer.
type NormalizationConfig struct {
	// Strategies canonicalizes fund strategies (e.g. "lbo" -> "Buyout").
	Strategies []Rule `json:"strategies" yaml:"strategies"`

	// Geographies canonicalizes regions and countries (e.g. "uk" -> "Europe").
	Geographies []Rule `json:"geographies" yaml:"geographies"`
}

// ScoreWeights holds the maximum contribution of each scoring component.
type ScoreWeights struct {
	// Source scales the reliability of the record's source (default 0.40).
	Source decimal.Decimal `json:"source" yaml:"source"`

	// Required scales the completeness of the required fields (default 0.35).
	Required decimal.Decimal `json:"required" yaml:"required"`

	// Important scales the completeness of the important fields (default 0.15).
	Important decimal.Decimal `json:"important" yaml:"important"`

	// Validation is awarded in full when the record passes validation (default 0.10).
	Validation decimal.Decimal `json:"validation" yaml:"validation"`
}

// Sum returns the total of all four weights.
func (w ScoreWeights) Sum() decimal.Decimal {
	return w.Source.Add(w.Required).Add(w.Important).Add(w.Validation)
}

// ValidationBounds holds the plausibility bounds checked by the scorer.
// Min and max bounds are inclusive; FundSizeFloor is exclusive.
type ValidationBounds struct {
	VintageMin    int             `json:"vintage_min" yaml:"vintage_min"`
	VintageMax    int             `json:"vintage_max" yaml:"vintage_max"`
	FundSizeFloor decimal.Decimal `json:"fund_size_floor" yaml:"fund_size_floor"`
	FeeMin        decimal.Decimal `json:"fee_min" yaml:"fee_min"`
	FeeMax        decimal.Decimal `json:"fee_max" yaml:"fee_max"`
	CarryMin      decimal.Decimal `json:"carry_min" yaml:"carry_min"`
	CarryMax      decimal.Decimal `json:"carry_max" yaml:"carry_max"`
}

// ScoringConfig is the tunable configuration of the confidence scorer.
type ScoringConfig struct {
	// Reliability maps a source identifier to a weight in [0,1].
	Reliability map[string]decimal.Decimal `json:"reliability" yaml:"reliability"`

	// DefaultReliability applies to sources missing from Reliability (default 0.50).
	DefaultReliability decimal.Decimal `json:"default_reliability" yaml:"default_reliability"`

	// RequiredFields are the fields whose presence earns the Required weight.
	RequiredFields []string `json:"required_fields" yaml:"required_fields"`

	// ImportantFields are the fields whose presence earns the Important weight.
	ImportantFields []string `json:"important_fields" yaml:"important_fields"`

	Weights ScoreWeights     `json:"weights" yaml:"weights"`
	Bounds  ValidationBounds `json:"bounds" yaml:"bounds"`
}

// Tables groups every externally adjustable table of the pipeline.
type Tables struct {
	Scoring       ScoringConfig       `json:"scoring" yaml:"scoring"`
	Normalization NormalizationConfig `json:"normalization" yaml:"normalization"`
}

// IngestConfig holds settings for batch ingestion.
type IngestConfig struct {
	// MinConfidence is the acceptance threshold; records scoring below it
	// are rejected (default 0.90).
	MinConfidence decimal.Decimal `json:"min_confidence" yaml:"min_confidence"`

	// Workers bounds the number of records evaluated concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// DefaultSource is used for records without a data_source field. When
	// set it must name a source in the reliability table.
	DefaultSource string `json:"default_source" yaml:"default_source"`
}

// StoreConfig holds settings for the fund store.
type StoreConfig struct {
	// DataDir is the base directory for data (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of listed funds (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
