// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tables loads the adjustable tables of the pipeline: source
// reliability, required and important fields, score weights, validation
// bounds, and the strategy and geography rules.
//
// A tables file is YAML layered over the defaults. Reliability entries are
// merged into the default table, lists replace the default lists, and
// scalars replace the default only when given:
//
//	scoring:
//	  reliability:
//	    preqin_export: 0.80
//	  weights:
//	    source: 0.50
//	    required: 0.30
//	    important: 0.10
//	    validation: 0.10
//	normalization:
//	  strategies:
//	    - {key: buyout, label: Buyout}
package tables

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/pkg/types"
)

// Default returns the built-in tables.
func Default() types.Tables {
	return types.Tables{
		Scoring: score.DefaultConfig(),
		Normalization: types.NormalizationConfig{
			Strategies:  normalize.DefaultStrategyRules(),
			Geographies: normalize.DefaultGeographyRules(),
		},
	}
}

// Load reads a tables file and layers it over the defaults. An empty path
// returns the defaults. The result is validated.
func Load(path string) (types.Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tables{}, fmt.Errorf("reading tables %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return types.Tables{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes YAML tables over the defaults and validates the result.
func Parse(data []byte) (types.Tables, error) {
	t := Default()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return types.Tables{}, fmt.Errorf("parsing tables: %w", err)
	}
	if err := Validate(t); err != nil {
		return types.Tables{}, err
	}
	return t, nil
}

// Validate checks the rule tables and the scoring configuration.
func Validate(t types.Tables) error {
	var errs []error
	if len(t.Normalization.Strategies) == 0 {
		errs = append(errs, errors.New("normalization.strategies must not be empty"))
	}
	if len(t.Normalization.Geographies) == 0 {
		errs = append(errs, errors.New("normalization.geographies must not be empty"))
	}
	errs = append(errs,
		normalize.ValidateRules("normalization.strategies", t.Normalization.Strategies),
		normalize.ValidateRules("normalization.geographies", t.Normalization.Geographies),
		score.ValidateConfig(t.Scoring),
	)
	return errors.Join(errs...)
}

// Build constructs the normalizer and scorer described by t.
func Build(t types.Tables) (*normalize.Normalizer, *score.Scorer, error) {
	if err := Validate(t); err != nil {
		return nil, nil, err
	}
	s, err := score.New(t.Scoring)
	if err != nil {
		return nil, nil, err
	}
	return normalize.New(t.Normalization.Strategies, t.Normalization.Geographies), s, nil
}

// Marshal renders t as YAML in the format Parse reads.
func Marshal(t types.Tables) ([]byte, error) {
	return yaml.Marshal(t)
}
