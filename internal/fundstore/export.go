// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fundstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fundscore/pkg/types"
)

// ExportEntry is a fund as written to export files. Decimal fields are
// rendered as strings so no precision is lost in either format.
type ExportEntry struct {
	Identifier       string    `json:"identifier" yaml:"identifier"`
	Name             string    `json:"name" yaml:"name"`
	VintageYear      *int      `json:"vintage_year,omitempty" yaml:"vintage_year,omitempty"`
	Strategy         string    `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Geography        string    `json:"geography,omitempty" yaml:"geography,omitempty"`
	SectorFocus      string    `json:"sector_focus,omitempty" yaml:"sector_focus,omitempty"`
	Manager          string    `json:"manager,omitempty" yaml:"manager,omitempty"`
	FundSizeUSD      string    `json:"fund_size_usd,omitempty" yaml:"fund_size_usd,omitempty"`
	ManagementFeePct string    `json:"management_fee_pct,omitempty" yaml:"management_fee_pct,omitempty"`
	CarryPct         string    `json:"carry_pct,omitempty" yaml:"carry_pct,omitempty"`
	CommitmentUSD    string    `json:"commitment_usd,omitempty" yaml:"commitment_usd,omitempty"`
	Confidence       string    `json:"data_confidence_score" yaml:"data_confidence_score"`
	DataSource       string    `json:"data_source" yaml:"data_source"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

const exportLimit = 1_000_000

// ExportYAML writes the matching funds to <data-dir>/index/export.yaml and
// returns the file path.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport("export.yaml", data)
}

// ExportJSON writes the matching funds to <data-dir>/index/export.json and
// returns the file path.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport("export.json", data)
}

func (s *Store) writeExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.dataDir, indexDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) exportEntries(ctx context.Context, opts ListOptions) ([]ExportEntry, error) {
	opts.Limit = exportLimit
	opts.Offset = 0
	funds, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(funds))
	for i, f := range funds {
		entries[i] = NewExportEntry(f)
	}
	return entries, nil
}

// NewExportEntry converts a stored fund to its export form.
func NewExportEntry(f types.Fund) ExportEntry {
	return ExportEntry{
		Identifier:       f.Identifier,
		Name:             f.Name,
		VintageYear:      f.VintageYear,
		Strategy:         f.Strategy,
		Geography:        f.Geography,
		SectorFocus:      f.SectorFocus,
		Manager:          f.Manager,
		FundSizeUSD:      nullDecimalString(f.FundSizeUSD),
		ManagementFeePct: nullDecimalString(f.ManagementFeePct),
		CarryPct:         nullDecimalString(f.CarryPct),
		CommitmentUSD:    nullDecimalString(f.CommitmentUSD),
		Confidence:       f.Confidence.String(),
		DataSource:       f.DataSource,
		CreatedAt:        f.CreatedAt,
	}
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
