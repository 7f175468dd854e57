// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fundscore/internal/fundstore"
	"github.com/pdiddy/fundscore/internal/ingest"
	"github.com/pdiddy/fundscore/internal/logging"
	"github.com/pdiddy/fundscore/internal/tables"
	"github.com/pdiddy/fundscore/pkg/types"
)

func filterCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd)
	cmd.Flags().Int("limit", 0, "")
	cmd.Flags().Int("offset", 0, "")
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestListOptsFromFlags(t *testing.T) {
	loadedTables = tables.Default()

	opts, err := listOptsFromFlags(filterCmd(t, map[string]string{
		"strategy":       "lbo",
		"geography":      "uk",
		"vintage":        "2020",
		"min-confidence": "0.95",
		"min-size":       "$500M",
		"max-size":       "1.5B",
		"limit":          "5",
		"search":         "Example",
	}))
	require.NoError(t, err)

	assert.Equal(t, "Buyout", opts.Strategy)
	assert.Equal(t, "Europe", opts.Geography)
	assert.Equal(t, 2020, opts.VintageYear)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, "Example", opts.Search)
	assert.True(t, opts.MinConfidence.Equal(decimal.RequireFromString("0.95")))
	assert.True(t, opts.MinSize.Equal(decimal.NewFromInt(500_000_000)))
	assert.True(t, opts.MaxSize.Equal(decimal.NewFromInt(1_500_000_000)))
}

func TestListOptsFromFlagsErrors(t *testing.T) {
	loadedTables = tables.Default()

	_, err := listOptsFromFlags(filterCmd(t, map[string]string{"min-confidence": "high"}))
	require.Error(t, err)

	_, err = listOptsFromFlags(filterCmd(t, map[string]string{"min-confidence": "9e400000000"}))
	require.ErrorContains(t, err, "out of range")

	_, err = listOptsFromFlags(filterCmd(t, map[string]string{"min-size": "1e400000000"}))
	require.ErrorContains(t, err, "--min-size")

	_, err = listOptsFromFlags(filterCmd(t, map[string]string{"min-size": "lots"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--min-size")
}

func TestFormatScoreOutput(t *testing.T) {
	loadedTables = tables.Default()
	n, s, err := buildStages()
	require.NoError(t, err)
	p, err := ingest.New(n, s, nil, types.IngestConfig{}, logging.Discard())
	require.NoError(t, err)

	outcomes, err := p.Evaluate(t.Context(), []types.Record{{
		"name":          types.Text("Example Fund IV, L.P."),
		"strategy":      types.Text("lbo"),
		"vintage_year":  types.Int(2020),
		"carry_pct":     types.Int(80),
		"data_source":   types.Text("sec_10k"),
		"fund_size_usd": types.Text("5B"),
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, formatScoreOutput(&buf, outcomes, true))

	out := buf.String()
	assert.Contains(t, out, "Example Fund IV")
	assert.Contains(t, out, "0.7800")
	assert.Contains(t, out, "missing important: manager, geography")
	assert.Contains(t, out, "violation: carry_pct=80")
	assert.Contains(t, out, "1 records, 1 require manual review")
}

func TestFormatStatsOutput(t *testing.T) {
	st := fundstore.Stats{
		Funds:         3,
		AvgConfidence: decimal.RequireFromString("0.95"),
		TotalSize:     decimal.RequireFromString("5250000000"),
		ByStrategy: map[string]fundstore.StrategyStats{
			"Buyout": {Funds: 2, TotalSize: decimal.RequireFromString("5000000000"),
				AvgFee: decimal.RequireFromString("2"), AvgCarry: decimal.RequireFromString("20")},
			"": {Funds: 1, TotalSize: decimal.RequireFromString("250000000")},
		},
		ByGeography: map[string]int{"Europe": 2, "Asia": 1},
		ByVintage:   map[int]int{2020: 2, 0: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, formatStatsOutput(&buf, st, false))
	out := buf.String()
	assert.Contains(t, out, "Average confidence: 0.9500")
	assert.Contains(t, out, "Total size (USD):   5250000000")
	assert.Regexp(t, `Buyout\s+2\s+5000000000\s+2\.00\s+20\.00`, out)
	assert.Regexp(t, `\(none\)\s+1\s+250000000`, out)
	assert.Less(t, strings.Index(out, "Asia"), strings.Index(out, "Europe"), "geographies sorted")
	assert.Regexp(t, `2020\s+2`, out)

	buf.Reset()
	require.NoError(t, formatStatsOutput(&buf, st, true))
	assert.Contains(t, buf.String(), `"by_vintage"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly10!", truncate("exactly10!", 10))
	assert.Equal(t, "Infrast...", truncate("Infrastructure", 10))
}
