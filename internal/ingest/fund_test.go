// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/pkg/types"
)

func TestFundConversion(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{})
	o := Outcome{
		Source: "sec_10k",
		Record: types.Record{
			"name":               types.Text("Example Fund IV"),
			"vintage_year":       types.Int(2020),
			"strategy":           types.Text("Buyout"),
			"manager":            types.Text("Example Capital"),
			"fund_size_usd":      types.Decimal(decimal.RequireFromString("5000000000.25")),
			"management_fee_pct": types.Text(" 2.0 "),
			"carry_pct":          types.Int(20),
			"commitment_usd":     types.Text("25000000"),
		},
		Breakdown: score.Breakdown{Total: decimal.RequireFromString("0.98")},
	}

	f, err := p.fund(o)
	require.NoError(t, err)
	assert.Equal(t, "EXAMPLE_FUND_IV_2020", f.Identifier)
	assert.Equal(t, "id-1", f.ID)
	require.NotNil(t, f.VintageYear)
	assert.Equal(t, 2020, *f.VintageYear)
	assert.Equal(t, "5000000000.25", f.FundSizeUSD.Decimal.String())
	assert.True(t, f.ManagementFeePct.Decimal.Equal(decimal.NewFromInt(2)))
	assert.True(t, f.CommitmentUSD.Decimal.Equal(decimal.NewFromInt(25_000_000)))
	assert.Equal(t, "0.98", f.Confidence.String())
	assert.Equal(t, "sec_10k", f.DataSource)

	_, err = p.fund(Outcome{Record: types.Record{"name": types.Text("  ")}})
	require.ErrorIs(t, err, ErrNoName)
}

func TestNumericFieldsOutOfRange(t *testing.T) {
	tests := []struct {
		name        string
		in          types.Value
		wantDecimal bool
	}{
		{"huge exponent", types.Number(decimal.RequireFromString("1e400000000")), false},
		{"tiny exponent", types.Number(decimal.RequireFromString("1e-400000000")), false},
		{"huge exponent text", types.Text("2e400000000"), false},
		{"beyond int64", types.Number(decimal.RequireFromString("18446744073709553636")), true},
		{"not numeric", types.Text("n/a"), false},
		{"bool", types.Bool(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := types.Record{"vintage_year": tt.in, "carry_pct": tt.in}
			assert.Nil(t, intField(rec, "vintage_year"))
			assert.Equal(t, tt.wantDecimal, decimalField(rec, "carry_pct").Valid)
		})
	}
}

func TestRunHugeExponentRecord(t *testing.T) {
	sink := newMemSink()
	p := testPipeline(t, sink, types.IngestConfig{MinConfidence: decimal.RequireFromString("0.5")})
	rec := rawFund("Example Fund IV", 2020, "sec_10k")
	rec["management_fee_pct"] = types.Number(decimal.RequireFromString("1e400000000"))
	rec["commitment_usd"] = types.Number(decimal.RequireFromString("1e-400000000"))

	done := make(chan Summary, 1)
	go func() {
		sum, err := p.Run(context.Background(), []types.Record{rec}, io.Discard)
		assert.NoError(t, err)
		done <- sum
	}()

	select {
	case sum := <-done:
		assert.Equal(t, 1, sum.Accepted)
		f := sink.funds["EXAMPLE_FUND_IV_2020"]
		assert.False(t, f.ManagementFeePct.Valid, "out-of-range fee is not stored")
		assert.False(t, f.CommitmentUSD.Valid)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return for a huge exponent")
	}
}
