// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fundscore/pkg/types"
)

func sampleRecord() types.Record {
	return types.Record{
		"name":               types.Text("X"),
		"strategy":           types.Text("Buyout"),
		"vintage_year":       types.Int(2020),
		"fund_size_usd":      types.Decimal(decimal.NewFromInt(5_000_000_000)),
		"geography":          types.Text("North America"),
		"management_fee_pct": types.Int(2),
		"carry_pct":          types.Int(20),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), append([]any{"got %s, want %s", got, want}, msgAndArgs...)...)
}

func TestScoreWorkedExample(t *testing.T) {
	s := Default()

	b := s.Explain(sampleRecord(), "sec_10k")

	assertDecimal(t, "0.95", b.Reliability)
	assertDecimal(t, "0.38", b.SourceScore)
	assertDecimal(t, "0.35", b.RequiredScore)
	assertDecimal(t, "0.10", b.ImportantScore)
	assertDecimal(t, "0.10", b.ValidationScore)
	assertDecimal(t, "0.93", b.Total)
	assert.Empty(t, b.MissingRequired)
	assert.Equal(t, []string{"manager"}, b.MissingImportant)
	assert.Empty(t, b.Violations)
	assert.True(t, b.RequiresManualReview())

	assertDecimal(t, "0.93", s.Score(sampleRecord(), "sec_10k"))
}

func TestScorePerfectRecord(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reliability["audited"] = dec("1")
	s, err := New(cfg)
	require.NoError(t, err)

	rec := sampleRecord()
	rec["manager"] = types.Text("Example Capital")

	got := s.Score(rec, "audited")
	assertDecimal(t, "1", got)
	assert.False(t, RequiresManualReview(got))
}

func TestScoreUnknownSourceUsesDefault(t *testing.T) {
	s := Default()

	b := s.Explain(types.Record{}, "unlisted_source")

	assertDecimal(t, "0.50", b.Reliability)
	assertDecimal(t, "0.20", b.SourceScore)
	assertDecimal(t, "0", b.RequiredScore)
	assertDecimal(t, "0", b.ImportantScore)
	assertDecimal(t, "0.10", b.ValidationScore, "absent fields never fail validation")
	assertDecimal(t, "0.30", b.Total)
}

func TestScoreRequiredFieldMonotonic(t *testing.T) {
	s := Default()

	with := sampleRecord()
	without := sampleRecord()
	delete(without, "name")

	assert.True(t, s.Score(without, "scraped_somewhere").LessThan(s.Score(with, "scraped_somewhere")))
}

func TestScoreFractionalCompleteness(t *testing.T) {
	s := Default()
	rec := types.Record{"name": types.Text("X"), "strategy": types.Text("Buyout")}

	b := s.Explain(rec, "web_scrape")

	assertDecimal(t, "0.2333333333333333", b.RequiredScore)
	assert.Equal(t, []string{"vintage_year"}, b.MissingRequired)
}

func TestScoreFalsyValuesAreMissing(t *testing.T) {
	s := Default()
	rec := types.Record{
		"name":          types.Text(""),
		"strategy":      types.Null(),
		"vintage_year":  types.Int(0),
		"fund_size_usd": types.Null(),
		"manager":       types.Text(""),
		"geography":     types.Bool(false),
	}

	b := s.Explain(rec, "sec_10k")

	assertDecimal(t, "0", b.RequiredScore)
	assertDecimal(t, "0", b.ImportantScore)
}

func TestScoreClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = types.ScoreWeights{
		Source:     dec("1"),
		Required:   dec("1"),
		Important:  dec("1"),
		Validation: dec("1"),
	}
	s, err := New(cfg)
	require.NoError(t, err)

	rec := sampleRecord()
	rec["manager"] = types.Text("M")
	assertDecimal(t, "1", s.Score(rec, "sec_10k"))

	zero := DefaultConfig()
	zero.Weights = types.ScoreWeights{}
	s, err = New(zero)
	require.NoError(t, err)
	assertDecimal(t, "0", s.Score(types.Record{}, "sec_10k"))
}

func TestScoreInUnitInterval(t *testing.T) {
	s := Default()
	records := []types.Record{
		{},
		sampleRecord(),
		{"vintage_year": types.Int(1800), "carry_pct": types.Text("lots")},
		{"name": types.Composite([]any{"a"}), "manager": types.Bool(true)},
	}
	sources := []string{"sec_10k", "web_scrape", "manual_unverified", "", "nope"}

	for _, rec := range records {
		for _, src := range sources {
			got := s.Score(rec, src)
			assert.False(t, got.IsNegative(), "score %s for %v/%s", got, rec, src)
			assert.True(t, got.LessThanOrEqual(one), "score %s for %v/%s", got, rec, src)
		}
	}
}

func TestScoreDeterministicUnderConcurrency(t *testing.T) {
	s := Default()
	want := s.Score(sampleRecord(), "calpers_holdings").String()

	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Score(sampleRecord(), "calpers_holdings").String()
		}()
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, want, got, "call %d", i)
	}
}

func TestViolations(t *testing.T) {
	s := Default()

	tests := []struct {
		name   string
		rec    types.Record
		fields []string
	}{
		{"all absent", types.Record{}, nil},
		{"all valid", sampleRecord(), nil},
		{"bounds inclusive", types.Record{
			"vintage_year":       types.Int(1990),
			"management_fee_pct": types.Int(5),
			"carry_pct":          types.Int(0),
		}, nil},
		{"vintage too old", types.Record{"vintage_year": types.Int(1989)}, []string{"vintage_year"}},
		{"vintage too new", types.Record{"vintage_year": types.Text("2031")}, []string{"vintage_year"}},
		{"zero fund size is absent", types.Record{"fund_size_usd": types.Int(0)}, nil},
		{"false carry is absent", types.Record{"carry_pct": types.Bool(false)}, nil},
		{"zero fund size text", types.Record{"fund_size_usd": types.Text("0")}, []string{"fund_size_usd"}},
		{"negative fund size", types.Record{"fund_size_usd": types.Float(-1.5)}, []string{"fund_size_usd"}},
		{"fee too high", types.Record{"management_fee_pct": types.Float(5.5)}, []string{"management_fee_pct"}},
		{"negative carry", types.Record{"carry_pct": types.Int(-1)}, []string{"carry_pct"}},
		{"carry too high", types.Record{"carry_pct": types.Text("60")}, []string{"carry_pct"}},
		{"non-numeric fee", types.Record{"management_fee_pct": types.Text("2%")}, []string{"management_fee_pct"}},
		{"huge fee exponent", types.Record{"management_fee_pct": types.Number(dec("1e400000000"))}, []string{"management_fee_pct"}},
		{"tiny carry exponent", types.Record{"carry_pct": types.Number(dec("1e-400000000"))}, []string{"carry_pct"}},
		{"huge fund size exponent text", types.Record{"fund_size_usd": types.Text("5e400000000")}, []string{"fund_size_usd"}},
		{"huge vintage exponent", types.Record{"vintage_year": types.Number(dec("2e400000000"))}, []string{"vintage_year"}},
		{"blank text is absent", types.Record{"carry_pct": types.Text("  ")}, nil},
		{"null is absent", types.Record{"vintage_year": types.Null()}, nil},
		{"several", types.Record{
			"vintage_year": types.Int(1900),
			"carry_pct":    types.Int(99),
		}, []string{"vintage_year", "carry_pct"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Violations(tt.rec)
			var fields []string
			for _, v := range got {
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Equal(t, len(tt.fields) == 0, s.PassesValidation(tt.rec))
		})
	}
}

func TestScoreHugeExponentsReturnPromptly(t *testing.T) {
	s := Default()
	rec := sampleRecord()
	rec["management_fee_pct"] = types.Number(dec("1e400000000"))
	rec["carry_pct"] = types.Number(dec("-1e-400000000"))
	rec["fund_size_usd"] = types.Number(dec("1e400000000"))
	rec["vintage_year"] = types.Number(dec("2020e-400000000"))

	done := make(chan Breakdown, 1)
	go func() { done <- s.Explain(rec, "sec_10k") }()

	select {
	case b := <-done:
		assert.Len(t, b.Violations, 4)
		assert.Equal(t, "magnitude out of range", b.Violations[0].Reason)
		assert.Equal(t, "1e400000000", b.Violations[1].Value, "rendered without expansion")
		assertDecimal(t, "0.83", b.Total)
	case <-time.After(5 * time.Second):
		t.Fatal("Explain did not return for huge exponents")
	}
}

func TestFailedValidationCostsWeight(t *testing.T) {
	s := Default()
	valid := sampleRecord()
	invalid := sampleRecord()
	invalid["carry_pct"] = types.Int(80)

	diff := s.Score(valid, "sec_10k").Sub(s.Score(invalid, "sec_10k"))
	assertDecimal(t, "0.10", diff)
}

func TestRequiresManualReview(t *testing.T) {
	assert.False(t, RequiresManualReview(dec("1.0")))
	assert.True(t, RequiresManualReview(dec("0.9999")))
	assert.True(t, RequiresManualReview(decimal.Zero))
}

func TestSources(t *testing.T) {
	s := Default()

	assert.True(t, s.KnownSource("sec_10k"))
	assert.False(t, s.KnownSource("blog_post"))
	require.NoError(t, s.RequireSource("web_scrape"))

	err := s.RequireSource("blog_post")
	require.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), "blog_post")

	sources := s.Sources()
	assert.Len(t, sources, 15)
	assert.IsIncreasing(t, sources)
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg)
	require.NoError(t, err)

	cfg.Reliability["sec_10k"] = dec("0.10")
	cfg.RequiredFields[0] = "something_else"

	assertDecimal(t, "0.95", s.Reliability("sec_10k"))
	assert.Equal(t, "name", s.Config().RequiredFields[0])
}
