// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fundscore/internal/fundstore"
	"github.com/pdiddy/fundscore/internal/logging"
	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/pkg/types"
)

// --- test helpers ---

// memSink is an in-memory Sink.
type memSink struct {
	mu     sync.Mutex
	funds  map[string]types.Fund
	order  []string
	logs   []types.IngestionLog
	failOn string
}

func newMemSink() *memSink {
	return &memSink{funds: map[string]types.Fund{}}
}

func (m *memSink) Insert(_ context.Context, f types.Fund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.Identifier == m.failOn {
		return errors.New("disk full")
	}
	if _, ok := m.funds[f.Identifier]; ok {
		return fmt.Errorf("%w: %s", fundstore.ErrDuplicate, f.Identifier)
	}
	m.funds[f.Identifier] = f
	m.order = append(m.order, f.Identifier)
	return nil
}

func (m *memSink) LogIngestion(_ context.Context, l types.IngestionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func testPipeline(t *testing.T, sink Sink, cfg types.IngestConfig) *Pipeline {
	t.Helper()
	p, err := New(normalize.Default(), score.Default(), sink, cfg, logging.Discard())
	require.NoError(t, err)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	var n int
	var mu sync.Mutex
	p.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "id-" + strconv.Itoa(n)
	}
	return p
}

// rawFund returns a complete raw record. From sec_10k it scores 0.98.
func rawFund(name string, vintage int, source string) types.Record {
	return types.Record{
		"name":               types.Text(name + ", L.P."),
		"strategy":           types.Text("lbo"),
		"vintage_year":       types.Text(strconv.Itoa(vintage)),
		"fund_size_usd":      types.Text("$5B"),
		"geography":          types.Text("US"),
		"manager":            types.Text("Example Capital"),
		"management_fee_pct": types.Float(2),
		"carry_pct":          types.Int(20),
		"data_source":        types.Text(source),
	}
}

// --- constructor ---

func TestNewDefaults(t *testing.T) {
	p, err := New(normalize.Default(), score.Default(), nil, types.IngestConfig{}, nil)
	require.NoError(t, err)
	assert.True(t, p.cfg.MinConfidence.Equal(DefaultMinConfidence))
	assert.Equal(t, defaultWorkers, p.cfg.Workers)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(normalize.Default(), score.Default(), nil,
		types.IngestConfig{DefaultSource: "blog_post"}, nil)
	require.ErrorIs(t, err, score.ErrUnknownSource)

	_, err = New(normalize.Default(), score.Default(), nil,
		types.IngestConfig{MinConfidence: decimal.RequireFromString("1.5")}, nil)
	require.Error(t, err)

	_, err = New(normalize.Default(), score.Default(), nil,
		types.IngestConfig{MinConfidence: decimal.RequireFromString("1e-400000000")}, nil)
	require.ErrorContains(t, err, "magnitude out of range")
}

// --- evaluation ---

func TestEvaluatePreservesOrder(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{Workers: 3})
	s := score.Default()
	n := normalize.Default()

	var recs []types.Record
	sources := []string{"sec_10k", "web_scrape", "calpers_holdings", "unlisted"}
	for i := range 40 {
		rec := rawFund("Fund "+strconv.Itoa(i), 2000+i%25, sources[i%len(sources)])
		if i%3 == 0 {
			delete(rec, "manager")
		}
		recs = append(recs, rec)
	}

	outcomes, err := p.Evaluate(context.Background(), recs)
	require.NoError(t, err)
	require.Len(t, outcomes, len(recs))

	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		want := s.Score(n.Normalize(recs[i]), sources[i%len(sources)])
		assert.True(t, want.Equal(o.Score()), "record %d: got %s want %s", i, o.Score(), want)
		assert.True(t, o.Record.Get(types.FieldConfidence).Equal(types.Decimal(o.Score())))
	}
}

func TestEvaluateDoesNotModifyInput(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{})
	rec := rawFund("Example Fund IV", 2020, "sec_10k")
	before := rec.Clone()

	_, err := p.Evaluate(context.Background(), []types.Record{rec})
	require.NoError(t, err)
	assert.True(t, before.Equal(rec))
}

func TestSourceOf(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{DefaultSource: "manual_verified"})

	assert.Equal(t, "sec_10k", p.SourceOf(types.Record{"data_source": types.Text(" sec_10k ")}))
	assert.Equal(t, "manual_verified", p.SourceOf(types.Record{}))
	assert.Equal(t, "manual_verified", p.SourceOf(types.Record{"data_source": types.Text("  ")}))
	assert.Equal(t, "manual_verified", p.SourceOf(types.Record{"data_source": types.Int(7)}))
}

func TestEvaluateCancelled(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Evaluate(ctx, []types.Record{rawFund("A", 2020, "sec_10k")})
	require.ErrorIs(t, err, context.Canceled)
}

// --- runs ---

func TestRun(t *testing.T) {
	sink := newMemSink()
	p := testPipeline(t, sink, types.IngestConfig{})

	lowQuality := rawFund("Scraped Fund", 2019, "web_scrape")
	recs := []types.Record{
		rawFund("Example Fund IV", 2020, "sec_10k"),
		lowQuality,
		rawFund("Example Fund IV", 2020, "calpers_holdings"),
		rawFund("Growth Partners", 2021, "sec_form_d"),
	}
	recs[3]["strategy"] = types.Text("growth equity")

	var out bytes.Buffer
	sum, err := p.Run(context.Background(), recs, &out)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Processed: 4, Accepted: 2, Rejected: 1, Duplicate: 1,
		ByStrategy: map[string]int{"Buyout": 1, "Growth Equity": 1},
	}, sum)
	assert.Equal(t, types.IngestionSuccess, sum.Status())

	require.Equal(t, []string{"EXAMPLE_FUND_IV_2020", "GROWTH_PARTNERS_2021"}, sink.order)
	f := sink.funds["EXAMPLE_FUND_IV_2020"]
	assert.Equal(t, "Example Fund IV", f.Name)
	assert.Equal(t, 2020, *f.VintageYear)
	assert.Equal(t, "Buyout", f.Strategy)
	assert.Equal(t, "North America", f.Geography)
	assert.Equal(t, "5000000000", f.FundSizeUSD.Decimal.String())
	assert.True(t, f.CarryPct.Decimal.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "0.98", f.Confidence.String())
	assert.Equal(t, "sec_10k", f.DataSource)
	assert.NotEmpty(t, f.ID)

	require.Len(t, sink.logs, 1)
	l := sink.logs[0]
	assert.Equal(t, mixedSource, l.Source)
	assert.Equal(t, types.IngestionSuccess, l.Status)
	assert.Equal(t, 4, l.Processed)
	assert.Equal(t, 2, l.Accepted)
	assert.Equal(t, 1, l.Rejected)

	text := out.String()
	assert.Contains(t, text, `accepted  #0 "Example Fund IV": score 0.9800`)
	assert.Contains(t, text, `rejected  #1 "Scraped Fund"`)
	assert.Contains(t, text, `duplicate #2 "Example Fund IV"`)
	assert.Contains(t, text, "processed: 4, accepted: 2, rejected: 1, duplicate: 1, failed: 0")
}

func TestRunThresholdInclusive(t *testing.T) {
	sink := newMemSink()
	p := testPipeline(t, sink, types.IngestConfig{MinConfidence: decimal.RequireFromString("0.98")})

	sum, err := p.Run(context.Background(), []types.Record{rawFund("A", 2020, "sec_10k")}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Accepted, "a score equal to the threshold is accepted")
}

func TestRunFailures(t *testing.T) {
	sink := newMemSink()
	sink.failOn = "B_2020"
	p := testPipeline(t, sink, types.IngestConfig{MinConfidence: decimal.RequireFromString("0.5")})

	nameless := rawFund("", 2020, "sec_10k")
	nameless["name"] = types.Null()
	recs := []types.Record{
		rawFund("A", 2020, "sec_10k"),
		rawFund("B", 2020, "sec_10k"),
		nameless,
	}

	var out bytes.Buffer
	sum, err := p.Run(context.Background(), recs, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Accepted)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, types.IngestionPartial, sum.Status())

	require.Len(t, sink.logs, 1)
	assert.Equal(t, "sec_10k", sink.logs[0].Source)
	assert.Equal(t, types.IngestionPartial, sink.logs[0].Status)
	assert.Contains(t, sink.logs[0].Error, "disk full")
	assert.Contains(t, sink.logs[0].Error, ErrNoName.Error())
}

func TestRunDryRun(t *testing.T) {
	p := testPipeline(t, nil, types.IngestConfig{})

	sum, err := p.Run(context.Background(), []types.Record{
		rawFund("A", 2020, "sec_10k"),
		rawFund("A", 2020, "sec_10k"),
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Accepted, "without a sink nothing is deduplicated")
}

func TestRunCancelled(t *testing.T) {
	sink := newMemSink()
	p := testPipeline(t, sink, types.IngestConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, []types.Record{rawFund("A", 2020, "sec_10k")}, io.Discard)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.funds)
	assert.Empty(t, sink.logs)
}

func TestRunIntoFundStore(t *testing.T) {
	store, err := fundstore.NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p := testPipeline(t, store, types.IngestConfig{})
	recs := []types.Record{
		rawFund("Example Fund IV", 2020, "sec_10k"),
		rawFund("Example Fund IV", 2020, "sec_10k"),
	}

	sum, err := p.Run(context.Background(), recs, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Accepted)
	assert.Equal(t, 1, sum.Duplicate)

	f, err := store.Get(context.Background(), "EXAMPLE_FUND_IV_2020")
	require.NoError(t, err)
	assert.Equal(t, "0.98", f.Confidence.String())

	logs, err := store.IngestionLogs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].Accepted)
}

func TestSummaryStatus(t *testing.T) {
	assert.Equal(t, types.IngestionSuccess, Summary{}.Status())
	assert.Equal(t, types.IngestionSuccess, Summary{Processed: 3, Rejected: 3}.Status())
	assert.Equal(t, types.IngestionPartial, Summary{Processed: 3, Failed: 1}.Status())
	assert.Equal(t, types.IngestionFailed, Summary{Processed: 2, Failed: 2}.Status())
}

func TestIdentifier(t *testing.T) {
	y := 2020
	tests := []struct {
		name    string
		vintage *int
		want    string
	}{
		{"Example Fund IV", &y, "EXAMPLE_FUND_IV_2020"},
		{"Example Fund IV", nil, "EXAMPLE_FUND_IV"},
		{"  spaced   out ", &y, "SPACED_OUT_2020"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.name, tt.vintage))
		})
	}
}
