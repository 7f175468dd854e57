// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest runs batches of raw fund records through normalization and
// scoring, and stores the records that clear the confidence threshold.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/fundscore/internal/fundstore"
	"github.com/pdiddy/fundscore/internal/normalize"
	"github.com/pdiddy/fundscore/internal/score"
	"github.com/pdiddy/fundscore/pkg/types"
)

const (
	defaultWorkers = 4

	// mixedSource labels the ingestion log of a batch whose records come
	// from more than one source.
	mixedSource = "mixed"
)

// DefaultMinConfidence is the acceptance threshold used when the
// configuration leaves it unset.
var DefaultMinConfidence = decimal.RequireFromString("0.90")

// Sink receives accepted funds and the audit log of each run.
// Insert returns an error wrapping fundstore.ErrDuplicate when a fund with
// the same identifier was stored before.
type Sink interface {
	Insert(ctx context.Context, f types.Fund) error
	LogIngestion(ctx context.Context, l types.IngestionLog) error
}

// Pipeline normalizes, scores and stores fund records.
type Pipeline struct {
	normalizer *normalize.Normalizer
	scorer     *score.Scorer
	sink       Sink
	cfg        types.IngestConfig
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

// New returns a Pipeline. A nil sink evaluates records without storing
// anything. Zero MinConfidence and Workers take their defaults. A
// DefaultSource missing from the scorer's reliability table is an error.
func New(n *normalize.Normalizer, s *score.Scorer, sink Sink, cfg types.IngestConfig, logger *slog.Logger) (*Pipeline, error) {
	if cfg.MinConfidence.IsZero() {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if !types.Bounded(cfg.MinConfidence) {
		return nil, errors.New("ingest: min confidence must be in [0,1], magnitude out of range")
	}
	if cfg.MinConfidence.IsNegative() || cfg.MinConfidence.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("ingest: min confidence must be in [0,1], got %s", cfg.MinConfidence)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.DefaultSource != "" {
		if err := s.RequireSource(cfg.DefaultSource); err != nil {
			return nil, fmt.Errorf("ingest: default source: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		normalizer: n,
		scorer:     s,
		sink:       sink,
		cfg:        cfg,
		log:        logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Outcome is the result of evaluating one raw record.
type Outcome struct {
	// Index is the position of the record in the input batch.
	Index int

	// Source is the source identifier the record was scored against.
	Source string

	// Record is the normalized record with its data_confidence_score set.
	Record types.Record

	Breakdown score.Breakdown
}

// Score returns the record's confidence score.
func (o Outcome) Score() decimal.Decimal {
	return o.Breakdown.Total
}

// Evaluate normalizes and scores recs concurrently. Outcomes are returned
// in input order. Input records are not modified.
func (p *Pipeline) Evaluate(ctx context.Context, recs []types.Record) ([]Outcome, error) {
	out := make([]Outcome, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, rec := range recs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = p.evaluate(i, rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) evaluate(i int, raw types.Record) Outcome {
	source := p.SourceOf(raw)
	rec := p.normalizer.Normalize(raw)
	b := p.scorer.Explain(rec, source)
	rec[types.FieldConfidence] = types.Decimal(b.Total)
	return Outcome{Index: i, Source: source, Record: rec, Breakdown: b}
}

// SourceOf returns the record's data_source field, or the configured
// default source when the field is missing or blank.
func (p *Pipeline) SourceOf(rec types.Record) string {
	if s, ok := rec.Get(types.FieldDataSource).Text(); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return p.cfg.DefaultSource
}

// Summary counts the outcomes of a run.
type Summary struct {
	Processed int `json:"processed" yaml:"processed"`
	Accepted  int `json:"accepted" yaml:"accepted"`
	Rejected  int `json:"rejected" yaml:"rejected"`
	Duplicate int `json:"duplicate" yaml:"duplicate"`
	Failed    int `json:"failed" yaml:"failed"`

	// ByStrategy counts accepted funds per canonical strategy. Funds with
	// no strategy are counted under "".
	ByStrategy map[string]int `json:"by_strategy" yaml:"by_strategy"`
}

// Status classifies the run for the ingestion log.
func (s Summary) Status() types.IngestionStatus {
	switch {
	case s.Failed == 0:
		return types.IngestionSuccess
	case s.Failed == s.Processed:
		return types.IngestionFailed
	default:
		return types.IngestionPartial
	}
}

// Run evaluates recs, stores every record scoring at least the minimum
// confidence, and writes one progress line per record to w followed by a
// summary. Duplicates and records that fail to convert or store are
// counted; they do not stop the run. Cancelling ctx stops the run and
// returns ctx.Err().
func (p *Pipeline) Run(ctx context.Context, recs []types.Record, w io.Writer) (Summary, error) {
	started := p.now()
	sum := Summary{ByStrategy: map[string]int{}}

	outcomes, err := p.Evaluate(ctx, recs)
	if err != nil {
		return sum, err
	}

	var failures []string
	for _, o := range outcomes {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Processed++
		label := recordLabel(o)

		if o.Score().LessThan(p.cfg.MinConfidence) {
			sum.Rejected++
			fmt.Fprintf(w, "rejected  %s: score %s below %s\n", label, o.Score().StringFixed(4), p.cfg.MinConfidence)
			p.log.Debug("record rejected", "record", o.Index, "source", o.Source, "score", o.Score().String(),
				"missing_required", o.Breakdown.MissingRequired, "violations", len(o.Breakdown.Violations))
			continue
		}

		f, err := p.fund(o)
		if err == nil && p.sink != nil {
			err = p.sink.Insert(ctx, f)
		}
		switch {
		case errors.Is(err, fundstore.ErrDuplicate):
			sum.Duplicate++
			fmt.Fprintf(w, "duplicate %s\n", label)
		case err != nil:
			sum.Failed++
			failures = append(failures, fmt.Sprintf("record %d: %v", o.Index, err))
			fmt.Fprintf(w, "failed    %s: %v\n", label, err)
			p.log.Warn("record failed", "record", o.Index, "error", err)
		default:
			sum.Accepted++
			sum.ByStrategy[f.Strategy]++
			fmt.Fprintf(w, "accepted  %s: score %s\n", label, o.Score().StringFixed(4))
		}
	}

	fmt.Fprintf(w, "\nprocessed: %d, accepted: %d, rejected: %d, duplicate: %d, failed: %d\n",
		sum.Processed, sum.Accepted, sum.Rejected, sum.Duplicate, sum.Failed)

	p.log.Info("ingestion complete",
		"processed", sum.Processed, "accepted", sum.Accepted, "rejected", sum.Rejected,
		"duplicate", sum.Duplicate, "failed", sum.Failed)

	if p.sink == nil {
		return sum, nil
	}
	entry := types.IngestionLog{
		ID:          p.newID(),
		Source:      p.batchSource(outcomes),
		StartedAt:   started,
		CompletedAt: p.now(),
		Status:      sum.Status(),
		Processed:   sum.Processed,
		Accepted:    sum.Accepted,
		Rejected:    sum.Rejected,
		Error:       strings.Join(failures, "; "),
	}
	if err := p.sink.LogIngestion(ctx, entry); err != nil {
		return sum, fmt.Errorf("ingest: %w", err)
	}
	return sum, nil
}

// batchSource names the source of a run: the single source shared by all
// records, or "mixed".
func (p *Pipeline) batchSource(outcomes []Outcome) string {
	if len(outcomes) == 0 {
		return p.cfg.DefaultSource
	}
	src := outcomes[0].Source
	for _, o := range outcomes[1:] {
		if o.Source != src {
			return mixedSource
		}
	}
	return src
}

func recordLabel(o Outcome) string {
	if name, ok := o.Record.Get(types.FieldName).Text(); ok && name != "" {
		return fmt.Sprintf("#%d %q", o.Index, name)
	}
	return fmt.Sprintf("#%d", o.Index)
}
