// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fundstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/pkg/types"
)

// ListOptions filters and pages fund listings. Zero values do not filter.
type ListOptions struct {
	// MinConfidence keeps funds scoring at least this much.
	MinConfidence decimal.Decimal

	// Strategy and Geography match the canonical label exactly.
	Strategy  string
	Geography string

	// VintageYear keeps funds of one vintage.
	VintageYear int

	// MinSize and MaxSize bound fund_size_usd inclusively. Funds with no
	// size are excluded when either bound is set.
	MinSize decimal.Decimal
	MaxSize decimal.Decimal

	// Search keeps funds whose name, manager or identifier contains the
	// text, case-insensitively.
	Search string

	// Limit caps the result count. Zero uses the store default.
	Limit  int
	Offset int
}

// where renders the filter clause and its arguments.
func (o ListOptions) where() (string, []any) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(` WHERE 1=1`)

	if !o.MinConfidence.IsZero() {
		qb.WriteString(` AND CAST(data_confidence_score AS REAL) >= ?`)
		args = append(args, realArg(o.MinConfidence))
	}
	if o.Strategy != "" {
		qb.WriteString(` AND strategy = ?`)
		args = append(args, o.Strategy)
	}
	if o.Geography != "" {
		qb.WriteString(` AND geography = ?`)
		args = append(args, o.Geography)
	}
	if o.VintageYear != 0 {
		qb.WriteString(` AND vintage_year = ?`)
		args = append(args, o.VintageYear)
	}
	if !o.MinSize.IsZero() {
		qb.WriteString(` AND CAST(fund_size_usd AS REAL) >= ?`)
		args = append(args, realArg(o.MinSize))
	}
	if !o.MaxSize.IsZero() {
		qb.WriteString(` AND CAST(fund_size_usd AS REAL) <= ?`)
		args = append(args, realArg(o.MaxSize))
	}
	if o.Search != "" {
		qb.WriteString(` AND (instr(lower(name), lower(?)) > 0
			OR instr(lower(coalesce(manager, '')), lower(?)) > 0
			OR instr(lower(identifier), lower(?)) > 0)`)
		args = append(args, o.Search, o.Search, o.Search)
	}
	return qb.String(), args
}

// List returns the funds matching opts, largest fund first. Funds without
// a size sort last; ties break on identifier.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]types.Fund, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	where, args := opts.where()
	query := selectFunds + where +
		` ORDER BY fund_size_usd IS NULL, CAST(fund_size_usd AS REAL) DESC, identifier
		  LIMIT ? OFFSET ?`
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying funds: %w", err)
	}
	defer rows.Close()

	var funds []types.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fund: %w", err)
		}
		funds = append(funds, f)
	}
	return funds, rows.Err()
}

// Count returns the number of funds matching opts, ignoring paging.
func (s *Store) Count(ctx context.Context, opts ListOptions) (int, error) {
	where, args := opts.where()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM funds`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting funds: %w", err)
	}
	return n, nil
}

// StrategyStats aggregates the funds of one strategy. Averages are rounded
// to 16 places and are zero when no fund of the strategy reports the field.
type StrategyStats struct {
	Funds     int             `json:"funds" yaml:"funds"`
	TotalSize decimal.Decimal `json:"total_size_usd" yaml:"total_size_usd"`
	AvgFee    decimal.Decimal `json:"avg_management_fee_pct" yaml:"avg_management_fee_pct"`
	AvgCarry  decimal.Decimal `json:"avg_carry_pct" yaml:"avg_carry_pct"`
}

// Stats summarizes the stored funds.
type Stats struct {
	Funds         int                      `json:"funds" yaml:"funds"`
	AvgConfidence decimal.Decimal          `json:"avg_confidence" yaml:"avg_confidence"`
	TotalSize     decimal.Decimal          `json:"total_size_usd" yaml:"total_size_usd"`
	ByStrategy    map[string]StrategyStats `json:"by_strategy" yaml:"by_strategy"`
	ByGeography   map[string]int           `json:"by_geography" yaml:"by_geography"`
	ByVintage     map[int]int              `json:"by_vintage" yaml:"by_vintage"`
}

const avgPrecision = 16

// mean accumulates an exact decimal average.
type mean struct {
	sum decimal.Decimal
	n   int64
}

func (m *mean) add(d decimal.NullDecimal) {
	if d.Valid {
		m.sum = m.sum.Add(d.Decimal)
		m.n++
	}
}

func (m mean) value() decimal.Decimal {
	if m.n == 0 {
		return decimal.Zero
	}
	return m.sum.DivRound(decimal.NewFromInt(m.n), avgPrecision)
}

// Stats aggregates the stored funds overall, per strategy, per geography
// and per vintage year. Funds without a strategy or geography are grouped
// under ""; funds without a vintage under 0. Sums are exact.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByStrategy:  map[string]StrategyStats{},
		ByGeography: map[string]int{},
		ByVintage:   map[int]int{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT coalesce(strategy, ''), coalesce(geography, ''), coalesce(vintage_year, 0),
			fund_size_usd, management_fee_pct, carry_pct, data_confidence_score
		 FROM funds`)
	if err != nil {
		return Stats{}, fmt.Errorf("summarizing funds: %w", err)
	}
	defer rows.Close()

	var (
		confidence mean
		fees       = map[string]*mean{}
		carries    = map[string]*mean{}
	)
	for rows.Next() {
		var (
			strategy, geography string
			vintage             int
			size, fee, carry    decimal.NullDecimal
			score               decimal.Decimal
		)
		if err := rows.Scan(&strategy, &geography, &vintage, &size, &fee, &carry, &score); err != nil {
			return Stats{}, fmt.Errorf("scanning fund summary: %w", err)
		}

		st.Funds++
		confidence.add(decimal.NewNullDecimal(score))
		st.ByGeography[geography]++
		st.ByVintage[vintage]++

		ss := st.ByStrategy[strategy]
		ss.Funds++
		if size.Valid {
			ss.TotalSize = ss.TotalSize.Add(size.Decimal)
			st.TotalSize = st.TotalSize.Add(size.Decimal)
		}
		st.ByStrategy[strategy] = ss

		if fees[strategy] == nil {
			fees[strategy], carries[strategy] = &mean{}, &mean{}
		}
		fees[strategy].add(fee)
		carries[strategy].add(carry)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("summarizing funds: %w", err)
	}

	st.AvgConfidence = confidence.value()
	for strategy, ss := range st.ByStrategy {
		ss.AvgFee = fees[strategy].value()
		ss.AvgCarry = carries[strategy].value()
		st.ByStrategy[strategy] = ss
	}
	return st, nil
}
