// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fundstore persists accepted fund records and ingestion audit logs
// in a SQLite database under <data-dir>/index/funds.db.
package fundstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "funds.db"

	defaultMaxResults = 50

	// timeLayout is fixed-width so stored timestamps sort chronologically
	// as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

var (
	// ErrDuplicate is returned by Insert when a fund with the same
	// identifier is already stored.
	ErrDuplicate = errors.New("duplicate fund")

	// ErrNotFound is returned when no fund matches the lookup.
	ErrNotFound = errors.New("fund not found")
)

// Store manages the fund SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the fund database at dataDir/index/funds.db.
// It creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, indexDir, dbFile)
}

// Decimal columns are TEXT so stored values keep their exact digits;
// queries compare them with CAST(... AS REAL).
func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS funds (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			vintage_year INTEGER,
			strategy TEXT,
			geography TEXT,
			sector_focus TEXT,
			manager TEXT,
			fund_size_usd TEXT,
			management_fee_pct TEXT,
			carry_pct TEXT,
			commitment_usd TEXT,
			data_confidence_score TEXT NOT NULL,
			data_source TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_funds_strategy ON funds(strategy)`,
		`CREATE INDEX IF NOT EXISTS idx_funds_geography ON funds(geography)`,
		`CREATE INDEX IF NOT EXISTS idx_funds_vintage ON funds(vintage_year)`,
		`CREATE TABLE IF NOT EXISTS ingestion_logs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			status TEXT NOT NULL,
			records_processed INTEGER NOT NULL,
			records_accepted INTEGER NOT NULL,
			records_rejected INTEGER NOT NULL,
			error_message TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Insert stores f. It returns ErrDuplicate when a fund with the same
// identifier already exists; the stored fund is left unchanged.
func (s *Store) Insert(ctx context.Context, f types.Fund) error {
	var vintage sql.NullInt64
	if f.VintageYear != nil {
		vintage = sql.NullInt64{Int64: int64(*f.VintageYear), Valid: true}
	}
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO funds (id, identifier, name, vintage_year, strategy, geography,
			sector_focus, manager, fund_size_usd, management_fee_pct, carry_pct,
			commitment_usd, data_confidence_score, data_source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier) DO NOTHING`,
		f.ID, f.Identifier, f.Name, vintage,
		nullString(f.Strategy), nullString(f.Geography),
		nullString(f.SectorFocus), nullString(f.Manager),
		f.FundSizeUSD, f.ManagementFeePct, f.CarryPct, f.CommitmentUSD,
		f.Confidence.String(), f.DataSource,
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("inserting fund %s: %w", f.Identifier, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting fund %s: %w", f.Identifier, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, f.Identifier)
	}
	return nil
}

// Get returns the fund with the given identifier.
func (s *Store) Get(ctx context.Context, identifier string) (types.Fund, error) {
	row := s.db.QueryRowContext(ctx, selectFunds+` WHERE identifier = ?`, identifier)
	f, err := scanFund(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Fund{}, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	if err != nil {
		return types.Fund{}, fmt.Errorf("reading fund %s: %w", identifier, err)
	}
	return f, nil
}

const selectFunds = `SELECT id, identifier, name, vintage_year, strategy, geography,
	sector_focus, manager, fund_size_usd, management_fee_pct, carry_pct,
	commitment_usd, data_confidence_score, data_source, created_at
	FROM funds`

type scanner interface {
	Scan(dest ...any) error
}

func scanFund(row scanner) (types.Fund, error) {
	var (
		f         types.Fund
		vintage   sql.NullInt64
		strategy  sql.NullString
		geography sql.NullString
		sector    sql.NullString
		manager   sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&f.ID, &f.Identifier, &f.Name, &vintage, &strategy, &geography,
		&sector, &manager, &f.FundSizeUSD, &f.ManagementFeePct, &f.CarryPct,
		&f.CommitmentUSD, &f.Confidence, &f.DataSource, &createdAt,
	); err != nil {
		return types.Fund{}, err
	}

	if vintage.Valid {
		y := int(vintage.Int64)
		f.VintageYear = &y
	}
	f.Strategy = strategy.String
	f.Geography = geography.String
	f.SectorFocus = sector.String
	f.Manager = manager.String

	t, err := parseTime(createdAt)
	if err != nil {
		return types.Fund{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	f.CreatedAt = t
	return f, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a timestamp written by formatTime.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// LogIngestion writes the audit row of an ingestion run.
func (s *Store) LogIngestion(ctx context.Context, l types.IngestionLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_logs (id, source, started_at, completed_at, status,
			records_processed, records_accepted, records_rejected, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Source,
		formatTime(l.StartedAt),
		formatTime(l.CompletedAt),
		string(l.Status), l.Processed, l.Accepted, l.Rejected,
		nullString(l.Error),
	)
	if err != nil {
		return fmt.Errorf("writing ingestion log: %w", err)
	}
	return nil
}

// IngestionLogs returns the most recent ingestion logs, newest first.
// A limit of zero uses the store default.
func (s *Store) IngestionLogs(ctx context.Context, limit int) ([]types.IngestionLog, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, completed_at, status,
			records_processed, records_accepted, records_rejected, error_message
		 FROM ingestion_logs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingestion logs: %w", err)
	}
	defer rows.Close()

	var logs []types.IngestionLog
	for rows.Next() {
		var (
			l                  types.IngestionLog
			started, completed string
			status             string
			errMsg             sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Source, &started, &completed, &status,
			&l.Processed, &l.Accepted, &l.Rejected, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning ingestion log: %w", err)
		}
		if l.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if l.CompletedAt, err = parseTime(completed); err != nil {
			return nil, fmt.Errorf("parsing completed_at %q: %w", completed, err)
		}
		l.Status = types.IngestionStatus(status)
		l.Error = errMsg.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// realArg converts a decimal filter bound for comparison against a
// CAST(... AS REAL) column.
func realArg(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
