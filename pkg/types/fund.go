// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is an accepted, normalized fund record as persisted by the store.
type Fund struct {
	// ID is a random UUID assigned at acceptance.
	ID string `json:"id" yaml:"id"`

	// Identifier is the deduplication key derived from name and vintage year
	// (e.g. "EXAMPLE_FUND_IV_2020").
	Identifier string `json:"identifier" yaml:"identifier"`

	Name        string `json:"name" yaml:"name"`
	VintageYear *int   `json:"vintage_year,omitempty" yaml:"vintage_year,omitempty"`
	Strategy    string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Geography   string `json:"geography,omitempty" yaml:"geography,omitempty"`
	SectorFocus string `json:"sector_focus,omitempty" yaml:"sector_focus,omitempty"`
	Manager     string `json:"manager,omitempty" yaml:"manager,omitempty"`

	FundSizeUSD      decimal.NullDecimal `json:"fund_size_usd" yaml:"-"`
	ManagementFeePct decimal.NullDecimal `json:"management_fee_pct" yaml:"-"`
	CarryPct         decimal.NullDecimal `json:"carry_pct" yaml:"-"`
	CommitmentUSD    decimal.NullDecimal `json:"commitment_usd" yaml:"-"`

	// Confidence is the score the record had when it was accepted.
	Confidence decimal.Decimal `json:"data_confidence_score" yaml:"data_confidence_score"`

	// DataSource is the source identifier the record was scored against.
	DataSource string `json:"data_source" yaml:"data_source"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// IngestionStatus summarizes the outcome of an ingestion run.
type IngestionStatus string

const (
	IngestionSuccess IngestionStatus = "success"
	IngestionPartial IngestionStatus = "partial"
	IngestionFailed  IngestionStatus = "failed"
)

// IngestionLog is the audit row written at the end of an ingestion run.
type IngestionLog struct {
	ID          string          `json:"id" yaml:"id"`
	Source      string          `json:"source" yaml:"source"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time       `json:"completed_at" yaml:"completed_at"`
	Status      IngestionStatus `json:"status" yaml:"status"`
	Processed   int             `json:"records_processed" yaml:"records_processed"`
	Accepted    int             `json:"records_accepted" yaml:"records_accepted"`
	Rejected    int             `json:"records_rejected" yaml:"records_rejected"`
	Error       string          `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}
