// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Field names with defined meaning in a fund record. Any other key is a
// pass-through field.
const (
	FieldName          = "name"
	FieldStrategy      = "strategy"
	FieldGeography     = "geography"
	FieldFundSize      = "fund_size_usd"
	FieldVintageYear   = "vintage_year"
	FieldManager       = "manager"
	FieldManagementFee = "management_fee_pct"
	FieldCarry         = "carry_pct"
	FieldSectorFocus   = "sector_focus"
	FieldCommitment    = "commitment_usd"
	FieldDataSource    = "data_source"
	FieldConfidence    = "data_confidence_score"
)

// Record is a fund record keyed by field name. Raw records arrive from
// sources in this shape; normalized records keep it, with canonical values
// (or Null for unknown) in the normalized fields.
type Record map[string]Value

// Get returns the value for field, or Null when the key is missing.
func (r Record) Get(field string) Value {
	return r[field]
}

// Has reports whether field is present as a key, whatever its value.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy. Values are immutable, so the copy shares
// nothing mutable with r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports whether r and o have the same keys with equal values.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
