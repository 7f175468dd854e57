// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pdiddy/fundscore/pkg/types"
)

// ErrNoName is returned when an accepted record has no name to derive an
// identifier from.
var ErrNoName = errors.New("record has no name")

// Identifier returns the deduplication key of a fund: the upper-cased name
// with spaces replaced by underscores, followed by the vintage year when
// known. Identifier("Example Fund IV", 2020) is "EXAMPLE_FUND_IV_2020".
func Identifier(name string, vintage *int) string {
	id := strings.ToUpper(strings.Join(strings.Fields(name), "_"))
	if vintage != nil {
		id += "_" + strconv.Itoa(*vintage)
	}
	return id
}

// fund converts an accepted outcome to a Fund.
func (p *Pipeline) fund(o Outcome) (types.Fund, error) {
	rec := o.Record
	name := textField(rec, types.FieldName)
	if name == "" {
		return types.Fund{}, ErrNoName
	}

	f := types.Fund{
		ID:               p.newID(),
		Name:             name,
		VintageYear:      intField(rec, types.FieldVintageYear),
		Strategy:         textField(rec, types.FieldStrategy),
		Geography:        textField(rec, types.FieldGeography),
		SectorFocus:      textField(rec, types.FieldSectorFocus),
		Manager:          textField(rec, types.FieldManager),
		FundSizeUSD:      decimalField(rec, types.FieldFundSize),
		ManagementFeePct: decimalField(rec, types.FieldManagementFee),
		CarryPct:         decimalField(rec, types.FieldCarry),
		CommitmentUSD:    decimalField(rec, types.FieldCommitment),
		Confidence:       o.Score(),
		DataSource:       o.Source,
		CreatedAt:        p.now(),
	}
	f.Identifier = Identifier(f.Name, f.VintageYear)
	return f, nil
}

func textField(rec types.Record, field string) string {
	v := rec.Get(field)
	switch v.Kind() {
	case types.KindNull, types.KindComposite:
		return ""
	}
	return strings.TrimSpace(v.String())
}

var (
	minInt = decimal.NewFromInt(math.MinInt32)
	maxInt = decimal.NewFromInt(math.MaxInt32)
)

// intField returns the integer part of field, or nil when the value is
// absent, not numeric or outside the int32 range.
func intField(rec types.Record, field string) *int {
	d := decimalField(rec, field)
	if !d.Valid || d.Decimal.LessThan(minInt) || d.Decimal.GreaterThan(maxInt) {
		return nil
	}
	y := int(d.Decimal.IntPart())
	return &y
}

// decimalField returns the numeric value of field. Text is parsed; values
// that are absent, not numeric or not types.Bounded are null.
func decimalField(rec types.Record, field string) decimal.NullDecimal {
	v := rec.Get(field)
	d, ok := v.Num()
	if !ok {
		s, isText := v.Text()
		if !isText {
			return decimal.NullDecimal{}
		}
		var err error
		if d, err = decimal.NewFromString(strings.TrimSpace(s)); err != nil {
			return decimal.NullDecimal{}
		}
	}
	if !types.Bounded(d) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
