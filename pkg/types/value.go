// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"
	"go.yaml.in/yaml/v3"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	// KindNull is an absent or explicitly unknown value. It is the zero Kind,
	// so the zero Value is Null.
	KindNull Kind = iota

	// KindText is a string as delivered by a source.
	KindText

	// KindNumber is a numeric literal from a loosely typed source (JSON or
	// YAML number, Go int or float). Normalization still validates it.
	KindNumber

	// KindDecimal is an exact decimal produced by normalization. The
	// normalizer returns it unchanged.
	KindDecimal

	// KindBool is a boolean literal.
	KindBool

	// KindComposite is a list or mapping passed through untouched.
	KindComposite
)

var kindNames = [...]string{
	KindNull:      "null",
	KindText:      "text",
	KindNumber:    "number",
	KindDecimal:   "decimal",
	KindBool:      "bool",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a single loosely typed field of a fund record. It is a closed
// tagged union; switch on Kind to branch over every variant.
type Value struct {
	kind  Kind
	text  string
	num   decimal.Decimal
	flag  bool
	other any
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a loosely typed numeric value.
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

// Int returns a numeric value holding i.
func Int(i int64) Value { return Number(decimal.NewFromInt(i)) }

// Float returns a numeric value holding f. NaN and infinities have no
// decimal representation and yield Null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	return Number(decimal.NewFromFloat(f))
}

// Decimal returns an exact decimal value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, num: d} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Composite wraps a decoded list or mapping.
func Composite(x any) Value {
	if x == nil {
		return Null()
	}
	return Value{kind: KindComposite, other: x}
}

// Kind reports the populated variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string and true when v is a text value.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// Num returns the decimal and true when v is a number or decimal value.
func (v Value) Num() (decimal.Decimal, bool) {
	if v.kind == KindNumber || v.kind == KindDecimal {
		return v.num, true
	}
	return decimal.Zero, false
}

// MaxExponent bounds the decimal exponent of numbers that are compared or
// rendered in plain notation. Comparing two decimals rescales them to a
// common exponent, which costs time in the exponent and not in the digits.
const MaxExponent = 30

// Bounded reports whether d can be compared and rendered in time
// proportional to its digits: its exponent is at most MaxExponent and at
// least -(digits+MaxExponent). Numbers such as 1e400000000 are not bounded.
func Bounded(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	return exp <= MaxExponent && exp >= -(d.NumDigits()+MaxExponent)
}

// formatNum renders d in plain notation, or as coefficient and exponent
// ("1e400000000") when d is not bounded.
func formatNum(d decimal.Decimal) string {
	if Bounded(d) {
		return d.String()
	}
	return d.Coefficient().String() + "e" + strconv.Itoa(int(d.Exponent()))
}

// String renders v as plain text. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber, KindDecimal:
		return formatNum(v.num)
	case KindBool:
		if v.flag {
			return "true"
		}
		return "false"
	case KindComposite:
		data, err := json.Marshal(v.other)
		if err != nil {
			return fmt.Sprint(v.other)
		}
		return string(data)
	default:
		return ""
	}
}

// Truthy reports whether v carries information: Null, empty text, numeric
// zero, false and empty composites are not truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindText:
		return v.text != ""
	case KindNumber, KindDecimal:
		return !v.num.IsZero()
	case KindBool:
		return v.flag
	case KindComposite:
		rv := reflect.ValueOf(v.other)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return rv.Len() > 0
		}
		return true
	default:
		return false
	}
}

// Equal reports whether v and o hold the same variant and content. Bounded
// numeric values compare by value, so 1.50 equals 1.5; others compare by
// representation.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber, KindDecimal:
		if !Bounded(v.num) || !Bounded(o.num) {
			return v.num.Exponent() == o.num.Exponent() && v.num.Coefficient().Cmp(o.num.Coefficient()) == 0
		}
		return v.num.Equal(o.num)
	case KindBool:
		return v.flag == o.flag
	case KindComposite:
		return reflect.DeepEqual(v.other, o.other)
	default:
		return true
	}
}

// MarshalJSON encodes numbers as bare JSON numbers with their exact digits.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber, KindDecimal:
		return []byte(formatNum(v.num)), nil
	case KindBool:
		return json.Marshal(v.flag)
	case KindComposite:
		return json.Marshal(v.other)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value. Numbers keep their literal digits.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case 'n':
		*v = Null()
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		var x any
		if err := json.Unmarshal(data, &x); err != nil {
			return err
		}
		*v = Composite(x)
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("parsing JSON number %s: %w", data, err)
		}
		*v = Number(d)
	}
	return nil
}

// MarshalYAML encodes numbers as int or float scalars with their exact digits.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindText:
		return v.text, nil
	case KindNumber, KindDecimal:
		tag := "!!float"
		if Bounded(v.num) && v.num.IsInteger() {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: formatNum(v.num)}, nil
	case KindBool:
		return v.flag, nil
	case KindComposite:
		return v.other, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML decodes any YAML node. Numeric scalars that do not parse as
// decimals (hex, .inf) are kept as text.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.AliasNode:
		return v.UnmarshalYAML(node.Alias)
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			*v = Null()
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
		case "!!int", "!!float":
			d, err := decimal.NewFromString(node.Value)
			if err != nil {
				*v = Text(node.Value)
				return nil
			}
			*v = Number(d)
		default:
			*v = Text(node.Value)
		}
	default:
		var x any
		if err := node.Decode(&x); err != nil {
			return err
		}
		*v = Composite(x)
	}
	return nil
}
