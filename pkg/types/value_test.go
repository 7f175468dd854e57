// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func TestBounded(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"2020", true},
		{"0.000000000000000000000000000001", true},
		{"123456789012345678901234567890123456789", true},
		{"1e30", true},
		{"1e31", false},
		{"1e400000000", false},
		{"-1e400000000", false},
		{"1e-31", true},
		{"1e-32", false},
		{"1e-400000000", false},
		{"2020e-400000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Bounded(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestHugeExponentRendering(t *testing.T) {
	v := Number(decimal.RequireFromString("1e400000000"))

	assert.Equal(t, "1e400000000", v.String())
	assert.True(t, v.Truthy())

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "1e400000000", string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, v.Equal(back))
	assert.False(t, v.Equal(Number(decimal.RequireFromString("1e399999999"))))

	out, err := yaml.Marshal(map[string]Value{"fee": Number(decimal.RequireFromString("-25e-400000000"))})
	require.NoError(t, err)
	assert.Contains(t, string(out), "-25e-400000000")
}
