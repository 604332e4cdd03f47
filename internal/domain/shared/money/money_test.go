package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		cents   int64
		wantErr bool
	}{
		{in: "150", cents: 15000},
		{in: "150.5", cents: 15050},
		{in: "150.55", cents: 15055},
		{in: ".5", cents: 50},
		{in: "-12.30", cents: -1230},
		{in: "150.555", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "+7", cents: 700},
		{in: "1.", wantErr: true},
		{in: "+-5", wantErr: true},
		{in: "--5", wantErr: true},
		{in: "1.+5", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cents, m.Cents)
		})
	}
}

func TestArithmeticAndFormatting(t *testing.T) {
	m := Must("99.99")
	assert.Equal(t, "199.98", m.Multiply(2).String())
	assert.Equal(t, "100.00", m.Add(FromCents(1)).String())
	assert.Equal(t, "-0.01", FromCents(0).Sub(FromCents(1)).String())
	assert.Equal(t, "33.33", FromUnits(100).Div(3).String())
	assert.True(t, FromCents(1).Less(FromCents(2)))
}

func TestJSONAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 120.5, "b": "80.25"}`), &v))
	assert.Equal(t, int64(12050), v.A.Cents)
	assert.Equal(t, int64(8025), v.B.Cents)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":120.50,"b":80.25}`, string(raw))
}
