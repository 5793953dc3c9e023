package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"12.5", "12.50", nil},
		{"-3", "-3.00", nil},
		{"9999999999.99", "9999999999.99", nil},
		{"-9999999999.99", "-9999999999.99", nil},
		{"10000000000.00", "", errOutOfRange},
		{"1.005", "", errTooPrecise},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMoney(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMoney_UnmarshalJSONRejectsOutOfRange(t *testing.T) {
	var m Money
	assert.ErrorIs(t, json.Unmarshal([]byte(`"10000000000"`), &m), errOutOfRange)
	assert.ErrorIs(t, json.Unmarshal([]byte(`10000000000`), &m), errOutOfRange)

	require.NoError(t, json.Unmarshal([]byte(`9999999999.99`), &m))
	assert.True(t, m.Equal(MaxMoney()))
}

func TestMoney_Storable(t *testing.T) {
	assert.True(t, MaxMoney().Storable())
	assert.False(t, MaxMoney().Add(MustMoney("0.01")).Storable())
	assert.False(t, ZeroMoney().Sub(MaxMoney()).Sub(MustMoney("0.01")).Storable())
}
