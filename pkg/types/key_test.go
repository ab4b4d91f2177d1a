package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantNumeric bool
		wantText    string
		wantErr     error
	}{
		{name: "integer", in: "1547", wantNumeric: true, wantText: "1547"},
		{name: "decimal", in: "45.0", wantNumeric: true, wantText: "45.0"},
		{name: "trimmed", in: " 2000 ", wantNumeric: true, wantText: "2000"},
		{name: "exponent", in: "3.7e-07", wantNumeric: true, wantText: "3.7e-07"},
		{name: "text", in: "Bi214_wire_surface_50M.root", wantText: "Bi214_wire_surface_50M.root"},
		{name: "nan is text", in: "NaN", wantText: "NaN"},
		{name: "inf is text", in: "inf", wantText: "inf"},
		{name: "empty", in: "", wantErr: ErrInvalidKey},
		{name: "blank", in: "   ", wantErr: ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKey(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumeric, k.Numeric())
			assert.Equal(t, tt.wantText, k.String())
		})
	}
}

func TestKeyEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1547", "1547", true},
		{"1547", "1547.0", true},
		{"45", "45.00", true},
		{"1547", "1548", false},
		{"sim.root", "sim.root", true},
		{"sim.root", "Sim.root", false},
		{"1547", "run_1547", false},
	}

	for _, tt := range tests {
		t.Run(tt.a+"="+tt.b, func(t *testing.T) {
			a, err := ParseKey(tt.a)
			require.NoError(t, err)
			b, err := ParseKey(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Equal(b))
			assert.Equal(t, tt.want, b.Equal(a))
		})
	}
}

func TestKeyCompare(t *testing.T) {
	mustKey := func(s string) Key {
		k, err := ParseKey(s)
		require.NoError(t, err)
		return k
	}

	assert.Equal(t, -1, mustKey("1547").Compare(mustKey("1800")))
	assert.Equal(t, 1, mustKey("2000").Compare(mustKey("1800")))
	assert.Equal(t, 0, mustKey("1547").Compare(mustKey("1547.0")))
	assert.Equal(t, -1, mustKey("9").Compare(mustKey("10")), "numeric, not lexicographic")
	assert.Equal(t, -1, mustKey("99999").Compare(mustKey("alpha")), "numeric keys sort first")
	assert.Equal(t, 1, mustKey("beta").Compare(mustKey("1")))
	assert.Equal(t, -1, mustKey("alpha").Compare(mustKey("beta")))
}
