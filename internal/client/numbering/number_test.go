package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Number
		wantErr bool
	}{
		{in: "300", want: Number{Base: 300, Variant: VariantNone}},
		{in: "255/bis", want: Number{Base: 255, Variant: VariantBis}},
		{in: "302/generica", want: Number{Base: 302, Variant: VariantGenerica}},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "/bis", wantErr: true},
	}

	for _, tc := range tests {
		got, err := Parse(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidNumber, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestString_RoundTrip(t *testing.T) {
	for _, s := range []string{"300", "255/bis", "302/generica"} {
		n, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, s, n.String())
	}
}

func TestNextBase(t *testing.T) {
	existing := []string{"255/bis", "300", "302/generica", "abc"}
	assert.Equal(t, 303, NextBase(existing))
}

func TestNextBase_FloorOnEmptyArchive(t *testing.T) {
	assert.Equal(t, 256, NextBase(nil))
	assert.Equal(t, 256, NextBase([]string{"12", "abc"}))
}

func TestBis_ReusesBase(t *testing.T) {
	n, err := Parse("300")
	require.NoError(t, err)
	assert.Equal(t, "300/bis", n.Bis().String())
}
