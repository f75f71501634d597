package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already two decimals", "10.55", "10.55"},
		{"rounds half up", "10.555", "10.56"},
		{"rounds down", "10.554", "10.55"},
		{"integer stays", "100", "100"},
		{"negative", "-3.456", "-3.46"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round2(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestWithVAT(t *testing.T) {
	tests := []struct {
		name   string
		preTax string
		want   string
	}{
		{"round amount", "700", "826"},
		{"zero", "0", "0"},
		{"fractional", "100.50", "118.59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithVAT(MustMoney(tt.preTax))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("123.45")
	assert.NoError(t, err)
	assert.True(t, m.Equal(MustMoney("123.45")))

	_, err = NewMoneyFromString("not-a-number")
	assert.Error(t, err)
}

func TestMustMoney_PanicsOnGarbage(t *testing.T) {
	assert.Panics(t, func() { MustMoney("12,34") })
}

func TestSettlementConstants(t *testing.T) {
	// A residue of 0.009 settles, 0.01 does not.
	assert.True(t, MustMoney("0.009").LessThan(Cent))
	assert.False(t, MustMoney("0.01").LessThan(Cent))

	// A payment 0.50 short of the balance is inside the auto-round window.
	assert.True(t, MustMoney("0.50").LessThan(PaymentEpsilon))
	assert.False(t, MustMoney("1.00").LessThan(PaymentEpsilon))
}
