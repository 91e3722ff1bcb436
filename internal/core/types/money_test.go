package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name  string
		price string
		rate  string
		want  string
	}{
		{"no discount", "100", "0", "100"},
		{"employee discount", "100", "0.2", "80"},
		{"rounds to cents", "33.33", "0.2", "26.66"},
		{"fractional price", "12.5", "0.2", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(MustMoney(tt.price), decimal.RequireFromString(tt.rate))
			assert.True(t, MustMoney(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, MustMoney("150.50").Equal(Sum(MustMoney("100"), MustMoney("50.5"))))
}
