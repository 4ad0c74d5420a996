package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPaymentMethodFromSource(t *testing.T) {
	tests := []struct {
		source string
		want   PaymentMethod
	}{
		{"card", PaymentMethodCard},
		{"Credit Card", PaymentMethodCard},
		{"wallet", PaymentMethodMobileWallet},
		{"MOBILE_WALLET", PaymentMethodMobileWallet},
		{"cash_present", PaymentMethodCash},
		{"aman", PaymentMethodCash},
		{"", PaymentMethodCash},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, PaymentMethodFromSource(tt.source))
		})
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(15000), ToMinorUnits(decimal.RequireFromString("150.00")))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("9.995")))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "150.00", FormatMoney(decimal.NewFromInt(150)))
	assert.Equal(t, "0.50", FormatMoney(decimal.RequireFromString("0.5")))
	assert.Equal(t, "150.00", FormatMoney(FromMinorUnits(15000)))
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.True(t, OrderStatusPaid.IsTerminal())
	assert.True(t, OrderStatusFailed.IsTerminal())
	assert.Equal(t, "PAID", OrderStatusPaid.String())
}
