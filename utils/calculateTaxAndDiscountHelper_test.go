package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestCalculateDiscountAmount(t *testing.T) {
	assert.True(t, CalculateDiscountAmount(d("200"), d("10")).Equal(d("20")))
	assert.True(t, CalculateDiscountAmount(d("200"), d("0")).Equal(decimal.Zero))
	assert.True(t, CalculateDiscountAmount(d("200"), d("-5")).Equal(decimal.Zero))
	// 4 decimal places on intermediates
	assert.True(t, CalculateDiscountAmount(d("99.99"), d("7.5")).Equal(d("7.4993")))
}

func TestCalculateTaxAmount(t *testing.T) {
	assert.True(t, CalculateTaxAmount(d("100"), d("15")).Equal(d("15")))
	assert.True(t, CalculateTaxAmount(d("100"), d("0")).Equal(decimal.Zero))
	assert.True(t, CalculateTaxAmount(d("180"), d("15")).Equal(d("27")))
}

func TestLineAmounts(t *testing.T) {
	// 10 units at 20.00, 10% discount, 15% VAT
	gross, discount, tax, total := LineAmounts(d("10"), d("20"), d("10"), d("15"))
	assert.True(t, gross.Equal(d("200")), "gross %s", gross)
	assert.True(t, discount.Equal(d("20")), "discount %s", discount)
	assert.True(t, tax.Equal(d("27")), "tax %s", tax)
	assert.True(t, total.Equal(d("207")), "total %s", total)
}

func TestLineAmountsNoModifiers(t *testing.T) {
	gross, discount, tax, total := LineAmounts(d("3"), d("9.99"), decimal.Zero, decimal.Zero)
	assert.True(t, gross.Equal(d("29.97")))
	assert.True(t, discount.IsZero())
	assert.True(t, tax.IsZero())
	assert.True(t, total.Equal(d("29.97")))
}

func TestLineAmountsRoundsStoredTotalOnly(t *testing.T) {
	// 1 unit at 10.00 with 33.333% discount: taxable 6.6667, total 6.67
	gross, discount, _, total := LineAmounts(d("1"), d("10"), d("33.333"), decimal.Zero)
	assert.True(t, gross.Equal(d("10")))
	assert.True(t, discount.Equal(d("3.3333")))
	assert.True(t, total.Equal(d("6.67")))
}
