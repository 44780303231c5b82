package utils

import (
	"github.com/shopspring/decimal"
)

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateDiscountAmount applies a percentage discount to a line subtotal.
func CalculateDiscountAmount(subTotal decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return subTotal.Mul(discountPercent).DivRound(decimalOneHundred, 4)
}

// CalculateTaxAmount applies a percentage tax to an already-discounted amount.
func CalculateTaxAmount(taxableAmount decimal.Decimal, taxPercent decimal.Decimal) decimal.Decimal {
	if taxPercent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return taxableAmount.Mul(taxPercent).DivRound(decimalOneHundred, 4)
}

// LineAmounts works out one invoice line: gross, discount, tax and net.
// Intermediates keep 4 decimal places; the stored total is rounded to 2.
func LineAmounts(qty, unitPrice, discountPercent, taxPercent decimal.Decimal) (gross, discount, tax, total decimal.Decimal) {
	gross = qty.Mul(unitPrice)
	discount = CalculateDiscountAmount(gross, discountPercent)
	taxable := gross.Sub(discount)
	tax = CalculateTaxAmount(taxable, taxPercent)
	total = RoundMoney(taxable.Add(tax))
	return gross, discount, tax, total
}
