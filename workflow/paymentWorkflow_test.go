package workflow

import (
	"testing"

	"github.com/daftarhq/daftar_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCustomerPaymentDelta(t *testing.T) {
	amount := decimal.NewFromInt(250)

	// collecting from a customer lowers what they owe
	assert.True(t, customerPaymentDelta(models.PaymentTypeReceipt, amount).Equal(amount.Neg()))
	// refunding a customer raises it back
	assert.True(t, customerPaymentDelta(models.PaymentTypePayment, amount).Equal(amount))
}

func TestSupplierPaymentDelta(t *testing.T) {
	amount := decimal.NewFromInt(180)

	// paying a supplier lowers what we owe
	assert.True(t, supplierPaymentDelta(models.PaymentTypePayment, amount).Equal(amount.Neg()))
	// a supplier refund raises it back
	assert.True(t, supplierPaymentDelta(models.PaymentTypeReceipt, amount).Equal(amount))
}

func TestPartyDeltasMirrorEachOther(t *testing.T) {
	amount := decimal.NewFromFloat(99.95)
	for _, pt := range []models.PaymentType{models.PaymentTypeReceipt, models.PaymentTypePayment} {
		sum := customerPaymentDelta(pt, amount).Add(supplierPaymentDelta(pt, amount))
		assert.True(t, sum.IsZero(), "customer and supplier deltas must be opposite for %s", pt)
	}
}
