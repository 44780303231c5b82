package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentInvoice(net string) *Invoice {
	return &Invoice{
		NetAmount: d(net),
		Status:    InvoiceStatusSent,
	}
}

func TestBuildInvoiceItems(t *testing.T) {
	items, total, discount, tax, net := BuildInvoiceItems([]NewInvoiceItem{
		{Quantity: d("10"), UnitPrice: d("20"), DiscountPercent: d("10"), TaxPercent: d("15")},
		{Quantity: d("2"), UnitPrice: d("50")},
	})
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].LineNo)
	assert.Equal(t, 2, items[1].LineNo)
	assert.True(t, items[0].Total.Equal(d("207")), "line 1 total %s", items[0].Total)
	assert.True(t, items[1].Total.Equal(d("100")))

	assert.True(t, total.Equal(d("300")), "total %s", total)
	assert.True(t, discount.Equal(d("20")))
	assert.True(t, tax.Equal(d("27")))
	// net = total - discount + tax
	assert.True(t, net.Equal(d("307")), "net %s", net)
}

func TestSettlementConvergesOverPartialPayments(t *testing.T) {
	inv := sentInvoice("1000")

	inv.ApplyPayment(d("400"))
	assert.Equal(t, InvoiceStatusPartiallyPaid, inv.Status)
	assert.True(t, inv.RemainingAmount().Equal(d("600")))

	inv.ApplyPayment(d("600"))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.RemainingAmount().IsZero())
}

func TestSettlementToleranceClosesInvoice(t *testing.T) {
	inv := sentInvoice("100.00")
	inv.ApplyPayment(d("99.99"))
	// one halala short still counts as settled
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
}

func TestOverpaymentAllowedAndStaysPaid(t *testing.T) {
	inv := sentInvoice("500")
	inv.ApplyPayment(d("650"))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.RemainingAmount().Equal(d("-150")))
}

func TestRefreshSettlementStatusGrid(t *testing.T) {
	cases := []struct {
		name   string
		status InvoiceStatus
		net    string
		paid   string
		want   InvoiceStatus
	}{
		{"untouched sent", InvoiceStatusSent, "100", "0", InvoiceStatusSent},
		{"partial", InvoiceStatusSent, "100", "40", InvoiceStatusPartiallyPaid},
		{"exact", InvoiceStatusSent, "100", "100", InvoiceStatusPaid},
		{"overdue partial", InvoiceStatusOverdue, "100", "40", InvoiceStatusPartiallyPaid},
		{"overdue settled", InvoiceStatusOverdue, "100", "100", InvoiceStatusPaid},
		{"draft untouched", InvoiceStatusDraft, "100", "100", InvoiceStatusDraft},
		{"cancelled untouched", InvoiceStatusCancelled, "100", "100", InvoiceStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &Invoice{
				NetAmount:  d(tc.net),
				PaidAmount: d(tc.paid),
				Status:     tc.status,
			}
			inv.RefreshSettlementStatus()
			assert.Equal(t, tc.want, inv.Status)
		})
	}
}

func TestRemainingAmountGoesNegativeOnOverpayment(t *testing.T) {
	inv := &Invoice{NetAmount: d("80"), PaidAmount: d("100")}
	assert.True(t, inv.RemainingAmount().Equal(d("-20")))
}

func TestZeroNetInvoiceSettlesImmediately(t *testing.T) {
	inv := sentInvoice("0")
	inv.RefreshSettlementStatus()
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, decimal.Zero.Equal(inv.RemainingAmount()))
}
