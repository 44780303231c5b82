package reports

import (
	"testing"
	"time"

	"github.com/daftarhq/daftar_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

var asOf = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

func TestBuildTrialBalanceReport(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildTrialBalanceReport(from, asOf, []AccountActivityRow{
		{AccountId: 1, Code: "1100", Name: "الصندوق", AccountType: models.AccountTypeAsset,
			Opening: d("100"), PeriodDebit: d("30"), PeriodCredit: d("10")},
		{AccountId: 2, Code: "2100", Name: "الموردون", AccountType: models.AccountTypeLiability,
			Opening: d("-400"), PeriodDebit: d("10"), PeriodCredit: d("0")},
		{AccountId: 3, Code: "3100", Name: "رأس المال", AccountType: models.AccountTypeEquity,
			Opening: d("-600"), PeriodDebit: d("0"), PeriodCredit: d("30")},
	})

	require.Len(t, report.Rows, 3)
	cash := report.Rows[0]
	assert.True(t, cash.OpeningBalance.Equal(d("100")))
	assert.True(t, cash.Debit.Equal(d("30")))
	assert.True(t, cash.Credit.Equal(d("10")))
	// opening + period debit - period credit
	assert.True(t, cash.Balance.Equal(d("120")), "balance %s", cash.Balance)
	assert.Equal(t, BalanceTypeDebit, cash.BalanceType)

	suppliers := report.Rows[1]
	assert.True(t, suppliers.Balance.Equal(d("-390")))
	assert.Equal(t, BalanceTypeCredit, suppliers.BalanceType)

	assert.True(t, report.TotalDebit.Equal(d("120")))
	assert.True(t, report.TotalCredit.Equal(d("1020")))
	assert.Equal(t, from, report.FromDate)
	assert.Equal(t, asOf, report.ToDate)
}

func TestBuildTrialBalanceReportDetectsImbalance(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildTrialBalanceReport(from, asOf, []AccountActivityRow{
		{AccountId: 1, Code: "1100", AccountType: models.AccountTypeAsset, Opening: d("1000")},
		{AccountId: 2, Code: "2100", AccountType: models.AccountTypeLiability, Opening: d("-999.90")},
	})
	assert.False(t, report.IsBalanced)
}

func TestBuildTrialBalanceReportBalancedBooks(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildTrialBalanceReport(from, asOf, []AccountActivityRow{
		{AccountId: 1, Code: "1100", AccountType: models.AccountTypeAsset,
			Opening: d("1000"), PeriodDebit: d("250"), PeriodCredit: d("50")},
		{AccountId: 2, Code: "4100", AccountType: models.AccountTypeRevenue,
			Opening: d("-1000"), PeriodDebit: d("50"), PeriodCredit: d("250")},
	})
	assert.True(t, report.TotalDebit.Equal(d("1200")))
	assert.True(t, report.TotalCredit.Equal(d("1200")))
	assert.True(t, report.IsBalanced)
}

func TestBuildBalanceSheetFoldsNetIncomeIntoEquity(t *testing.T) {
	report := BuildBalanceSheetReport(asOf, []AccountBalanceRow{
		{AccountId: 1, Code: "1100", AccountType: models.AccountTypeAsset, Balance: d("1500")},
		{AccountId: 2, Code: "2100", AccountType: models.AccountTypeLiability, Balance: d("-400")},
		{AccountId: 3, Code: "3100", AccountType: models.AccountTypeEquity, Balance: d("-800")},
		{AccountId: 4, Code: "4100", AccountType: models.AccountTypeRevenue, Balance: d("-500")},
		{AccountId: 5, Code: "5100", AccountType: models.AccountTypeExpense, Balance: d("200")},
	})

	// revenue 500 - expense 200
	assert.True(t, report.NetIncome.Equal(d("300")), "net income %s", report.NetIncome)

	// revenue and expense accounts never appear as lines
	assert.Len(t, report.Assets, 1)
	assert.Len(t, report.Liabilities, 1)
	require.Len(t, report.Equity, 2)
	assert.Equal(t, "Net Income", report.Equity[1].AccountNameEn)

	assert.True(t, report.TotalAssets.Equal(d("1500")))
	assert.True(t, report.TotalLiabilities.Equal(d("400")))
	assert.True(t, report.TotalEquity.Equal(d("1100")))
	assert.True(t, report.IsBalanced)
}

func TestBuildIncomeStatementSigns(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	report := BuildIncomeStatementReport(from, asOf, []AccountPeriodRow{
		{AccountId: 4, Code: "4100", AccountType: models.AccountTypeRevenue, Net: d("-900")},
		{AccountId: 5, Code: "5100", AccountType: models.AccountTypeExpense, Net: d("350")},
		{AccountId: 6, Code: "5200", AccountType: models.AccountTypeExpense, Net: d("150")},
	})

	require.Len(t, report.Revenue, 1)
	assert.True(t, report.Revenue[0].Amount.Equal(d("900")))
	require.Len(t, report.Expenses, 2)
	assert.True(t, report.TotalExpense.Equal(d("500")))
	assert.True(t, report.NetIncome.Equal(d("400")))
}

func TestBuildAccountStatementRunningBalance(t *testing.T) {
	account := &models.Account{ID: 7, Code: "1100", Name: "الصندوق"}
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	report := BuildAccountStatement(account, from, asOf, d("250"), []*models.Transaction{
		{Number: "TRN-20260302-0001", TransactionDate: from.AddDate(0, 0, 1), EntrySide: models.EntrySideDebit, Amount: d("100")},
		{Number: "TRN-20260305-0001", TransactionDate: from.AddDate(0, 0, 4), EntrySide: models.EntrySideCredit, Amount: d("30")},
	})

	assert.True(t, report.OpeningBalance.Equal(d("250")))
	require.Len(t, report.Lines, 2)
	assert.True(t, report.Lines[0].RunningBalance.Equal(d("350")))
	assert.True(t, report.Lines[1].RunningBalance.Equal(d("320")))
	assert.True(t, report.ClosingBalance.Equal(d("320")))
	assert.True(t, report.TotalDebit.Equal(d("100")))
	assert.True(t, report.TotalCredit.Equal(d("30")))
}

func TestBuildCustomerStatementSortsAndRuns(t *testing.T) {
	customer := &models.Customer{ID: 3, Name: "شركة النور"}
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// deliberately out of order
	report := BuildCustomerStatement(customer, from, asOf, d("0"), []CustomerDocRow{
		{Date: from.AddDate(0, 0, 10), Number: "PAY-20260311-0001", DocType: "receipt", Credit: d("400")},
		{Date: from.AddDate(0, 0, 2), Number: "INV-20260303-0001", DocType: "invoice", Debit: d("1000")},
		{Date: from.AddDate(0, 0, 20), Number: "PAY-20260321-0001", DocType: "receipt", Credit: d("600")},
	})

	require.Len(t, report.Lines, 3)
	assert.Equal(t, "INV-20260303-0001", report.Lines[0].Number)
	assert.True(t, report.Lines[0].RunningBalance.Equal(d("1000")))
	assert.True(t, report.Lines[1].RunningBalance.Equal(d("600")))
	assert.True(t, report.Lines[2].RunningBalance.IsZero())
	assert.True(t, report.ClosingBalance.IsZero())
}

func TestBuildCustomerStatementSameDayOrdersByNumber(t *testing.T) {
	customer := &models.Customer{ID: 3, Name: "شركة النور"}
	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	report := BuildCustomerStatement(customer, day, day, d("100"), []CustomerDocRow{
		{Date: day, Number: "PAY-20260305-0002", DocType: "receipt", Credit: d("50")},
		{Date: day, Number: "INV-20260305-0001", DocType: "invoice", Debit: d("200")},
	})

	require.Len(t, report.Lines, 2)
	assert.Equal(t, "INV-20260305-0001", report.Lines[0].Number)
	assert.True(t, report.ClosingBalance.Equal(d("250")))
}
