package reports

import (
	"context"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

type IncomeStatementLine struct {
	AccountId     int             `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	AccountNameEn string          `json:"account_name_en"`
	Amount        decimal.Decimal `json:"amount"`
}

type IncomeStatementReport struct {
	FromDate     time.Time              `json:"from_date"`
	ToDate       time.Time              `json:"to_date"`
	Revenue      []*IncomeStatementLine `json:"revenue"`
	Expenses     []*IncomeStatementLine `json:"expenses"`
	TotalRevenue decimal.Decimal        `json:"total_revenue"`
	TotalExpense decimal.Decimal        `json:"total_expense"`
	NetIncome    decimal.Decimal        `json:"net_income"`
}

// AccountPeriodRow is one revenue or expense account's debit minus
// credit inside the period. Opening balances stay out of it.
type AccountPeriodRow struct {
	AccountId   int
	Code        string
	Name        string
	NameEn      string
	AccountType models.AccountType
	Net         decimal.Decimal
}

// GetIncomeStatementReport sums revenue and expense movement between the
// two dates. Only period transactions count, never opening balances.
func GetIncomeStatementReport(ctx context.Context, fromDate time.Time, toDate time.Time) (*IncomeStatementReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "income_statement", started, map[string]any{"from": fromDate, "to": toDate})

	cacheKey := "report:income_statement:" + utils.DateKey(fromDate) + ":" + utils.DateKey(toDate)
	var cached IncomeStatementReport
	if ok, _ := cacheGet(cacheKey, &cached); ok {
		return &cached, nil
	}

	rows, err := fetchPeriodNets(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	report := BuildIncomeStatementReport(fromDate, toDate, rows)
	_ = cacheSet(cacheKey, report)
	return report, nil
}

// BuildIncomeStatementReport flips revenue to its credit sign and keeps
// expenses on their debit sign, so both columns read positive.
func BuildIncomeStatementReport(fromDate, toDate time.Time, rows []AccountPeriodRow) *IncomeStatementReport {
	report := IncomeStatementReport{
		FromDate: fromDate,
		ToDate:   toDate,
		Revenue:  []*IncomeStatementLine{},
		Expenses: []*IncomeStatementLine{},
	}
	for _, row := range rows {
		line := IncomeStatementLine{
			AccountId:     row.AccountId,
			AccountCode:   row.Code,
			AccountName:   row.Name,
			AccountNameEn: row.NameEn,
		}
		switch row.AccountType {
		case models.AccountTypeRevenue:
			line.Amount = row.Net.Neg()
			report.TotalRevenue = report.TotalRevenue.Add(line.Amount)
			report.Revenue = append(report.Revenue, &line)
		case models.AccountTypeExpense:
			line.Amount = row.Net
			report.TotalExpense = report.TotalExpense.Add(line.Amount)
			report.Expenses = append(report.Expenses, &line)
		}
	}
	report.TotalRevenue = utils.RoundMoney(report.TotalRevenue)
	report.TotalExpense = utils.RoundMoney(report.TotalExpense)
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpense)
	return &report
}

func fetchPeriodNets(ctx context.Context, fromDate time.Time, toDate time.Time) ([]AccountPeriodRow, error) {
	db := config.GetDB()

	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			ac.id AS account_id,
			ac.code,
			ac.name,
			ac.name_en,
			ac.account_type,
			COALESCE(SUM(CASE WHEN t.entry_side = 'debit' THEN t.amount ELSE -t.amount END), 0) AS net
		FROM accounts AS ac
		LEFT JOIN transactions AS t
			ON t.account_id = ac.id
			AND t.status = ?
			AND t.transaction_date >= ?
			AND t.transaction_date <= ?
		WHERE ac.account_type IN ('revenue', 'expense') AND ac.is_active = true
		GROUP BY ac.id, ac.code, ac.name, ac.name_en, ac.account_type
		ORDER BY ac.code`,
		models.TransactionStatusActive, utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AccountPeriodRow
	for rows.Next() {
		var row AccountPeriodRow
		if err := rows.Scan(&row.AccountId, &row.Code, &row.Name, &row.NameEn, &row.AccountType, &row.Net); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
