package reports

import (
	"context"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

// BalanceTypeDebit and BalanceTypeCredit are the bilingual labels the
// ledger uses on statements and exports.
const (
	BalanceTypeDebit  = "مدين"
	BalanceTypeCredit = "دائن"
)

type TrialBalanceRow struct {
	AccountId     int    `json:"account_id"`
	AccountCode   string `json:"account_code"`
	AccountName   string `json:"account_name"`
	AccountNameEn string `json:"account_name_en"`
	AccountType   string `json:"account_type"`
	// balance carried into the period, replayed as of the day before from
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	// period activity within [from, to]
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
	BalanceType string          `json:"balance_type"`
}

type TrialBalanceReport struct {
	FromDate    time.Time          `json:"from_date"`
	ToDate      time.Time          `json:"to_date"`
	Rows        []*TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	IsBalanced  bool               `json:"is_balanced"`
}

// AccountBalanceRow is one account's replayed balance, the input shape
// of the balance sheet builder.
type AccountBalanceRow struct {
	AccountId   int
	Code        string
	Name        string
	NameEn      string
	AccountType models.AccountType
	Balance     decimal.Decimal
}

// AccountActivityRow is one account's opening balance plus the debit
// and credit totals of a period, the input shape of the trial balance
// builder.
type AccountActivityRow struct {
	AccountId    int
	Code         string
	Name         string
	NameEn       string
	AccountType  models.AccountType
	Opening      decimal.Decimal
	PeriodDebit  decimal.Decimal
	PeriodCredit decimal.Decimal
}

// GetTrialBalanceReport lists every active account's opening balance,
// period debit and credit totals over [fromDate, toDate], and the
// resulting balance laid out debit side against credit side.
func GetTrialBalanceReport(ctx context.Context, fromDate time.Time, toDate time.Time) (*TrialBalanceReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "trial_balance", started, map[string]any{"from": fromDate, "to": toDate})

	cacheKey := "report:trial_balance:" + utils.DateKey(fromDate) + ":" + utils.DateKey(toDate)
	var cached TrialBalanceReport
	if ok, _ := cacheGet(cacheKey, &cached); ok {
		return &cached, nil
	}

	rows, err := fetchAccountActivity(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	report := BuildTrialBalanceReport(fromDate, toDate, rows)
	_ = cacheSet(cacheKey, report)
	return report, nil
}

// BuildTrialBalanceReport is the pure half: balance = opening + period
// debit - period credit; a positive balance sits on the debit column, a
// negative one flips to credit.
func BuildTrialBalanceReport(fromDate time.Time, toDate time.Time, rows []AccountActivityRow) *TrialBalanceReport {
	report := TrialBalanceReport{FromDate: fromDate, ToDate: toDate, Rows: []*TrialBalanceRow{}}
	for _, row := range rows {
		balance := row.Opening.Add(row.PeriodDebit).Sub(row.PeriodCredit)
		out := TrialBalanceRow{
			AccountId:      row.AccountId,
			AccountCode:    row.Code,
			AccountName:    row.Name,
			AccountNameEn:  row.NameEn,
			AccountType:    string(row.AccountType),
			OpeningBalance: row.Opening,
			Debit:          row.PeriodDebit,
			Credit:         row.PeriodCredit,
			Balance:        balance,
		}
		if balance.IsNegative() {
			out.BalanceType = BalanceTypeCredit
			report.TotalCredit = report.TotalCredit.Add(balance.Abs())
		} else {
			out.BalanceType = BalanceTypeDebit
			report.TotalDebit = report.TotalDebit.Add(balance)
		}
		report.Rows = append(report.Rows, &out)
	}
	report.TotalDebit = utils.RoundMoney(report.TotalDebit)
	report.TotalCredit = utils.RoundMoney(report.TotalCredit)
	report.IsBalanced = utils.IsWithinTolerance(report.TotalDebit.Sub(report.TotalCredit))
	return &report
}

// fetchAccountActivity replays each account's opening balance up to the
// day before fromDate, then sums debit and credit activity within
// [fromDate, toDate], one row per account, ordered by code.
func fetchAccountActivity(ctx context.Context, fromDate time.Time, toDate time.Time) ([]AccountActivityRow, error) {
	db := config.GetDB()

	periodStart := utils.StartOfDay(fromDate)
	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			ac.id AS account_id,
			ac.code,
			ac.name,
			ac.name_en,
			ac.account_type,
			ac.opening_balance + COALESCE(pre.net, 0) AS opening,
			COALESCE(p.debit, 0) AS period_debit,
			COALESCE(p.credit, 0) AS period_credit
		FROM accounts AS ac
		LEFT JOIN (
			SELECT account_id,
				SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE -amount END) AS net
			FROM transactions
			WHERE status = ? AND transaction_date < ?
			GROUP BY account_id
		) AS pre ON pre.account_id = ac.id
		LEFT JOIN (
			SELECT account_id,
				SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE 0 END) AS debit,
				SUM(CASE WHEN entry_side = 'credit' THEN amount ELSE 0 END) AS credit
			FROM transactions
			WHERE status = ? AND transaction_date >= ? AND transaction_date <= ?
			GROUP BY account_id
		) AS p ON p.account_id = ac.id
		WHERE ac.is_active = true
		ORDER BY ac.code`,
		models.TransactionStatusActive, periodStart,
		models.TransactionStatusActive, periodStart, utils.EndOfDay(toDate)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AccountActivityRow
	for rows.Next() {
		var row AccountActivityRow
		if err := rows.Scan(&row.AccountId, &row.Code, &row.Name, &row.NameEn, &row.AccountType,
			&row.Opening, &row.PeriodDebit, &row.PeriodCredit); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchAccountBalances replays opening balance plus active transactions
// up to the end of toDate, one row per account, ordered by code. Used by
// the balance sheet.
func fetchAccountBalances(ctx context.Context, toDate time.Time) ([]AccountBalanceRow, error) {
	db := config.GetDB()

	rows, err := db.WithContext(ctx).Raw(`
		SELECT
			ac.id AS account_id,
			ac.code,
			ac.name,
			ac.name_en,
			ac.account_type,
			ac.opening_balance + COALESCE(t.net, 0) AS balance
		FROM accounts AS ac
		LEFT JOIN (
			SELECT account_id,
				SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE -amount END) AS net
			FROM transactions
			WHERE status = ? AND transaction_date <= ?
			GROUP BY account_id
		) AS t ON t.account_id = ac.id
		WHERE ac.is_active = true
		ORDER BY ac.code`,
		models.TransactionStatusActive, utils.EndOfDay(toDate)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []AccountBalanceRow
	for rows.Next() {
		var row AccountBalanceRow
		if err := rows.Scan(&row.AccountId, &row.Code, &row.Name, &row.NameEn, &row.AccountType, &row.Balance); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
