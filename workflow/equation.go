package workflow

import (
	"context"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

// EquationCheck is the result of replaying the whole ledger against the
// accounting equation. Liabilities, equity and net income are reported
// in their natural credit sign, so a healthy book reads
// assets = liabilities + equity + net_income with a difference inside
// the rounding tolerance.
type EquationCheck struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	NetIncome   decimal.Decimal `json:"net_income"`
	Difference  decimal.Decimal `json:"difference"`
	IsBalanced  bool            `json:"is_balanced"`
}

type typeBalanceRow struct {
	AccountType models.AccountType
	Balance     decimal.Decimal
}

// ValidateAccountingEquation replays active transactions over opening
// balances, grouped by account type. Cached balance columns are not
// consulted, which is exactly what makes this a useful health check.
func ValidateAccountingEquation(ctx context.Context) (*EquationCheck, error) {
	db := config.GetDB()

	var rows []typeBalanceRow
	err := db.WithContext(ctx).Model(&models.Account{}).
		Select(`accounts.account_type,
			COALESCE(SUM(accounts.opening_balance), 0) + COALESCE(SUM(t.net), 0) AS balance`).
		Joins(`LEFT JOIN (
			SELECT account_id,
				SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE -amount END) AS net
			FROM transactions
			WHERE status = ?
			GROUP BY account_id
		) t ON t.account_id = accounts.id`, models.TransactionStatusActive).
		Group("accounts.account_type").
		Scan(&rows).Error
	if err != nil {
		config.LogError(config.GetLogger(), "equation.go", "ValidateAccountingEquation", "Scan", nil, err)
		return nil, err
	}

	// stored sign: debit adds, credit subtracts, whatever the type
	byType := map[models.AccountType]decimal.Decimal{}
	for _, row := range rows {
		byType[row.AccountType] = row.Balance
	}

	check := EquationCheck{
		Assets:      byType[models.AccountTypeAsset],
		Liabilities: byType[models.AccountTypeLiability].Neg(),
		Equity:      byType[models.AccountTypeEquity].Neg(),
		NetIncome:   byType[models.AccountTypeRevenue].Neg().Sub(byType[models.AccountTypeExpense]),
	}
	check.Difference = check.Assets.Sub(check.Liabilities.Add(check.Equity).Add(check.NetIncome))
	check.IsBalanced = utils.IsWithinTolerance(check.Difference)
	return &check, nil
}
