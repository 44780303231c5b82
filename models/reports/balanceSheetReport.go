package reports

import (
	"context"
	"time"

	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

type BalanceSheetLine struct {
	AccountId     int             `json:"account_id"`
	AccountCode   string          `json:"account_code"`
	AccountName   string          `json:"account_name"`
	AccountNameEn string          `json:"account_name_en"`
	Amount        decimal.Decimal `json:"amount"`
}

type BalanceSheetReport struct {
	AsOf             time.Time           `json:"as_of"`
	Assets           []*BalanceSheetLine `json:"assets"`
	Liabilities      []*BalanceSheetLine `json:"liabilities"`
	Equity           []*BalanceSheetLine `json:"equity"`
	TotalAssets      decimal.Decimal     `json:"total_assets"`
	TotalLiabilities decimal.Decimal     `json:"total_liabilities"`
	TotalEquity      decimal.Decimal     `json:"total_equity"`
	NetIncome        decimal.Decimal     `json:"net_income"`
	IsBalanced       bool                `json:"is_balanced"`
}

// GetBalanceSheetReport replays balances as of toDate. Revenue and
// expense accounts do not show as lines; their net folds into equity.
func GetBalanceSheetReport(ctx context.Context, toDate time.Time) (*BalanceSheetReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "balance_sheet", started, map[string]any{"to": toDate})

	cacheKey := "report:balance_sheet:" + utils.DateKey(toDate)
	var cached BalanceSheetReport
	if ok, _ := cacheGet(cacheKey, &cached); ok {
		return &cached, nil
	}

	rows, err := fetchAccountBalances(ctx, toDate)
	if err != nil {
		return nil, err
	}

	report := BuildBalanceSheetReport(toDate, rows)
	_ = cacheSet(cacheKey, report)
	return report, nil
}

// BuildBalanceSheetReport sorts replayed balances into the three
// sections in natural sign: assets keep the stored debit sign,
// liabilities and equity flip to their credit sign.
func BuildBalanceSheetReport(asOf time.Time, rows []AccountBalanceRow) *BalanceSheetReport {
	report := BalanceSheetReport{
		AsOf:        asOf,
		Assets:      []*BalanceSheetLine{},
		Liabilities: []*BalanceSheetLine{},
		Equity:      []*BalanceSheetLine{},
	}

	for _, row := range rows {
		line := BalanceSheetLine{
			AccountId:     row.AccountId,
			AccountCode:   row.Code,
			AccountName:   row.Name,
			AccountNameEn: row.NameEn,
		}
		switch row.AccountType {
		case models.AccountTypeAsset:
			line.Amount = row.Balance
			report.TotalAssets = report.TotalAssets.Add(line.Amount)
			report.Assets = append(report.Assets, &line)
		case models.AccountTypeLiability:
			line.Amount = row.Balance.Neg()
			report.TotalLiabilities = report.TotalLiabilities.Add(line.Amount)
			report.Liabilities = append(report.Liabilities, &line)
		case models.AccountTypeEquity:
			line.Amount = row.Balance.Neg()
			report.TotalEquity = report.TotalEquity.Add(line.Amount)
			report.Equity = append(report.Equity, &line)
		case models.AccountTypeRevenue, models.AccountTypeExpense:
			report.NetIncome = report.NetIncome.Sub(row.Balance)
		}
	}

	report.NetIncome = utils.RoundMoney(report.NetIncome)
	report.Equity = append(report.Equity, &BalanceSheetLine{
		AccountName:   "صافي الدخل",
		AccountNameEn: "Net Income",
		Amount:        report.NetIncome,
	})
	report.TotalEquity = report.TotalEquity.Add(report.NetIncome)

	report.TotalAssets = utils.RoundMoney(report.TotalAssets)
	report.TotalLiabilities = utils.RoundMoney(report.TotalLiabilities)
	report.TotalEquity = utils.RoundMoney(report.TotalEquity)
	report.IsBalanced = utils.IsWithinTolerance(
		report.TotalAssets.Sub(report.TotalLiabilities.Add(report.TotalEquity)))
	return &report
}
