package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

type StatementLine struct {
	Date           time.Time       `json:"date"`
	Number         string          `json:"number"`
	Description    string          `json:"description"`
	Reference      string          `json:"reference"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type AccountStatementReport struct {
	AccountId      int              `json:"account_id"`
	AccountCode    string           `json:"account_code"`
	AccountName    string           `json:"account_name"`
	FromDate       time.Time        `json:"from_date"`
	ToDate         time.Time        `json:"to_date"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	Lines          []*StatementLine `json:"lines"`
	ClosingBalance decimal.Decimal  `json:"closing_balance"`
	TotalDebit     decimal.Decimal  `json:"total_debit"`
	TotalCredit    decimal.Decimal  `json:"total_credit"`
}

// GetAccountStatement builds a running statement for one account. The
// opening balance is replayed from everything before the period, so the
// statement closes on the same number GetAccountBalance would give at
// the period end.
func GetAccountStatement(ctx context.Context, accountId int, fromDate time.Time, toDate time.Time) (*AccountStatementReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "account_statement", started, map[string]any{"account": accountId})

	cacheKey := fmt.Sprintf("report:account_statement:%d:%s:%s", accountId, utils.DateKey(fromDate), utils.DateKey(toDate))
	var cached AccountStatementReport
	if ok, _ := cacheGet(cacheKey, &cached); ok {
		return &cached, nil
	}

	account, err := utils.FetchModel[models.Account](ctx, accountId)
	if err != nil {
		return nil, err
	}

	opening, err := replayOpeningBalance(ctx, account, fromDate)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var transactions []*models.Transaction
	err = db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountId, models.TransactionStatusActive).
		Where("transaction_date >= ? AND transaction_date <= ?", utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).
		Order("transaction_date, id").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	report := BuildAccountStatement(account, fromDate, toDate, opening, transactions)
	_ = cacheSet(cacheKey, report)
	return report, nil
}

// BuildAccountStatement is the pure half: walk the rows and carry a
// running balance, debit up, credit down.
func BuildAccountStatement(account *models.Account, fromDate, toDate time.Time, opening decimal.Decimal, transactions []*models.Transaction) *AccountStatementReport {
	report := AccountStatementReport{
		AccountId:      account.ID,
		AccountCode:    account.Code,
		AccountName:    account.Name,
		FromDate:       fromDate,
		ToDate:         toDate,
		OpeningBalance: opening,
		Lines:          []*StatementLine{},
	}

	running := opening
	for _, t := range transactions {
		line := StatementLine{
			Date:        t.TransactionDate,
			Number:      t.Number,
			Description: t.Description,
			Reference:   t.ReferenceNumber,
		}
		if t.EntrySide == models.EntrySideDebit {
			line.Debit = t.Amount
			running = running.Add(t.Amount)
		} else {
			line.Credit = t.Amount
			running = running.Sub(t.Amount)
		}
		line.RunningBalance = running
		report.TotalDebit = report.TotalDebit.Add(line.Debit)
		report.TotalCredit = report.TotalCredit.Add(line.Credit)
		report.Lines = append(report.Lines, &line)
	}

	report.TotalDebit = utils.RoundMoney(report.TotalDebit)
	report.TotalCredit = utils.RoundMoney(report.TotalCredit)
	report.ClosingBalance = running
	return &report
}

func replayOpeningBalance(ctx context.Context, account *models.Account, fromDate time.Time) (decimal.Decimal, error) {
	db := config.GetDB()
	var sums struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	err := db.WithContext(ctx).Model(&models.Transaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE 0 END), 0) AS debit,
			COALESCE(SUM(CASE WHEN entry_side = 'credit' THEN amount ELSE 0 END), 0) AS credit`).
		Where("account_id = ? AND status = ?", account.ID, models.TransactionStatusActive).
		Where("transaction_date < ?", utils.StartOfDay(fromDate)).
		Scan(&sums).Error
	if err != nil {
		return decimal.Zero, err
	}
	return account.OpeningBalance.Add(sums.Debit).Sub(sums.Credit), nil
}
