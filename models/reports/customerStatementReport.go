package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

// CustomerDocRow is one statement-worthy document: an invoice debits the
// customer, a receipt credits them.
type CustomerDocRow struct {
	Date        time.Time       `json:"date"`
	Number      string          `json:"number"`
	DocType     string          `json:"doc_type"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type CustomerStatementLine struct {
	CustomerDocRow
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type CustomerStatementReport struct {
	CustomerId     int                      `json:"customer_id"`
	CustomerName   string                   `json:"customer_name"`
	FromDate       time.Time                `json:"from_date"`
	ToDate         time.Time                `json:"to_date"`
	OpeningBalance decimal.Decimal          `json:"opening_balance"`
	Lines          []*CustomerStatementLine `json:"lines"`
	ClosingBalance decimal.Decimal          `json:"closing_balance"`
	TotalDebit     decimal.Decimal          `json:"total_debit"`
	TotalCredit    decimal.Decimal          `json:"total_credit"`
}

// GetCustomerStatement merges the customer's invoices and receipts into
// one dated run. The opening balance is replayed from every document
// before the period rather than read off the cached customer balance.
func GetCustomerStatement(ctx context.Context, customerId int, fromDate time.Time, toDate time.Time) (*CustomerStatementReport, error) {
	started := time.Now()
	defer logSlowReport(ctx, "customer_statement", started, map[string]any{"customer": customerId})

	cacheKey := fmt.Sprintf("report:customer_statement:%d:%s:%s", customerId, utils.DateKey(fromDate), utils.DateKey(toDate))
	var cached CustomerStatementReport
	if ok, _ := cacheGet(cacheKey, &cached); ok {
		return &cached, nil
	}

	customer, err := utils.FetchModel[models.Customer](ctx, customerId)
	if err != nil {
		return nil, err
	}

	opening, err := replayCustomerOpening(ctx, customerId, fromDate)
	if err != nil {
		return nil, err
	}

	docs, err := fetchCustomerDocs(ctx, customerId, &fromDate, &toDate)
	if err != nil {
		return nil, err
	}

	report := BuildCustomerStatement(customer, fromDate, toDate, opening, docs)
	_ = cacheSet(cacheKey, report)
	return report, nil
}

// BuildCustomerStatement sorts the documents by date then number and
// carries the running balance: what the customer owes goes up with
// invoices and down with receipts.
func BuildCustomerStatement(customer *models.Customer, fromDate, toDate time.Time, opening decimal.Decimal, docs []CustomerDocRow) *CustomerStatementReport {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Number < docs[j].Number
		}
		return docs[i].Date.Before(docs[j].Date)
	})

	report := CustomerStatementReport{
		CustomerId:     customer.ID,
		CustomerName:   customer.Name,
		FromDate:       fromDate,
		ToDate:         toDate,
		OpeningBalance: opening,
		Lines:          []*CustomerStatementLine{},
	}

	running := opening
	for _, doc := range docs {
		running = running.Add(doc.Debit).Sub(doc.Credit)
		report.TotalDebit = report.TotalDebit.Add(doc.Debit)
		report.TotalCredit = report.TotalCredit.Add(doc.Credit)
		report.Lines = append(report.Lines, &CustomerStatementLine{
			CustomerDocRow: doc,
			RunningBalance: running,
		})
	}

	report.TotalDebit = utils.RoundMoney(report.TotalDebit)
	report.TotalCredit = utils.RoundMoney(report.TotalCredit)
	report.ClosingBalance = running
	return &report
}

func fetchCustomerDocs(ctx context.Context, customerId int, fromDate *time.Time, toDate *time.Time) ([]CustomerDocRow, error) {
	db := config.GetDB()
	var docs []CustomerDocRow

	invCtx := db.WithContext(ctx).Model(&models.Invoice{}).
		Where("customer_id = ? AND invoice_type = ?", customerId, models.InvoiceTypeSales).
		Where("status NOT IN ?", []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusCancelled})
	payCtx := db.WithContext(ctx).Model(&models.Payment{}).
		Where("customer_id = ? AND payment_type = ?", customerId, models.PaymentTypeReceipt)
	if fromDate != nil {
		invCtx = invCtx.Where("invoice_date >= ?", utils.StartOfDay(*fromDate))
		payCtx = payCtx.Where("payment_date >= ?", utils.StartOfDay(*fromDate))
	}
	if toDate != nil {
		invCtx = invCtx.Where("invoice_date <= ?", utils.EndOfDay(*toDate))
		payCtx = payCtx.Where("payment_date <= ?", utils.EndOfDay(*toDate))
	}

	var invoices []*models.Invoice
	if err := invCtx.Find(&invoices).Error; err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		docs = append(docs, CustomerDocRow{
			Date:        inv.InvoiceDate,
			Number:      inv.Number,
			DocType:     "invoice",
			Description: inv.Notes,
			Debit:       inv.NetAmount,
		})
	}

	var payments []*models.Payment
	if err := payCtx.Find(&payments).Error; err != nil {
		return nil, err
	}
	for _, pay := range payments {
		docs = append(docs, CustomerDocRow{
			Date:        pay.PaymentDate,
			Number:      pay.Number,
			DocType:     "receipt",
			Description: pay.Notes,
			Credit:      pay.Amount,
		})
	}
	return docs, nil
}

// pre-period invoices minus receipts make the opening figure
func replayCustomerOpening(ctx context.Context, customerId int, fromDate time.Time) (decimal.Decimal, error) {
	db := config.GetDB()
	boundary := utils.StartOfDay(fromDate)

	var invoiced decimal.Decimal
	err := db.WithContext(ctx).Model(&models.Invoice{}).
		Select("COALESCE(SUM(net_amount), 0)").
		Where("customer_id = ? AND invoice_type = ?", customerId, models.InvoiceTypeSales).
		Where("status NOT IN ?", []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusCancelled}).
		Where("invoice_date < ?", boundary).
		Scan(&invoiced).Error
	if err != nil {
		return decimal.Zero, err
	}

	var received decimal.Decimal
	err = db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("customer_id = ? AND payment_type = ?", customerId, models.PaymentTypeReceipt).
		Where("payment_date < ?", boundary).
		Scan(&received).Error
	if err != nil {
		return decimal.Zero, err
	}
	return invoiced.Sub(received), nil
}
