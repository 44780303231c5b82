package workflow

import (
	"context"
	"fmt"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/models/reports"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ConfirmInvoice moves a draft invoice into the books: stock shifts on
// every product line, sales lines get their cost rows in the ledger, and
// the customer or supplier balance takes the net amount. All of it runs
// in one transaction under the posting lock, so a stock shortfall rolls
// everything back.
func ConfirmInvoice(ctx context.Context, invoiceId int, actorId int) (*models.Invoice, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	var invoice models.Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx); err != nil {
			config.LogError(logger, "invoiceWorkflow.go", "ConfirmInvoice", "AcquirePostingLock", invoiceId, err)
			return err
		}
		defer ReleasePostingLock(tx)

		if err := tx.Preload("Items").First(&invoice, invoiceId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if invoice.Status != models.InvoiceStatusDraft {
			return utils.ErrorInvalidStatef("invoice %s is %s, only drafts can be confirmed", invoice.Number, invoice.Status)
		}
		before := invoice

		for _, item := range invoice.Items {
			if item.ProductId == nil || *item.ProductId <= 0 {
				continue
			}
			if err := applyItemStockAndCost(tx, logger, &invoice, item, actorId); err != nil {
				return err
			}
		}

		if err := applyInvoicePartyBalance(tx, &invoice); err != nil {
			return err
		}

		invoice.Status = models.InvoiceStatusSent
		if err := tx.Model(&invoice).Update("status", models.InvoiceStatusSent).Error; err != nil {
			return err
		}
		return models.RecordAuditLog(tx, actorId, models.AuditActionUpdate, "invoices", invoice.ID, &before, &invoice)
	})
	if err != nil {
		return nil, err
	}
	_ = reports.InvalidateReportCache()
	return &invoice, nil
}

// CancelInvoice withdraws a draft before it touched stock or balances.
func CancelInvoice(ctx context.Context, invoiceId int, actorId int) (*models.Invoice, error) {
	db := config.GetDB()

	var invoice models.Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&invoice, invoiceId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if invoice.Status != models.InvoiceStatusDraft {
			return utils.ErrorInvalidStatef("invoice %s is %s, only drafts can be cancelled", invoice.Number, invoice.Status)
		}
		before := invoice
		invoice.Status = models.InvoiceStatusCancelled
		if err := tx.Model(&invoice).Update("status", models.InvoiceStatusCancelled).Error; err != nil {
			return err
		}
		return models.RecordAuditLog(tx, actorId, models.AuditActionCancel, "invoices", invoice.ID, &before, &invoice)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Sales ship stock out and book its cost (debit cogs, credit inventory
// at purchase price). Purchases bring stock in; their cost lives in the
// invoice itself.
func applyItemStockAndCost(tx *gorm.DB, logger *logrus.Logger, invoice *models.Invoice, item models.InvoiceItem, actorId int) error {
	var product models.Product
	if err := tx.First(&product, *item.ProductId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	if invoice.InvoiceType == models.InvoiceTypePurchase {
		return models.ApplyStockDelta(tx, product.ID, item.Quantity)
	}

	if err := models.ApplyStockDelta(tx, product.ID, item.Quantity.Neg()); err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "applyItemStockAndCost", "ApplyStockDelta", item, err)
		return err
	}

	cost := utils.RoundMoney(product.PurchasePrice.Mul(item.Quantity))
	if cost.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	rows := []models.Transaction{
		{
			Number:    fmt.Sprintf("%s-COGS-%d", invoice.Number, item.LineNo),
			AccountId: product.CogsAccountId,
			EntrySide: models.EntrySideDebit,
		},
		{
			Number:    fmt.Sprintf("%s-STK-%d", invoice.Number, item.LineNo),
			AccountId: product.InventoryAccountId,
			EntrySide: models.EntrySideCredit,
		},
	}
	for _, row := range rows {
		row.DateKey = invoice.DateKey
		row.SequenceNo = invoice.SequenceNo
		row.TransactionDate = invoice.InvoiceDate
		row.Amount = cost
		row.Description = "cost of goods for " + product.Name
		row.ReferenceNumber = invoice.Number
		row.Status = models.TransactionStatusActive
		row.CreatedBy = actorId
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := models.ApplyBalanceDelta(tx, row.AccountId, row.EntrySide, cost); err != nil {
			return err
		}
		_ = utils.RemoveRedisItem[models.Account](row.AccountId)
	}
	return nil
}

// the invoice net lands on the party ledger: customers owe more after a
// sale, we owe suppliers more after a purchase
func applyInvoicePartyBalance(tx *gorm.DB, invoice *models.Invoice) error {
	if invoice.InvoiceType == models.InvoiceTypeSales && invoice.CustomerId != nil {
		return models.ApplyCustomerBalanceDelta(tx, *invoice.CustomerId, invoice.NetAmount)
	}
	if invoice.InvoiceType == models.InvoiceTypePurchase && invoice.SupplierId != nil {
		return models.ApplySupplierBalanceDelta(tx, *invoice.SupplierId, invoice.NetAmount)
	}
	return nil
}
