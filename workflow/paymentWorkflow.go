package workflow

import (
	"context"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/models/reports"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreatePayment records a receipt or payment and applies every side
// effect in one database transaction: the cash/bank account moves, the
// linked invoice settles, and the customer or supplier balance shifts.
// A receipt debits the account (money in); a payment credits it.
func CreatePayment(ctx context.Context, input *models.NewPayment, actorId int) (*models.Payment, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	if err := input.Validate(ctx); err != nil {
		return nil, err
	}

	dateKey := utils.DateKey(input.PaymentDate)
	seqNo, err := utils.GetSequence[models.Payment](ctx, dateKey)
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		Number:          utils.FormatEntryNumber("PAY", input.PaymentDate, seqNo),
		DateKey:         dateKey,
		SequenceNo:      seqNo,
		PaymentDate:     input.PaymentDate,
		PaymentType:     input.PaymentType,
		Amount:          utils.RoundMoney(input.Amount),
		PaymentMethod:   input.PaymentMethod,
		AccountId:       input.AccountId,
		CustomerId:      input.CustomerId,
		SupplierId:      input.SupplierId,
		InvoiceId:       input.InvoiceId,
		ReferenceNumber: input.ReferenceNumber,
		Notes:           input.Notes,
		CreatedBy:       actorId,
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx); err != nil {
			config.LogError(logger, "paymentWorkflow.go", "CreatePayment", "AcquirePostingLock", input, err)
			return err
		}
		defer ReleasePostingLock(tx)

		if err := tx.Create(&payment).Error; err != nil {
			if utils.IsDuplicateKey(err) {
				return utils.NewValidationError("number", "payment number already exists, retry")
			}
			return err
		}

		if err := applyPaymentAccountMove(tx, logger, &payment, actorId); err != nil {
			return err
		}

		if payment.InvoiceId != nil && *payment.InvoiceId > 0 {
			if err := settleInvoice(tx, logger, &payment); err != nil {
				return err
			}
		}

		if err := applyPartyBalance(tx, &payment); err != nil {
			return err
		}

		return models.RecordAuditLog(tx, actorId, models.AuditActionCreate, "payments", payment.ID, nil, &payment)
	})
	if err != nil {
		return nil, err
	}
	_ = reports.InvalidateReportCache()
	return &payment, nil
}

// one ledger row per payment, numbered off the payment itself
func applyPaymentAccountMove(tx *gorm.DB, logger *logrus.Logger, payment *models.Payment, actorId int) error {
	side := models.EntrySideDebit
	if payment.PaymentType == models.PaymentTypePayment {
		side = models.EntrySideCredit
	}

	transaction := models.Transaction{
		Number:          payment.Number + "-1",
		DateKey:         payment.DateKey,
		SequenceNo:      payment.SequenceNo,
		TransactionDate: payment.PaymentDate,
		AccountId:       payment.AccountId,
		EntrySide:       side,
		Amount:          payment.Amount,
		Description:     payment.Notes,
		ReferenceNumber: payment.Number,
		Status:          models.TransactionStatusActive,
		CreatedBy:       actorId,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		config.LogError(logger, "paymentWorkflow.go", "applyPaymentAccountMove", "CreateTransaction", transaction, err)
		return err
	}
	if err := models.ApplyBalanceDelta(tx, payment.AccountId, side, payment.Amount); err != nil {
		return err
	}
	_ = utils.RemoveRedisItem[models.Account](payment.AccountId)
	return nil
}

func settleInvoice(tx *gorm.DB, logger *logrus.Logger, payment *models.Payment) error {
	var invoice models.Invoice
	if err := tx.First(&invoice, *payment.InvoiceId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}

	switch invoice.Status {
	case models.InvoiceStatusDraft:
		return utils.ErrorInvalidStatef("invoice %s is a draft, confirm it before settling", invoice.Number)
	case models.InvoiceStatusCancelled:
		return utils.ErrorInvalidStatef("invoice %s is cancelled", invoice.Number)
	}

	if payment.PaymentType == models.PaymentTypeReceipt && invoice.InvoiceType != models.InvoiceTypeSales {
		return utils.ErrorInvalidStatef("receipt cannot settle purchase invoice %s", invoice.Number)
	}
	if payment.PaymentType == models.PaymentTypePayment && invoice.InvoiceType != models.InvoiceTypePurchase {
		return utils.ErrorInvalidStatef("payment cannot settle sales invoice %s", invoice.Number)
	}

	invoice.ApplyPayment(payment.Amount)
	if invoice.RemainingAmount().IsNegative() {
		// overpayment is accepted but worth a trail
		logger.WithFields(logrus.Fields{
			"module":   "paymentWorkflow.go",
			"funcName": "settleInvoice",
			"invoice":  invoice.Number,
			"payment":  payment.Number,
			"overpaid": invoice.RemainingAmount().Neg().String(),
		}).Warn("invoice overpaid")
	}

	return tx.Model(&invoice).Updates(map[string]interface{}{
		"paid_amount": invoice.PaidAmount,
		"status":      invoice.Status,
	}).Error
}

// Collections lower the party balance, refunds restore it: a receipt
// from a customer lowers what they owe and a payment to one is a refund
// that raises it back; a payment to a supplier lowers what we owe and a
// receipt from one is a refund that raises it back.
func applyPartyBalance(tx *gorm.DB, payment *models.Payment) error {
	if payment.CustomerId != nil && *payment.CustomerId > 0 {
		return models.ApplyCustomerBalanceDelta(tx, *payment.CustomerId, customerPaymentDelta(payment.PaymentType, payment.Amount))
	}
	if payment.SupplierId != nil && *payment.SupplierId > 0 {
		return models.ApplySupplierBalanceDelta(tx, *payment.SupplierId, supplierPaymentDelta(payment.PaymentType, payment.Amount))
	}
	return nil
}

func customerPaymentDelta(paymentType models.PaymentType, amount decimal.Decimal) decimal.Decimal {
	if paymentType == models.PaymentTypeReceipt {
		return amount.Neg()
	}
	return amount
}

func supplierPaymentDelta(paymentType models.PaymentType, amount decimal.Decimal) decimal.Decimal {
	if paymentType == models.PaymentTypePayment {
		return amount.Neg()
	}
	return amount
}
