package models

import (
	"context"
	"errors"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
)

// Payment is a money movement: a receipt coming in or a payment going
// out, optionally settling an invoice. Side effects (account, invoice,
// party balances) are applied atomically by workflow.CreatePayment.
type Payment struct {
	ID          int         `gorm:"primary_key" json:"id"`
	Number      string      `gorm:"uniqueIndex;size:40;not null" json:"number"`
	DateKey     string      `gorm:"index:idx_pay_seq,priority:1;size:8;not null" json:"date_key"`
	SequenceNo  int64       `gorm:"index:idx_pay_seq,priority:2;not null" json:"sequence_no"`
	PaymentDate time.Time   `gorm:"index;not null" json:"payment_date"`
	PaymentType PaymentType `gorm:"type:enum('receipt','payment');size:10;not null;index" json:"payment_type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null;default:'cash'" json:"payment_method"`
	// AccountId is the cash or bank account the money moves through.
	AccountId       int     `gorm:"index;not null" json:"account_id" binding:"required"`
	CustomerId      *int    `gorm:"index" json:"customer_id"`
	SupplierId      *int    `gorm:"index" json:"supplier_id"`
	InvoiceId       *int    `gorm:"index" json:"invoice_id"`
	ReferenceNumber string  `gorm:"size:100" json:"reference_number"`
	Notes           string  `gorm:"type:text" json:"notes"`
	CreatedBy       int     `gorm:"index" json:"created_by"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	PaymentDate     time.Time       `json:"payment_date" binding:"required"`
	PaymentType     PaymentType     `json:"payment_type" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	AccountId       int             `json:"account_id" binding:"required"`
	CustomerId      *int            `json:"customer_id"`
	SupplierId      *int            `json:"supplier_id"`
	InvoiceId       *int            `json:"invoice_id"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

func (input *NewPayment) Validate(ctx context.Context) error {
	if !input.PaymentType.IsValid() {
		return utils.NewValidationError("payment_type", "must be receipt or payment")
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = PaymentMethodCash
	}
	if !input.PaymentMethod.IsValid() {
		return utils.NewValidationError("payment_method", "unknown payment method")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return utils.NewValidationError("amount", "must be positive")
	}
	account, err := utils.FetchModel[Account](ctx, input.AccountId)
	if err != nil {
		return errors.New("account not found")
	}
	if account.IsActive != nil && !*account.IsActive {
		return utils.NewValidationError("account_id", "account is inactive")
	}
	if input.CustomerId != nil && *input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, *input.CustomerId); err != nil {
			return errors.New("customer not found")
		}
	}
	if input.SupplierId != nil && *input.SupplierId > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return errors.New("supplier not found")
		}
	}
	if input.InvoiceId != nil && *input.InvoiceId > 0 {
		if err := utils.ValidateResourceId[Invoice](ctx, *input.InvoiceId); err != nil {
			return errors.New("invoice not found")
		}
	}
	return nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	return utils.FetchModel[Payment](ctx, id)
}

func GetPayments(ctx context.Context, paymentType *PaymentType, customerId *int, supplierId *int, from *time.Time, to *time.Time) ([]*Payment, error) {
	db := config.GetDB()
	var results []*Payment
	dbCtx := db.WithContext(ctx)
	if paymentType != nil {
		dbCtx = dbCtx.Where("payment_type = ?", *paymentType)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("payment_date >= ?", utils.StartOfDay(*from))
	}
	if to != nil {
		dbCtx = dbCtx.Where("payment_date <= ?", utils.EndOfDay(*to))
	}
	err := dbCtx.Order("payment_date, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
