package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID         int         `gorm:"primary_key" json:"id"`
	Number     string      `gorm:"uniqueIndex;size:40;not null" json:"number"`
	DateKey    string      `gorm:"index:idx_inv_seq,priority:1;size:8;not null" json:"date_key"`
	SequenceNo int64       `gorm:"index:idx_inv_seq,priority:2;not null" json:"sequence_no"`
	InvoiceType InvoiceType `gorm:"type:enum('sales','purchase');size:10;not null;index" json:"invoice_type"`
	CustomerId  *int        `gorm:"index" json:"customer_id"`
	SupplierId  *int        `gorm:"index" json:"supplier_id"`
	InvoiceDate time.Time   `gorm:"index;not null" json:"invoice_date"`
	DueDate     *time.Time  `gorm:"index" json:"due_date"`
	// TotalAmount is the gross of all lines; NetAmount is what settlement
	// tracks: total - discount + tax.
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"tax_amount"`
	NetAmount      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"net_amount"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"paid_amount"`
	Status         InvoiceStatus   `gorm:"type:enum('draft','sent','partially_paid','paid','overdue','cancelled');size:20;not null;default:'draft';index" json:"status"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Items          []InvoiceItem   `gorm:"foreignKey:InvoiceId" json:"items"`
	CreatedBy      int             `gorm:"index" json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	InvoiceId       int             `gorm:"index;not null" json:"invoice_id"`
	LineNo          int             `gorm:"not null" json:"line_no"`
	ProductId       *int            `gorm:"index" json:"product_id"`
	Description     string          `gorm:"size:255" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"discount_percent"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(8,2);default:0" json:"tax_percent"`
	Total           decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoiceItem struct {
	ProductId       *int            `json:"product_id"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

type NewInvoice struct {
	InvoiceType InvoiceType      `json:"invoice_type" binding:"required"`
	CustomerId  *int             `json:"customer_id"`
	SupplierId  *int             `json:"supplier_id"`
	InvoiceDate time.Time        `json:"invoice_date" binding:"required"`
	DueDate     *time.Time       `json:"due_date"`
	Notes       string           `json:"notes"`
	Items       []NewInvoiceItem `json:"items" binding:"required,min=1"`
}

// RemainingAmount is the settlement target: net minus already paid. It
// goes negative on overpayment.
func (inv *Invoice) RemainingAmount() decimal.Decimal {
	return inv.NetAmount.Sub(inv.PaidAmount)
}

// ApplyPayment adds an amount to paid and recomputes the settlement
// status. Pure in-memory; persistence is the caller's job.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) {
	inv.PaidAmount = utils.RoundMoney(inv.PaidAmount.Add(amount))
	inv.RefreshSettlementStatus()
}

// RefreshSettlementStatus derives the status from paid vs net:
// paid when remaining is within tolerance (or negative), partially_paid
// while something but not everything is paid.
func (inv *Invoice) RefreshSettlementStatus() {
	if inv.Status == InvoiceStatusDraft || inv.Status == InvoiceStatusCancelled {
		return
	}
	remaining := inv.RemainingAmount()
	switch {
	case remaining.LessThanOrEqual(utils.BalanceTolerance):
		inv.Status = InvoiceStatusPaid
	case inv.PaidAmount.GreaterThan(decimal.Zero):
		inv.Status = InvoiceStatusPartiallyPaid
	default:
		inv.Status = InvoiceStatusSent
	}
}

func (input *NewInvoice) validate(ctx context.Context) error {
	if !input.InvoiceType.IsValid() {
		return utils.NewValidationError("invoice_type", "must be sales or purchase")
	}
	if input.InvoiceType == InvoiceTypeSales {
		if input.CustomerId == nil || *input.CustomerId <= 0 {
			return utils.NewValidationError("customer_id", "required for sales invoices")
		}
		if err := utils.ValidateResourceId[Customer](ctx, *input.CustomerId); err != nil {
			return errors.New("customer not found")
		}
	} else {
		if input.SupplierId == nil || *input.SupplierId <= 0 {
			return utils.NewValidationError("supplier_id", "required for purchase invoices")
		}
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return errors.New("supplier not found")
		}
	}
	if len(input.Items) == 0 {
		return utils.NewValidationError("items", "invoice needs at least one item")
	}

	productIds := make([]int, 0, len(input.Items))
	for i, item := range input.Items {
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return utils.NewValidationError("items", fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return utils.NewValidationError("items", fmt.Sprintf("item %d: unit price cannot be negative", i+1))
		}
		if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			return utils.NewValidationError("items", fmt.Sprintf("item %d: discount percent out of range", i+1))
		}
		if item.TaxPercent.IsNegative() {
			return utils.NewValidationError("items", fmt.Sprintf("item %d: tax percent cannot be negative", i+1))
		}
		if item.ProductId != nil && *item.ProductId > 0 {
			productIds = append(productIds, *item.ProductId)
		}
	}
	if len(productIds) > 0 {
		if err := utils.ValidateResourcesId[Product](ctx, productIds); err != nil {
			return errors.New("one or more products not found")
		}
	}
	return nil
}

// BuildInvoiceItems runs the line math for all items and returns the
// persisted item rows plus the invoice totals.
func BuildInvoiceItems(inputs []NewInvoiceItem) (items []InvoiceItem, total, discount, tax, net decimal.Decimal) {
	items = make([]InvoiceItem, len(inputs))
	for i, in := range inputs {
		gross, disc, lineTax, lineTotal := utils.LineAmounts(in.Quantity, in.UnitPrice, in.DiscountPercent, in.TaxPercent)
		items[i] = InvoiceItem{
			LineNo:          i + 1,
			ProductId:       in.ProductId,
			Description:     in.Description,
			Quantity:        in.Quantity,
			UnitPrice:       utils.RoundMoney(in.UnitPrice),
			DiscountPercent: in.DiscountPercent,
			TaxPercent:      in.TaxPercent,
			Total:           lineTotal,
		}
		total = total.Add(gross)
		discount = discount.Add(disc)
		tax = tax.Add(lineTax)
	}
	total = utils.RoundMoney(total)
	discount = utils.RoundMoney(discount)
	tax = utils.RoundMoney(tax)
	net = utils.RoundMoney(total.Sub(discount).Add(tax))
	return items, total, discount, tax, net
}

// CreateInvoice stores a draft invoice with its line math done. Stock,
// party balances and ledger rows move at confirmation, not here.
func CreateInvoice(ctx context.Context, input *NewInvoice, actorId int) (*Invoice, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	dateKey := utils.DateKey(input.InvoiceDate)
	seqNo, err := utils.GetSequence[Invoice](ctx, dateKey)
	if err != nil {
		return nil, err
	}

	prefix := "INV"
	if input.InvoiceType == InvoiceTypePurchase {
		prefix = "PUR"
	}

	items, total, discount, tax, net := BuildInvoiceItems(input.Items)

	invoice := Invoice{
		Number:         utils.FormatEntryNumber(prefix, input.InvoiceDate, seqNo),
		DateKey:        dateKey,
		SequenceNo:     seqNo,
		InvoiceType:    input.InvoiceType,
		CustomerId:     input.CustomerId,
		SupplierId:     input.SupplierId,
		InvoiceDate:    input.InvoiceDate,
		DueDate:        input.DueDate,
		TotalAmount:    total,
		DiscountAmount: discount,
		TaxAmount:      tax,
		NetAmount:      net,
		Status:         InvoiceStatusDraft,
		Notes:          input.Notes,
		Items:          items,
		CreatedBy:      actorId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			if utils.IsDuplicateKey(err) {
				return utils.NewValidationError("number", "invoice number already exists, retry")
			}
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "invoices", invoice.ID, nil, &invoice)
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id, "Items")
}

func GetInvoices(ctx context.Context, invoiceType *InvoiceType, status *InvoiceStatus, customerId *int, supplierId *int) ([]*Invoice, error) {
	db := config.GetDB()
	var results []*Invoice
	dbCtx := db.WithContext(ctx).Preload("Items")
	if invoiceType != nil {
		dbCtx = dbCtx.Where("invoice_type = ?", *invoiceType)
	}
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if supplierId != nil && *supplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	err := dbCtx.Order("invoice_date, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MarkOverdueInvoices sweeps sent or partially paid invoices whose
// due date has passed. Returns how many were flipped.
func MarkOverdueInvoices(ctx context.Context) (int64, error) {
	db := config.GetDB()
	result := db.WithContext(ctx).Model(&Invoice{}).
		Where("status IN ?", []InvoiceStatus{InvoiceStatusSent, InvoiceStatusPartiallyPaid}).
		Where("due_date IS NOT NULL AND due_date < ?", utils.StartOfDay(time.Now())).
		Update("status", InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}
