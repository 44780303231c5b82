package models

import (
	"context"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID        int    `gorm:"primary_key" json:"id"`
	Name      string `gorm:"index;size:200;not null" json:"name" binding:"required"`
	NameEn    string `gorm:"size:200" json:"name_en"`
	Phone     string `gorm:"size:30" json:"phone"`
	Email     string `gorm:"size:100" json:"email"`
	Address   string `gorm:"size:255" json:"address"`
	TaxNumber string `gorm:"size:50" json:"tax_number"`
	// Balance is what the customer owes; confirmed sales invoices
	// increase it, receipts decrease it.
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit_limit"`
	Notes       string          `gorm:"type:text" json:"notes"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string          `json:"name" binding:"required"`
	NameEn      string          `json:"name_en"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	TaxNumber   string          `json:"tax_number"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Notes       string          `json:"notes"`
}

func (input *NewCustomer) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Customer](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("email", "invalid email")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("phone", "invalid phone number")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer, actorId int) (*Customer, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:        input.Name,
		NameEn:      input.NameEn,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		TaxNumber:   input.TaxNumber,
		CreditLimit: utils.RoundMoney(input.CreditLimit),
		Notes:       input.Notes,
		IsActive:    utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "customers", customer.ID, nil, &customer)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Customer]()
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer, actorId int) (*Customer, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	before := *customer

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(customer).Updates(map[string]interface{}{
			"Name":        input.Name,
			"NameEn":      input.NameEn,
			"Phone":       input.Phone,
			"Email":       input.Email,
			"Address":     input.Address,
			"TaxNumber":   input.TaxNumber,
			"CreditLimit": utils.RoundMoney(input.CreditLimit),
			"Notes":       input.Notes,
		}).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionUpdate, "customers", customer.ID, &before, customer)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisItem[Customer](id)
	_ = utils.RemoveRedisList[Customer]()
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	cached, err := utils.RetrieveRedis[Customer](id)
	if err == nil && cached != nil {
		return cached, nil
	}
	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[Customer](customer, id)
	return customer, nil
}

func GetCustomers(ctx context.Context, name *string) ([]*Customer, error) {
	db := config.GetDB()
	var results []*Customer
	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ? OR name_en LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyCustomerBalanceDelta shifts the cached receivable inside the
// caller's transaction.
func ApplyCustomerBalanceDelta(tx *gorm.DB, customerId int, delta decimal.Decimal) error {
	if err := tx.Model(&Customer{}).Where("id = ?", customerId).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
		return err
	}
	_ = utils.RemoveRedisItem[Customer](customerId)
	return nil
}
