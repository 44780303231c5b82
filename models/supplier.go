package models

import (
	"context"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Supplier struct {
	ID        int    `gorm:"primary_key" json:"id"`
	Name      string `gorm:"index;size:200;not null" json:"name" binding:"required"`
	NameEn    string `gorm:"size:200" json:"name_en"`
	Phone     string `gorm:"size:30" json:"phone"`
	Email     string `gorm:"size:100" json:"email"`
	Address   string `gorm:"size:255" json:"address"`
	TaxNumber string `gorm:"size:50" json:"tax_number"`
	// Balance is what we owe the supplier; confirmed purchase invoices
	// increase it, payments decrease it.
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance"`
	Notes     string          `gorm:"type:text" json:"notes"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name      string `json:"name" binding:"required"`
	NameEn    string `json:"name_en"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	TaxNumber string `json:"tax_number"`
	Notes     string `json:"notes"`
}

func (input *NewSupplier) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Supplier](ctx, "name", input.Name, id); err != nil {
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

func CreateSupplier(ctx context.Context, input *NewSupplier, actorId int) (*Supplier, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:      input.Name,
		NameEn:    input.NameEn,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		TaxNumber: input.TaxNumber,
		Notes:     input.Notes,
		IsActive:  utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&supplier).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "suppliers", supplier.ID, nil, &supplier)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Supplier]()
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier, actorId int) (*Supplier, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	before := *supplier

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(supplier).Updates(map[string]interface{}{
			"Name":      input.Name,
			"NameEn":    input.NameEn,
			"Phone":     input.Phone,
			"Email":     input.Email,
			"Address":   input.Address,
			"TaxNumber": input.TaxNumber,
			"Notes":     input.Notes,
		}).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionUpdate, "suppliers", supplier.ID, &before, supplier)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisItem[Supplier](id)
	_ = utils.RemoveRedisList[Supplier]()
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	cached, err := utils.RetrieveRedis[Supplier](id)
	if err == nil && cached != nil {
		return cached, nil
	}
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[Supplier](supplier, id)
	return supplier, nil
}

func GetSuppliers(ctx context.Context, name *string) ([]*Supplier, error) {
	db := config.GetDB()
	var results []*Supplier
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

// ApplySupplierBalanceDelta shifts the cached payable inside the
// caller's transaction.
func ApplySupplierBalanceDelta(tx *gorm.DB, supplierId int, delta decimal.Decimal) error {
	if err := tx.Model(&Supplier{}).Where("id = ?", supplierId).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
		return err
	}
	_ = utils.RemoveRedisItem[Supplier](supplierId)
	return nil
}
