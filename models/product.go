package models

import (
	"context"
	"errors"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID     int    `gorm:"primary_key" json:"id"`
	Code   string `gorm:"uniqueIndex;size:50;not null" json:"code" binding:"required"`
	Name   string `gorm:"index;size:200;not null" json:"name" binding:"required"`
	NameEn string `gorm:"size:200" json:"name_en"`
	Unit   string `gorm:"size:30" json:"unit"`
	SalesPrice    decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"sales_price"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"purchase_price"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"quantity"`
	MinQuantity   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"min_quantity"`
	// posting accounts used when invoice items move stock
	InventoryAccountId int       `gorm:"index" json:"inventory_account_id"`
	SalesAccountId     int       `gorm:"index" json:"sales_account_id"`
	CogsAccountId      int       `gorm:"index" json:"cogs_account_id"`
	Description        string    `gorm:"type:text" json:"description"`
	IsActive           *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Code               string          `json:"code" binding:"required"`
	Name               string          `json:"name" binding:"required"`
	NameEn             string          `json:"name_en"`
	Unit               string          `json:"unit"`
	SalesPrice         decimal.Decimal `json:"sales_price"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	Quantity           decimal.Decimal `json:"quantity"`
	MinQuantity        decimal.Decimal `json:"min_quantity"`
	InventoryAccountId int             `json:"inventory_account_id"`
	SalesAccountId     int             `json:"sales_account_id"`
	CogsAccountId      int             `json:"cogs_account_id"`
	Description        string          `json:"description"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Product](ctx, "code", input.Code, id); err != nil {
		return err
	}
	if input.SalesPrice.IsNegative() || input.PurchasePrice.IsNegative() {
		return utils.NewValidationError("price", "prices cannot be negative")
	}
	accountIds := make([]int, 0, 3)
	for _, accId := range []int{input.InventoryAccountId, input.SalesAccountId, input.CogsAccountId} {
		if accId > 0 {
			accountIds = append(accountIds, accId)
		}
	}
	if len(accountIds) > 0 {
		if err := utils.ValidateResourcesId[Account](ctx, accountIds); err != nil {
			return errors.New("posting account not found")
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct, actorId int) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Code:               input.Code,
		Name:               input.Name,
		NameEn:             input.NameEn,
		Unit:               input.Unit,
		SalesPrice:         utils.RoundMoney(input.SalesPrice),
		PurchasePrice:      utils.RoundMoney(input.PurchasePrice),
		Quantity:           input.Quantity,
		MinQuantity:        input.MinQuantity,
		InventoryAccountId: input.InventoryAccountId,
		SalesAccountId:     input.SalesAccountId,
		CogsAccountId:      input.CogsAccountId,
		Description:        input.Description,
		IsActive:           utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "products", product.ID, nil, &product)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Product]()
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct, actorId int) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	before := *product

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(product).Updates(map[string]interface{}{
			"Code":               input.Code,
			"Name":               input.Name,
			"NameEn":             input.NameEn,
			"Unit":               input.Unit,
			"SalesPrice":         utils.RoundMoney(input.SalesPrice),
			"PurchasePrice":      utils.RoundMoney(input.PurchasePrice),
			"MinQuantity":        input.MinQuantity,
			"InventoryAccountId": input.InventoryAccountId,
			"SalesAccountId":     input.SalesAccountId,
			"CogsAccountId":      input.CogsAccountId,
			"Description":        input.Description,
		}).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionUpdate, "products", product.ID, &before, product)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisItem[Product](id)
	_ = utils.RemoveRedisList[Product]()
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	cached, err := utils.RetrieveRedis[Product](id)
	if err == nil && cached != nil {
		return cached, nil
	}
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[Product](product, id)
	return product, nil
}

func GetProducts(ctx context.Context, name *string, lowStockOnly bool) ([]*Product, error) {
	db := config.GetDB()
	var results []*Product
	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ? OR name_en LIKE ? OR code LIKE ?",
			"%"+*name+"%", "%"+*name+"%", "%"+*name+"%")
	}
	if lowStockOnly {
		dbCtx = dbCtx.Where("quantity <= min_quantity")
	}
	err := dbCtx.Order("code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ApplyStockDelta moves a product's quantity inside the caller's
// transaction. Negative resulting stock is rejected for sales.
func ApplyStockDelta(tx *gorm.DB, productId int, delta decimal.Decimal) error {
	var product Product
	if err := tx.First(&product, productId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	newQty := product.Quantity.Add(delta)
	if newQty.IsNegative() {
		return utils.ErrorInvalidStatef("insufficient stock for product %s (have %s, need %s)",
			product.Code, product.Quantity.String(), delta.Neg().String())
	}
	if err := tx.Model(&product).UpdateColumn("quantity", newQty).Error; err != nil {
		return err
	}
	_ = utils.RemoveRedisItem[Product](productId)
	return nil
}
