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

type Account struct {
	ID   int         `gorm:"primary_key" json:"id"`
	Code string      `gorm:"index;size:20;not null" json:"code" binding:"required"`
	Name string      `gorm:"index;size:200;not null" json:"name" binding:"required"`
	// Arabic name lives in Name; NameEn is the latin label used on exports.
	NameEn          string          `gorm:"size:200" json:"name_en"`
	AccountType     AccountType     `gorm:"type:enum('asset','liability','equity','revenue','expense');index;size:20;not null" json:"account_type" binding:"required"`
	ParentAccountId int             `gorm:"index" json:"parent_account_id"`
	OpeningBalance  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"opening_balance"`
	// Balance is a cache maintained by posting; reports always replay
	// transactions instead of trusting it.
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"balance"`
	Notes     string          `gorm:"type:text" json:"notes"`
	IsActive  *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	NameEn          string          `json:"name_en"`
	AccountType     AccountType     `json:"account_type" binding:"required"`
	ParentAccountId int             `json:"parent_account_id"`
	OpeningBalance  decimal.Decimal `json:"opening_balance"`
	Notes           string          `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewAccount) validate(ctx context.Context, id int) error {
	if !input.AccountType.IsValid() {
		return utils.NewValidationError("account_type", "invalid account type")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Account](ctx, id); err != nil {
			return err
		}
	}
	// code
	if err := utils.ValidateUnique[Account](ctx, "code", input.Code, id); err != nil {
		return err
	}
	if input.ParentAccountId > 0 {
		if err := utils.ValidateResourceId[Account](ctx, input.ParentAccountId); err != nil {
			return errors.New("parent not found")
		}
		cyclic, err := parentChainContains(id, input.ParentAccountId, func(accountId int) (int, error) {
			account, err := utils.FetchModel[Account](ctx, accountId)
			if err != nil {
				return 0, err
			}
			return account.ParentAccountId, nil
		})
		if err != nil {
			return err
		}
		if cyclic {
			return utils.NewValidationError("parent_account_id", "parent chain loops back to this account")
		}
	}
	return nil
}

// parentChainContains walks up from startId via lookup and reports
// whether targetId appears anywhere on the chain. Covers the self-parent
// case and longer cycles like A→B→A that only form on update. A seen
// set bounds the walk so a pre-existing cycle in the data cannot hang
// it.
func parentChainContains(targetId int, startId int, lookup func(int) (int, error)) (bool, error) {
	seen := map[int]bool{}
	for id := startId; id > 0; {
		if id == targetId {
			return true, nil
		}
		if seen[id] {
			return false, nil
		}
		seen[id] = true
		next, err := lookup(id)
		if err != nil {
			return false, err
		}
		id = next
	}
	return false, nil
}

func CreateAccount(ctx context.Context, input *NewAccount, actorId int) (*Account, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	account := Account{
		Code:            input.Code,
		Name:            input.Name,
		NameEn:          input.NameEn,
		AccountType:     input.AccountType,
		ParentAccountId: input.ParentAccountId,
		OpeningBalance:  utils.RoundMoney(input.OpeningBalance),
		Balance:         utils.RoundMoney(input.OpeningBalance),
		Notes:           input.Notes,
		IsActive:        utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "accounts", account.ID, nil, &account)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Account]()
	return &account, nil
}

func UpdateAccount(ctx context.Context, id int, input *NewAccount, actorId int) (*Account, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return nil, err
	}
	before := *account

	db := config.GetDB()
	if input.AccountType != account.AccountType {
		var count int64
		if err := db.WithContext(ctx).Model(&Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("not allowed to change account type when transactions exist")
		}
	}

	updates := map[string]interface{}{
		"Code":        input.Code,
		"Name":        input.Name,
		"NameEn":      input.NameEn,
		"AccountType": input.AccountType,
		"Notes":       input.Notes,
	}
	if input.ParentAccountId > 0 {
		updates["ParentAccountId"] = input.ParentAccountId
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&account).Updates(updates).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionUpdate, "accounts", account.ID, &before, account)
	})
	if err != nil {
		return nil, err
	}

	_ = utils.RemoveRedisItem[Account](id)
	_ = utils.RemoveRedisList[Account]()
	return account, nil
}

// MarkAccountActive toggles the account and its whole child tree.
func MarkAccountActive(ctx context.Context, id int, isActive bool) (*Account, error) {

	db := config.GetDB()
	var main *Account

	err := db.WithContext(ctx).First(&main, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	tx := db.Begin()
	err = markChildAccountsActive(tx, ctx, main, isActive)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisList[Account]()
	return main, nil
}

func markChildAccountsActive(tx *gorm.DB, ctx context.Context, main *Account, isActive bool) error {
	err := tx.WithContext(ctx).Model(&main).Updates(Account{
		IsActive: &isActive,
	}).Error
	if err != nil {
		return err
	}

	// find & update child accounts
	var children []*Account
	err = tx.WithContext(ctx).Where("parent_account_id = ?", main.ID).Find(&children).Error
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := markChildAccountsActive(tx, ctx, child, isActive); err != nil {
			return err
		}
	}
	return nil
}

func GetAccount(ctx context.Context, id int) (*Account, error) {
	cached, err := utils.RetrieveRedis[Account](id)
	if err == nil && cached != nil {
		return cached, nil
	}
	account, err := utils.FetchModel[Account](ctx, id)
	if err != nil {
		return nil, err
	}
	_ = utils.StoreRedis[Account](account, id)
	return account, nil
}

func GetAccounts(ctx context.Context, name *string, code *string) ([]*Account, error) {

	db := config.GetDB()
	var results []*Account

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ? OR name_en LIKE ?", "%"+*name+"%", "%"+*name+"%")
	}
	if code != nil && len(*code) > 0 {
		dbCtx = dbCtx.Where("code LIKE ?", "%"+*code+"%")
	}
	err := dbCtx.Order("code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetAccountBalance derives the balance by replaying active transactions
// on top of the opening balance. With asOf set only transactions through
// the end of that day count; nil means "to date". The cached balance
// column is never read.
func GetAccountBalance(ctx context.Context, accountId int, asOf *time.Time) (decimal.Decimal, error) {
	account, err := utils.FetchModel[Account](ctx, accountId)
	if err != nil {
		return decimal.Zero, err
	}

	debit, credit, err := sumAccountSides(ctx, accountId, nil, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return account.OpeningBalance.Add(debit).Sub(credit), nil
}

// GetAccountPeriodBalance is the debit-credit net of active transactions
// within [from, to], without the opening balance.
func GetAccountPeriodBalance(ctx context.Context, accountId int, from time.Time, to time.Time) (decimal.Decimal, error) {
	if err := utils.ValidateResourceId[Account](ctx, accountId); err != nil {
		return decimal.Zero, err
	}
	debit, credit, err := sumAccountSides(ctx, accountId, &from, &to)
	if err != nil {
		return decimal.Zero, err
	}
	return debit.Sub(credit), nil
}

type accountSideSums struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func sumAccountSides(ctx context.Context, accountId int, from *time.Time, to *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	db := config.GetDB()
	var sums accountSideSums
	dbCtx := db.WithContext(ctx).Model(&Transaction{}).
		Select(`
			COALESCE(SUM(CASE WHEN entry_side = 'debit' THEN amount ELSE 0 END), 0) AS debit,
			COALESCE(SUM(CASE WHEN entry_side = 'credit' THEN amount ELSE 0 END), 0) AS credit`).
		Where("account_id = ? AND status = ?", accountId, TransactionStatusActive)
	if from != nil {
		dbCtx = dbCtx.Where("transaction_date >= ?", utils.StartOfDay(*from))
	}
	if to != nil {
		dbCtx = dbCtx.Where("transaction_date <= ?", utils.EndOfDay(*to))
	}
	if err := dbCtx.Scan(&sums).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return sums.Debit, sums.Credit, nil
}
