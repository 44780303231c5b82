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

// Transaction is one ledger row. Posting a journal entry writes one row
// per line; direct entries write a single row. Rows are append-only and
// change is expressed by reversal, never by update.
type Transaction struct {
	ID     int    `gorm:"primary_key" json:"id"`
	Number string `gorm:"uniqueIndex;size:40;not null" json:"number"`
	// DateKey + SequenceNo back the per-day numbering (TRN-20260203-0001).
	DateKey         string          `gorm:"index:idx_txn_seq,priority:1;size:8;not null" json:"date_key"`
	SequenceNo      int64           `gorm:"index:idx_txn_seq,priority:2;not null" json:"sequence_no"`
	TransactionDate time.Time       `gorm:"index;not null" json:"transaction_date"`
	AccountId       int             `gorm:"index;not null" json:"account_id" binding:"required"`
	EntrySide       EntrySide       `gorm:"type:enum('debit','credit');size:10;not null" json:"entry_side"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description     string          `gorm:"size:255" json:"description"`
	ReferenceNumber string          `gorm:"size:100" json:"reference_number"`
	JournalEntryId  *int            `gorm:"index" json:"journal_entry_id"`
	JournalLineNo   int             `json:"journal_line_no"`
	Status          TransactionStatus `gorm:"type:enum('active','reversed');size:10;not null;default:'active';index" json:"status"`
	ReversedAt      *time.Time      `gorm:"index" json:"reversed_at"`
	CreatedBy       int             `gorm:"index" json:"created_by"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Ledger immutability guardrails:
// - transactions are append-only; the only permitted update is flipping
//   status to reversed during a journal reversal.

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	allowed := map[string]bool{
		"Status":     true,
		"ReversedAt": true,
		"UpdatedAt":  true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: only reversal fields may be updated on transactions")
		}
	}
	return nil
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: transactions cannot be deleted")
}

type NewTransaction struct {
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	AccountId       int             `json:"account_id" binding:"required"`
	EntrySide       EntrySide       `json:"entry_side" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Description     string          `json:"description"`
	ReferenceNumber string          `json:"reference_number"`
}

func (input *NewTransaction) validate(ctx context.Context) error {
	if !input.EntrySide.IsValid() {
		return utils.NewValidationError("entry_side", "must be debit or credit")
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
	return nil
}

// CreateTransaction records a direct single-leg ledger entry and moves the
// account's cached balance with the stored-sign convention.
func CreateTransaction(ctx context.Context, input *NewTransaction, actorId int) (*Transaction, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	dateKey := utils.DateKey(input.TransactionDate)
	seqNo, err := utils.GetSequence[Transaction](ctx, dateKey)
	if err != nil {
		return nil, err
	}

	transaction := Transaction{
		Number:          utils.FormatEntryNumber("TRN", input.TransactionDate, seqNo),
		DateKey:         dateKey,
		SequenceNo:      seqNo,
		TransactionDate: input.TransactionDate,
		AccountId:       input.AccountId,
		EntrySide:       input.EntrySide,
		Amount:          utils.RoundMoney(input.Amount),
		Description:     input.Description,
		ReferenceNumber: input.ReferenceNumber,
		Status:          TransactionStatusActive,
		CreatedBy:       actorId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}
		if err := ApplyBalanceDelta(tx, transaction.AccountId, transaction.EntrySide, transaction.Amount); err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "transactions", transaction.ID, nil, &transaction)
	})
	if err != nil {
		return nil, err
	}
	_ = utils.RemoveRedisItem[Account](transaction.AccountId)
	return &transaction, nil
}

// ApplyBalanceDelta moves an account's cached balance: debit adds, credit
// subtracts, regardless of the account type.
func ApplyBalanceDelta(tx *gorm.DB, accountId int, side EntrySide, amount decimal.Decimal) error {
	expr := "balance + ?"
	if side == EntrySideCredit {
		expr = "balance - ?"
	}
	return tx.Model(&Account{}).Where("id = ?", accountId).
		UpdateColumn("balance", gorm.Expr(expr, amount)).Error
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	return utils.FetchModel[Transaction](ctx, id)
}

func GetTransactions(ctx context.Context, accountId *int, from *time.Time, to *time.Time) ([]*Transaction, error) {
	db := config.GetDB()
	var results []*Transaction
	dbCtx := db.WithContext(ctx)
	if accountId != nil && *accountId > 0 {
		dbCtx = dbCtx.Where("account_id = ?", *accountId)
	}
	if from != nil {
		dbCtx = dbCtx.Where("transaction_date >= ?", utils.StartOfDay(*from))
	}
	if to != nil {
		dbCtx = dbCtx.Where("transaction_date <= ?", utils.EndOfDay(*to))
	}
	err := dbCtx.Order("transaction_date, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
