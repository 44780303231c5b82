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

// JournalEntry is the unit of double-entry recording. It is created as a
// draft, checked for balance, and becomes immutable once posted; posted
// entries change only through a linked reversal entry.
type JournalEntry struct {
	ID         int           `gorm:"primary_key" json:"id"`
	Number     string        `gorm:"uniqueIndex;size:40;not null" json:"number"`
	DateKey    string        `gorm:"index:idx_jrn_seq,priority:1;size:8;not null" json:"date_key"`
	SequenceNo int64         `gorm:"index:idx_jrn_seq,priority:2;not null" json:"sequence_no"`
	EntryDate  time.Time     `gorm:"index;not null" json:"entry_date"`
	Description string       `gorm:"size:255" json:"description"`
	Reference  string        `gorm:"size:100" json:"reference"`
	Status     JournalStatus `gorm:"type:enum('draft','posted','cancelled');size:10;not null;default:'draft';index" json:"status"`
	TotalDebit  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_debit"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_credit"`
	Lines       []JournalLine   `gorm:"foreignKey:JournalEntryId" json:"lines"`
	// reversal linkage
	IsReversal          bool       `gorm:"not null;default:false;index" json:"is_reversal"`
	ReversesJournalId   *int       `gorm:"index" json:"reverses_journal_id"`
	ReversedByJournalId *int       `gorm:"index" json:"reversed_by_journal_id"`
	ReversalReason      *string    `gorm:"type:text" json:"reversal_reason"`
	PostedAt            *time.Time `gorm:"index" json:"posted_at"`
	PostedBy            int        `json:"posted_by"`
	CreatedBy           int        `gorm:"index" json:"created_by"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type JournalLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	JournalEntryId int             `gorm:"index;not null" json:"journal_entry_id"`
	LineNo         int             `gorm:"not null" json:"line_no"`
	AccountId      int             `gorm:"index;not null" json:"account_id" binding:"required"`
	Debit          decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"debit"`
	Credit         decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"credit"`
	Description    string          `gorm:"size:255" json:"description"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Posted journal entries must never be deleted; limited updates are
// allowed only for lifecycle and reversal linkage fields.

func (j *JournalEntry) BeforeDelete(tx *gorm.DB) error {
	if j.Status == JournalStatusPosted {
		return errors.New("immutable ledger: posted journal entries cannot be deleted")
	}
	return nil
}

func (j *JournalEntry) BeforeUpdate(tx *gorm.DB) error {
	if j.Status != JournalStatusPosted {
		return nil
	}
	allowed := map[string]bool{
		"Status":              true,
		"IsReversal":          true,
		"ReversesJournalId":   true,
		"ReversedByJournalId": true,
		"ReversalReason":      true,
		"PostedAt":            true,
		"PostedBy":            true,
		"UpdatedAt":           true,
	}
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !allowed[f.Name] {
			return errors.New("immutable ledger: posted journal entries accept only lifecycle updates")
		}
	}
	return nil
}

type NewJournalLine struct {
	AccountId   int             `json:"account_id" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

type NewJournalEntry struct {
	EntryDate   time.Time        `json:"entry_date" binding:"required"`
	Description string           `json:"description"`
	Reference   string           `json:"reference"`
	Lines       []NewJournalLine `json:"lines" binding:"required,min=2"`
}

// ValidateJournalLines checks line shape and the balance law without
// touching the database. It returns the rolled up totals. Amounts are
// rounded to 2 dp before any check so validation sees exactly the
// numbers that get stored; raw amounts that only balance before
// rounding are rejected here instead of surfacing at posting time.
func ValidateJournalLines(lines []NewJournalLine) (decimal.Decimal, decimal.Decimal, error) {
	if len(lines) < 2 {
		return decimal.Zero, decimal.Zero, utils.NewValidationError("lines", "journal entry needs at least two lines")
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, line := range lines {
		debit := utils.RoundMoney(line.Debit)
		credit := utils.RoundMoney(line.Credit)
		if debit.IsNegative() || credit.IsNegative() {
			return decimal.Zero, decimal.Zero, utils.NewValidationError("lines", fmt.Sprintf("line %d: negative amounts not allowed", i+1))
		}
		hasDebit := debit.GreaterThan(decimal.Zero)
		hasCredit := credit.GreaterThan(decimal.Zero)
		if hasDebit == hasCredit {
			return decimal.Zero, decimal.Zero, utils.NewValidationError("lines", fmt.Sprintf("line %d: exactly one of debit or credit must be positive", i+1))
		}
		totalDebit = totalDebit.Add(debit)
		totalCredit = totalCredit.Add(credit)
	}

	if !utils.IsWithinTolerance(totalDebit.Sub(totalCredit)) {
		return decimal.Zero, decimal.Zero, utils.ErrorUnbalancedf("debits %s != credits %s", totalDebit.String(), totalCredit.String())
	}
	return totalDebit, totalCredit, nil
}

// validate checks line shape, account existence and the balance law.
func (input *NewJournalEntry) validate(ctx context.Context) error {
	if _, _, err := ValidateJournalLines(input.Lines); err != nil {
		return err
	}

	accountIds := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		accountIds = append(accountIds, line.AccountId)
	}

	if err := utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{
			Model:   Account{},
			Ids:     accountIds,
			Message: "one or more accounts not found or inactive",
			Filter:  utils.Filter{Cond: "is_active = ?", Values: []interface{}{true}},
		},
	}); err != nil {
		return err
	}
	return nil
}

// CreateJournalEntry stores a balanced draft. Nothing moves balances
// until the entry is posted.
func CreateJournalEntry(ctx context.Context, input *NewJournalEntry, actorId int) (*JournalEntry, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	dateKey := utils.DateKey(input.EntryDate)
	seqNo, err := utils.GetSequence[JournalEntry](ctx, dateKey)
	if err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	lines := make([]JournalLine, len(input.Lines))
	for i, line := range input.Lines {
		lines[i] = JournalLine{
			LineNo:      i + 1,
			AccountId:   line.AccountId,
			Debit:       utils.RoundMoney(line.Debit),
			Credit:      utils.RoundMoney(line.Credit),
			Description: line.Description,
		}
		totalDebit = totalDebit.Add(lines[i].Debit)
		totalCredit = totalCredit.Add(lines[i].Credit)
	}

	entry := JournalEntry{
		Number:      utils.FormatEntryNumber("JRN", input.EntryDate, seqNo),
		DateKey:     dateKey,
		SequenceNo:  seqNo,
		EntryDate:   input.EntryDate,
		Description: input.Description,
		Reference:   input.Reference,
		Status:      JournalStatusDraft,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Lines:       lines,
		CreatedBy:   actorId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			if utils.IsDuplicateKey(err) {
				return utils.NewValidationError("number", "journal number already exists, retry")
			}
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCreate, "journal_entries", entry.ID, nil, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CancelJournalEntry drops a draft out of the pipeline. Posted entries
// cannot be cancelled; they are reversed instead.
func CancelJournalEntry(ctx context.Context, id int, actorId int) (*JournalEntry, error) {
	entry, err := utils.FetchModel[JournalEntry](ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Status != JournalStatusDraft {
		return nil, utils.ErrorInvalidStatef("journal entry %s is %s, only drafts can be cancelled", entry.Number, entry.Status)
	}
	before := *entry

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(entry).Update("Status", JournalStatusCancelled).Error; err != nil {
			return err
		}
		return RecordAuditLog(tx, actorId, AuditActionCancel, "journal_entries", entry.ID, &before, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func GetJournalEntry(ctx context.Context, id int) (*JournalEntry, error) {
	return utils.FetchModel[JournalEntry](ctx, id, "Lines")
}

func GetJournalEntries(ctx context.Context, status *JournalStatus, from *time.Time, to *time.Time) ([]*JournalEntry, error) {
	db := config.GetDB()
	var results []*JournalEntry
	dbCtx := db.WithContext(ctx).Preload("Lines")
	if status != nil {
		dbCtx = dbCtx.Where("status = ?", *status)
	}
	if from != nil {
		dbCtx = dbCtx.Where("entry_date >= ?", utils.StartOfDay(*from))
	}
	if to != nil {
		dbCtx = dbCtx.Where("entry_date <= ?", utils.EndOfDay(*to))
	}
	err := dbCtx.Order("entry_date, id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
