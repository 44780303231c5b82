package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/models/reports"
	"github.com/daftarhq/daftar_backend/utils"
	"gorm.io/gorm"
)

// ReverseJournalEntry undoes a posted entry without touching history.
//
// Design:
// - Posted entries are never deleted or edited.
// - A compensating entry (is_reversal=true, number REV-<original>) is
//   inserted already posted, with every line's debit and credit swapped.
// - The original and compensating transaction rows are both flagged
//   reversed, so replay-based balances skip the pair while cached
//   balances, which received +X then -X, agree.
// - Reversing an already-reversed entry is idempotent and returns the
//   existing reversal.
func ReverseJournalEntry(ctx context.Context, journalId int, reason string, actorId int) (*models.JournalEntry, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	var reversal *models.JournalEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx); err != nil {
			config.LogError(logger, "journalReversal.go", "ReverseJournalEntry", "AcquirePostingLock", journalId, err)
			return err
		}
		defer ReleasePostingLock(tx)

		var original models.JournalEntry
		if err := tx.Preload("Lines").First(&original, journalId).Error; err != nil {
			return utils.ErrorRecordNotFound
		}
		if original.Status != models.JournalStatusPosted {
			return utils.ErrorInvalidStatef("journal entry %s is %s, only posted entries can be reversed", original.Number, original.Status)
		}

		// idempotent: hand back the existing reversal
		if original.ReversedByJournalId != nil && *original.ReversedByJournalId > 0 {
			existing, err := utils.FetchModel[models.JournalEntry](ctx, *original.ReversedByJournalId, "Lines")
			if err != nil {
				return err
			}
			reversal = existing
			return nil
		}

		entry, err := reverseJournalEntryTx(tx, &original, reason, actorId)
		if err != nil {
			config.LogError(logger, "journalReversal.go", "ReverseJournalEntry", "reverseJournalEntryTx", journalId, err)
			return err
		}
		reversal = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = reports.InvalidateReportCache()
	return reversal, nil
}

func reverseJournalEntryTx(tx *gorm.DB, original *models.JournalEntry, reason string, actorId int) (*models.JournalEntry, error) {

	reasonCopy := reason
	now := time.Now()

	lines := make([]models.JournalLine, 0, len(original.Lines))
	for _, l := range original.Lines {
		lines = append(lines, models.JournalLine{
			LineNo:      l.LineNo,
			AccountId:   l.AccountId,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		})
	}

	reversal := models.JournalEntry{
		Number:            "REV-" + original.Number,
		DateKey:           utils.DateKey(now),
		SequenceNo:        original.SequenceNo,
		EntryDate:         now,
		Description:       "Reversal: " + reasonCopy,
		Reference:         original.Reference,
		Status:            models.JournalStatusPosted,
		TotalDebit:        original.TotalCredit,
		TotalCredit:       original.TotalDebit,
		Lines:             lines,
		IsReversal:        true,
		ReversesJournalId: &original.ID,
		ReversalReason:    &reasonCopy,
		PostedAt:          &now,
		PostedBy:          actorId,
		CreatedBy:         actorId,
	}

	if err := tx.Create(&reversal).Error; err != nil {
		return nil, err
	}

	// compensating ledger rows, born reversed so replay skips the pair
	for _, l := range reversal.Lines {
		side := models.EntrySideDebit
		amount := l.Debit
		if l.Credit.GreaterThan(l.Debit) {
			side = models.EntrySideCredit
			amount = l.Credit
		}
		transaction := models.Transaction{
			Number:          fmt.Sprintf("%s-%d", reversal.Number, l.LineNo),
			DateKey:         reversal.DateKey,
			SequenceNo:      reversal.SequenceNo,
			TransactionDate: reversal.EntryDate,
			AccountId:       l.AccountId,
			EntrySide:       side,
			Amount:          amount,
			Description:     l.Description,
			ReferenceNumber: reversal.Reference,
			JournalEntryId:  &reversal.ID,
			JournalLineNo:   l.LineNo,
			Status:          models.TransactionStatusReversed,
			ReversedAt:      &now,
			CreatedBy:       actorId,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return nil, err
		}
		if err := models.ApplyBalanceDelta(tx, l.AccountId, side, amount); err != nil {
			return nil, err
		}
		_ = utils.RemoveRedisItem[models.Account](l.AccountId)
	}

	// flag the original rows; the immutability hook allows exactly this
	if err := tx.Model(&models.Transaction{}).
		Where("journal_entry_id = ?", original.ID).
		Updates(map[string]interface{}{
			"status":      models.TransactionStatusReversed,
			"reversed_at": &now,
		}).Error; err != nil {
		return nil, err
	}

	// metadata-only update on the original entry
	if err := tx.Model(&models.JournalEntry{}).
		Where("id = ?", original.ID).
		Updates(map[string]interface{}{
			"reversed_by_journal_id": reversal.ID,
			"reversal_reason":        &reasonCopy,
		}).Error; err != nil {
		return nil, err
	}

	if err := models.RecordAuditLog(tx, actorId, models.AuditActionReverse, "journal_entries", original.ID, original, &reversal); err != nil {
		return nil, err
	}
	return &reversal, nil
}
