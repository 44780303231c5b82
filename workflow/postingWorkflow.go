package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/models/reports"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PostJournalEntry moves a draft entry into the ledger: one transaction
// row per line, cached account balances shifted by the stored-sign
// convention, entry marked posted. Everything happens in one database
// transaction under the posting lock, so a crash mid-way leaves nothing
// half-applied and a concurrent post of the same entry fails the draft
// check.
func PostJournalEntry(ctx context.Context, journalId int, actorId int) (*models.JournalEntry, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	var posted *models.JournalEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquirePostingLock(tx); err != nil {
			config.LogError(logger, "postingWorkflow.go", "PostJournalEntry", "AcquirePostingLock", journalId, err)
			return err
		}
		defer ReleasePostingLock(tx)

		entry, err := postJournalEntryTx(tx, logger, journalId, actorId)
		if err != nil {
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = reports.InvalidateReportCache()
	return posted, nil
}

func postJournalEntryTx(tx *gorm.DB, logger *logrus.Logger, journalId int, actorId int) (*models.JournalEntry, error) {

	var entry models.JournalEntry
	if err := tx.Preload("Lines").First(&entry, journalId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if entry.Status != models.JournalStatusDraft {
		return nil, utils.ErrorInvalidStatef("journal entry %s is %s, only drafts can be posted", entry.Number, entry.Status)
	}

	// re-check the balance law at posting time; drafts are validated on
	// create but the ledger is the last line of defense
	diff := entry.TotalDebit.Sub(entry.TotalCredit)
	if !utils.IsWithinTolerance(diff) {
		return nil, utils.ErrorUnbalancedf("entry %s off by %s", entry.Number, diff.String())
	}

	before := entry
	now := time.Now()

	for _, line := range entry.Lines {
		side := models.EntrySideDebit
		amount := line.Debit
		if line.Credit.GreaterThan(line.Debit) {
			side = models.EntrySideCredit
			amount = line.Credit
		}

		transaction := models.Transaction{
			Number:          fmt.Sprintf("%s-%d", entry.Number, line.LineNo),
			DateKey:         entry.DateKey,
			SequenceNo:      entry.SequenceNo,
			TransactionDate: entry.EntryDate,
			AccountId:       line.AccountId,
			EntrySide:       side,
			Amount:          amount,
			Description:     line.Description,
			ReferenceNumber: entry.Reference,
			JournalEntryId:  &entry.ID,
			JournalLineNo:   line.LineNo,
			Status:          models.TransactionStatusActive,
			CreatedBy:       actorId,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			config.LogError(logger, "postingWorkflow.go", "postJournalEntryTx", "CreateTransaction", transaction, err)
			return nil, err
		}
		if err := models.ApplyBalanceDelta(tx, line.AccountId, side, amount); err != nil {
			config.LogError(logger, "postingWorkflow.go", "postJournalEntryTx", "ApplyBalanceDelta", line, err)
			return nil, err
		}
		_ = utils.RemoveRedisItem[models.Account](line.AccountId)
	}

	if err := tx.Model(&entry).Updates(map[string]interface{}{
		"Status":   models.JournalStatusPosted,
		"PostedAt": now,
		"PostedBy": actorId,
	}).Error; err != nil {
		config.LogError(logger, "postingWorkflow.go", "postJournalEntryTx", "MarkPosted", entry.ID, err)
		return nil, err
	}
	entry.Status = models.JournalStatusPosted
	entry.PostedAt = &now
	entry.PostedBy = actorId

	if err := models.RecordAuditLog(tx, actorId, models.AuditActionPost, "journal_entries", entry.ID, &before, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
