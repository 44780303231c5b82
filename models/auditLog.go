package models

import (
	"time"

	"github.com/daftarhq/daftar_backend/utils"
	"gorm.io/gorm"
)

// AuditLog keeps a trail of every mutation, written inside the same
// database transaction as the change itself.
type AuditLog struct {
	ID         int         `gorm:"primary_key" json:"id"`
	UserId     int         `gorm:"index" json:"user_id"`
	Action     AuditAction `gorm:"size:20;index;not null" json:"action"`
	TableName  string      `gorm:"size:50;index;not null" json:"table_name"`
	RecordId   int         `gorm:"index" json:"record_id"`
	OldValues  *string     `gorm:"type:text" json:"old_values"`
	NewValues  *string     `gorm:"type:text" json:"new_values"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func RecordAuditLog(tx *gorm.DB, userId int, action AuditAction, tableName string, recordId int, oldObj any, newObj any) error {
	entry := AuditLog{
		UserId:    userId,
		Action:    action,
		TableName: tableName,
		RecordId:  recordId,
	}
	if oldObj != nil {
		s, err := utils.MarshalToJSON(oldObj)
		if err != nil {
			return err
		}
		entry.OldValues = &s
	}
	if newObj != nil {
		s, err := utils.MarshalToJSON(newObj)
		if err != nil {
			return err
		}
		entry.NewValues = &s
	}
	return tx.Create(&entry).Error
}
