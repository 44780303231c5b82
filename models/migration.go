package models

import (
	"log"

	"github.com/daftarhq/daftar_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{},
		&Transaction{},
		&JournalEntry{}, &JournalLine{},
		&Customer{}, &Supplier{},
		&Product{},
		&Invoice{}, &InvoiceItem{},
		&Payment{},
		&User{},
		&AuditLog{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
