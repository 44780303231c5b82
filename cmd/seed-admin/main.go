// seed-admin creates or updates the admin user and, on an empty ledger,
// seeds the default bilingual chart of accounts.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Env:
//   SEED_ADMIN_USERNAME (default "admin")
//   SEED_ADMIN_PASSWORD (default "Admin@12345"; change it after first login)
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/daftarhq/daftar_backend/config"
	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedAccount struct {
	Code        string
	Name        string
	NameEn      string
	AccountType models.AccountType
}

// the default chart mirrors what a small Saudi trading business expects
var defaultChart = []seedAccount{
	{"1000", "الأصول", "Assets", models.AccountTypeAsset},
	{"1100", "الصندوق", "Cash", models.AccountTypeAsset},
	{"1200", "البنك", "Bank", models.AccountTypeAsset},
	{"1300", "العملاء", "Accounts Receivable", models.AccountTypeAsset},
	{"1400", "المخزون", "Inventory", models.AccountTypeAsset},
	{"2000", "الالتزامات", "Liabilities", models.AccountTypeLiability},
	{"2100", "الموردون", "Accounts Payable", models.AccountTypeLiability},
	{"2200", "ضريبة القيمة المضافة", "VAT Payable", models.AccountTypeLiability},
	{"3000", "حقوق الملكية", "Equity", models.AccountTypeEquity},
	{"3100", "رأس المال", "Capital", models.AccountTypeEquity},
	{"4000", "الإيرادات", "Revenue", models.AccountTypeRevenue},
	{"4100", "المبيعات", "Sales", models.AccountTypeRevenue},
	{"5000", "المصروفات", "Expenses", models.AccountTypeExpense},
	{"5100", "تكلفة البضاعة المباعة", "Cost of Goods Sold", models.AccountTypeExpense},
	{"5200", "الرواتب", "Salaries", models.AccountTypeExpense},
	{"5300", "الإيجار", "Rent", models.AccountTypeExpense},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	username := os.Getenv("SEED_ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin@12345"
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: username,
			FullName: "Administrator",
			Password: string(hashed),
			Role:     models.UserRoleAdmin,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: username=%q\n", username)
	} else {
		if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(map[string]any{
			"password":  string(hashed),
			"role":      models.UserRoleAdmin,
			"is_active": true,
		}).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated admin user: username=%q\n", username)
	}

	var accountCount int64
	if err := db.WithContext(ctx).Model(&models.Account{}).Count(&accountCount).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to count accounts: %v\n", err)
		os.Exit(1)
	}
	if accountCount > 0 {
		fmt.Printf("Chart of accounts already present (%d accounts), leaving it alone\n", accountCount)
		return
	}

	parents := map[string]int{}
	for _, seed := range defaultChart {
		account := models.Account{
			Code:           seed.Code,
			Name:           seed.Name,
			NameEn:         seed.NameEn,
			AccountType:    seed.AccountType,
			OpeningBalance: decimal.Zero,
			IsActive:       utils.NewTrue(),
		}
		// top-level codes end in 000; everything else hangs off its
		// thousand group
		if seed.Code[1:] != "000" {
			if parentId, ok := parents[seed.Code[:1]+"000"]; ok {
				account.ParentAccountId = parentId
			}
		}
		if err := db.WithContext(ctx).Create(&account).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create account %s: %v\n", seed.Code, err)
			os.Exit(1)
		}
		parents[seed.Code] = account.ID
	}
	fmt.Printf("Seeded %d accounts\n", len(defaultChart))
}
