package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

func setRow(f *excelize.File, rowNo int, values ...interface{}) {
	col := 'A'
	for _, value := range values {
		f.SetCellValue(exportSheet, fmt.Sprintf("%c%d", col, rowNo), value)
		col++
	}
}

// WriteTrialBalanceExcel streams the trial balance as an xlsx workbook.
// Amounts are written as floats so spreadsheet formulas work on them.
func WriteTrialBalanceExcel(w io.Writer, report *TrialBalanceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	setRow(f, 1, "Code", "Account", "Account (EN)", "Type", "Opening", "Debit", "Credit", "Balance", "Side")
	rowNo := 2
	for _, row := range report.Rows {
		setRow(f, rowNo,
			row.AccountCode,
			row.AccountName,
			row.AccountNameEn,
			row.AccountType,
			row.OpeningBalance.InexactFloat64(),
			row.Debit.InexactFloat64(),
			row.Credit.InexactFloat64(),
			row.Balance.InexactFloat64(),
			row.BalanceType,
		)
		rowNo++
	}
	setRow(f, rowNo+1, "", "", "", "", "Total",
		report.TotalDebit.InexactFloat64(),
		report.TotalCredit.InexactFloat64())

	return f.Write(w)
}

// WriteCustomerStatementExcel streams one customer's statement with the
// replayed opening balance on top and the running balance per line.
func WriteCustomerStatementExcel(w io.Writer, report *CustomerStatementReport) error {
	f := excelize.NewFile()
	defer f.Close()

	setRow(f, 1, "Customer", report.CustomerName)
	setRow(f, 2, "From", report.FromDate.Format("2006-01-02"), "To", report.ToDate.Format("2006-01-02"))
	setRow(f, 3, "Opening Balance", report.OpeningBalance.InexactFloat64())

	setRow(f, 5, "Date", "Number", "Type", "Description", "Debit", "Credit", "Balance")
	rowNo := 6
	for _, line := range report.Lines {
		setRow(f, rowNo,
			line.Date.Format("2006-01-02"),
			line.Number,
			line.DocType,
			line.Description,
			line.Debit.InexactFloat64(),
			line.Credit.InexactFloat64(),
			line.RunningBalance.InexactFloat64(),
		)
		rowNo++
	}
	setRow(f, rowNo+1, "", "", "", "Total",
		report.TotalDebit.InexactFloat64(),
		report.TotalCredit.InexactFloat64(),
		report.ClosingBalance.InexactFloat64(),
	)

	return f.Write(w)
}
