package workflow

// Standardized reasons stored in journal_entries.reversal_reason.
// Callers may pass free text; these cover the common cases.
const (
	ReversalReasonManualCorrection = "Manual correction"
	ReversalReasonDuplicateEntry   = "Duplicate entry"
	ReversalReasonInvoiceVoid      = "Invoice void"
	ReversalReasonPaymentVoid      = "Payment void"
)
