package models

import (
	"errors"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity,
		AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// IsDebitNormal tells which side increases the account on reports.
// The stored balance column uses the stored-sign convention instead
// (debit adds, credit subtracts) so it is signed per side, not per type.
func (t AccountType) IsDebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

type EntrySide string

const (
	EntrySideDebit  EntrySide = "debit"
	EntrySideCredit EntrySide = "credit"
)

func (s EntrySide) IsValid() bool {
	return s == EntrySideDebit || s == EntrySideCredit
}

type TransactionStatus string

const (
	TransactionStatusActive   TransactionStatus = "active"
	TransactionStatusReversed TransactionStatus = "reversed"
)

type JournalStatus string

const (
	JournalStatusDraft     JournalStatus = "draft"
	JournalStatusPosted    JournalStatus = "posted"
	JournalStatusCancelled JournalStatus = "cancelled"
)

type InvoiceType string

const (
	InvoiceTypeSales    InvoiceType = "sales"
	InvoiceTypePurchase InvoiceType = "purchase"
)

func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeSales || t == InvoiceTypePurchase
}

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	// ConfirmInvoice moves drafts here; the stored value follows the
	// document lifecycle wording (an issued invoice is "sent").
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

type PaymentType string

const (
	// money coming in, usually against a sales invoice or from a customer
	PaymentTypeReceipt PaymentType = "receipt"
	// money going out, usually against a purchase invoice or to a supplier
	PaymentTypePayment PaymentType = "payment"
)

func (t PaymentType) IsValid() bool {
	return t == PaymentTypeReceipt || t == PaymentTypePayment
}

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodBank     PaymentMethod = "bank_transfer"
	PaymentMethodCheque   PaymentMethod = "cheque"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodOnline   PaymentMethod = "online"
	PaymentMethodInternal PaymentMethod = "internal"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodCheque,
		PaymentMethodCard, PaymentMethodOnline, PaymentMethodInternal:
		return true
	}
	return false
}

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleAccountant UserRole = "accountant"
	UserRoleAuditor    UserRole = "auditor"
	UserRoleUser       UserRole = "user"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAdmin, UserRoleAccountant, UserRoleAuditor, UserRoleUser:
		return true
	}
	return false
}

// CanPost tells whether the role may post journal entries or record payments.
func (r UserRole) CanPost() bool {
	return r == UserRoleAdmin || r == UserRoleAccountant
}

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionPost    AuditAction = "post"
	AuditActionCancel  AuditAction = "cancel"
	AuditActionReverse AuditAction = "reverse"
	AuditActionLogin   AuditAction = "login"
)

var ErrInvalidEnum = errors.New("invalid enum value")
