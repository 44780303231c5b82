package utils

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrorRecordNotFound  = errors.New("record not found")
	ErrorInvalidState    = errors.New("invalid state")
	ErrorUnbalancedEntry = errors.New("unbalanced journal entry")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrorInvalidStatef wraps ErrorInvalidState with a reason so callers can
// match with errors.Is while keeping the message.
func ErrorInvalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorInvalidState, fmt.Sprintf(format, args...))
}

func ErrorUnbalancedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorUnbalancedEntry, fmt.Sprintf(format, args...))
}

// IsDuplicateKey reports a MySQL unique constraint violation. Document
// numbers carry unique indexes, so a sequence race surfaces as 1062.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
