package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/daftarhq/daftar_backend/config"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "SA"

// BalanceTolerance is the rounding slack allowed when checking that a
// journal entry's debits equal its credits.
var BalanceTolerance = decimal.NewFromFloat(0.01)

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil // Phone number is valid for the specified country code
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func NilIfEmpty[T comparable](ptr T) *T {
	var defaultZero T
	if ptr == defaultZero {
		return nil
	}
	return &ptr
}

// RoundMoney rounds to 2 decimal places, the precision every stored
// amount and balance carries.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsWithinTolerance reports whether |d| <= BalanceTolerance.
func IsWithinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(BalanceTolerance)
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// DateKey formats a document date the way entry numbers embed it.
func DateKey(t time.Time) string {
	return t.Format("20060102")
}

// FormatEntryNumber builds document numbers like JRN-20260203-0001.
func FormatEntryNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, DateKey(date), seq)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable second of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
}

// GetThisMonthRange returns the start and end dates of the current month.
func GetThisMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetPreviousMonthRange returns the start and end dates of the previous month.
func GetPreviousMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetQuarterRange returns the start and end dates for the quarter containing the specified month.
func GetQuarterRange(year int, month time.Month) (time.Time, time.Time) {
	startMonth := ((int(month)-1)/3)*3 + 1
	start := time.Date(year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetYearRange returns Jan 1 through Dec 31 of the given year.
func GetYearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}

// GetStartAndEndDate resolves a named period filter into a date range.
func GetStartAndEndDate(filterType string) (time.Time, time.Time, error) {
	now := time.Now()
	switch filterType {
	case "thisMonth":
		s, e := GetThisMonthRange()
		return s, e, nil
	case "previousMonth":
		s, e := GetPreviousMonthRange()
		return s, e, nil
	case "thisQuarter":
		s, e := GetQuarterRange(now.Year(), now.Month())
		return s, e, nil
	case "thisYear":
		s, e := GetYearRange(now.Year())
		return s, e, nil
	case "previousYear":
		s, e := GetYearRange(now.Year() - 1)
		return s, e, nil
	default:
		return time.Time{}, time.Time{}, errors.New("invalid filter type")
	}
}

// NamedLock serializes a cross-instance critical section through redis.
// The returned release func is a no-op when redis is not configured.
func NamedLock(ctx context.Context, lockKey string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock", lockKey, err)
		return nil, errors.New("could not obtain lock " + lockKey)
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", lockKey, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
