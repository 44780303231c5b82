package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatEntryNumber(t *testing.T) {
	date := time.Date(2026, 2, 3, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "JRN-20260203-0001", FormatEntryNumber("JRN", date, 1))
	assert.Equal(t, "PAY-20260203-0042", FormatEntryNumber("PAY", date, 42))
	assert.Equal(t, "INV-20260203-12345", FormatEntryNumber("INV", date, 12345))
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "20261231", DateKey(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "20260101", DateKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRoundMoney(t *testing.T) {
	assert.True(t, RoundMoney(decimal.NewFromFloat(10.005)).Equal(decimal.NewFromFloat(10.01)))
	assert.True(t, RoundMoney(decimal.NewFromFloat(10.004)).Equal(decimal.NewFromFloat(10.00)))
	assert.True(t, RoundMoney(decimal.NewFromFloat(-3.335)).Equal(decimal.NewFromFloat(-3.34)))
}

func TestIsWithinTolerance(t *testing.T) {
	assert.True(t, IsWithinTolerance(decimal.Zero))
	assert.True(t, IsWithinTolerance(decimal.NewFromFloat(0.01)))
	assert.True(t, IsWithinTolerance(decimal.NewFromFloat(-0.01)))
	assert.False(t, IsWithinTolerance(decimal.NewFromFloat(0.011)))
	assert.False(t, IsWithinTolerance(decimal.NewFromFloat(-0.02)))
}

func TestStartEndOfDay(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Riyadh")
	at := time.Date(2026, 6, 15, 13, 30, 45, 0, loc)

	start := StartOfDay(at)
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, loc, start.Location())

	end := EndOfDay(at)
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 59, end.Second())
	assert.Equal(t, start.Day(), end.Day())
}

func TestGetQuarterRange(t *testing.T) {
	start, end := GetQuarterRange(2026, time.May)
	assert.Equal(t, time.April, start.Month())
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, time.June, end.Month())
	assert.Equal(t, 30, end.Day())
}

func TestGetStartAndEndDateInvalidFilter(t *testing.T) {
	_, _, err := GetStartAndEndDate("lastFortnight")
	assert.Error(t, err)
}

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
	assert.Nil(t, UniqueSlice([]string(nil)))
}

func TestNilIfEmpty(t *testing.T) {
	assert.Nil(t, NilIfEmpty(""))
	if got := NilIfEmpty("x"); assert.NotNil(t, got) {
		assert.Equal(t, "x", *got)
	}
	assert.Nil(t, NilIfEmpty(0))
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 12.50 ")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromFloat(12.5)))

	_, err = ParseDecimal("")
	assert.Error(t, err)

	_, err = ParseDecimal("abc")
	assert.Error(t, err)
}
