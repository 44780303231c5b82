package models

import (
	"errors"
	"testing"

	"github.com/daftarhq/daftar_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func TestValidateJournalLinesBalanced(t *testing.T) {
	debit, credit, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("150")},
		{AccountId: 2, Credit: d("100")},
		{AccountId: 3, Credit: d("50")},
	})
	require.NoError(t, err)
	assert.True(t, debit.Equal(d("150")))
	assert.True(t, credit.Equal(d("150")))
}

func TestValidateJournalLinesWithinTolerance(t *testing.T) {
	// a rounding remainder of one halala is accepted
	_, _, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("100.00")},
		{AccountId: 2, Credit: d("99.99")},
	})
	assert.NoError(t, err)
}

func TestValidateJournalLinesBalancesRoundedAmounts(t *testing.T) {
	// ten half-halala debits net to 0.008 against the raw credit, but each
	// line stores as 0.01, so the entry really says 0.10 against 0.05
	lines := make([]NewJournalLine, 0, 11)
	for i := 0; i < 10; i++ {
		lines = append(lines, NewJournalLine{AccountId: i + 1, Debit: d("0.005")})
	}
	lines = append(lines, NewJournalLine{AccountId: 11, Credit: d("0.05")})

	_, _, err := ValidateJournalLines(lines)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrorUnbalancedEntry))
}

func TestValidateJournalLinesUnbalanced(t *testing.T) {
	_, _, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("100.00")},
		{AccountId: 2, Credit: d("99.98")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrorUnbalancedEntry))
}

func TestValidateJournalLinesNeedsTwoLines(t *testing.T) {
	_, _, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("10")},
	})
	assert.Error(t, err)

	_, _, err = ValidateJournalLines(nil)
	assert.Error(t, err)
}

func TestValidateJournalLinesRejectsNegative(t *testing.T) {
	_, _, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("-10")},
		{AccountId: 2, Credit: d("-10")},
	})
	assert.Error(t, err)
}

func TestValidateJournalLinesOneSidePerLine(t *testing.T) {
	// both sides set
	_, _, err := ValidateJournalLines([]NewJournalLine{
		{AccountId: 1, Debit: d("10"), Credit: d("10")},
		{AccountId: 2, Credit: d("10")},
	})
	assert.Error(t, err)

	// neither side set
	_, _, err = ValidateJournalLines([]NewJournalLine{
		{AccountId: 1},
		{AccountId: 2, Credit: d("10")},
	})
	assert.Error(t, err)
}

func TestJournalEntryHooksBlockPostedMutation(t *testing.T) {
	posted := &JournalEntry{Status: JournalStatusPosted}
	assert.Error(t, posted.BeforeDelete(nil))

	draft := &JournalEntry{Status: JournalStatusDraft}
	assert.NoError(t, draft.BeforeDelete(nil))
	// drafts may be updated freely; the field gate only arms once posted
	assert.NoError(t, draft.BeforeUpdate(nil))
}
