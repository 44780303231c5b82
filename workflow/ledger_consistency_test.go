package workflow

import (
	"sync"
	"testing"

	"github.com/daftarhq/daftar_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the intended
// posting semantics on an in-memory ledger:
// - posting applies each balanced entry exactly once under concurrency
// - reversal marks BOTH the original and the compensating rows reversed,
//   so a replay over active rows always matches the cached balance
//
// Full MySQL integration tests belong in an environment that can run the
// real database.

type memRow struct {
	accountId int
	side      models.EntrySide
	amount    decimal.Decimal
	reversed  bool
}

type memLedger struct {
	mu      sync.Mutex
	cached  map[int]decimal.Decimal
	rows    []*memRow
	posted  map[string]bool
	entries map[string][]*memRow
}

func newMemLedger() *memLedger {
	return &memLedger{
		cached:  map[int]decimal.Decimal{},
		posted:  map[string]bool{},
		entries: map[string][]*memRow{},
	}
}

func (l *memLedger) apply(accountId int, side models.EntrySide, amount decimal.Decimal) {
	if side == models.EntrySideDebit {
		l.cached[accountId] = l.cached[accountId].Add(amount)
	} else {
		l.cached[accountId] = l.cached[accountId].Sub(amount)
	}
}

// post mirrors PostJournalEntry: serialized, draft-once, one row per line.
func (l *memLedger) post(number string, lines []models.NewJournalLine) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.posted[number] {
		return false
	}
	if _, _, err := models.ValidateJournalLines(lines); err != nil {
		return false
	}
	l.posted[number] = true

	for _, line := range lines {
		side := models.EntrySideDebit
		amount := line.Debit
		if line.Credit.GreaterThan(decimal.Zero) {
			side = models.EntrySideCredit
			amount = line.Credit
		}
		row := &memRow{accountId: line.AccountId, side: side, amount: amount}
		l.rows = append(l.rows, row)
		l.entries[number] = append(l.entries[number], row)
		l.apply(line.AccountId, side, amount)
	}
	return true
}

// reverse mirrors ReverseJournalEntry: compensating rows are born
// reversed, originals flip to reversed, cached balances take both deltas.
func (l *memLedger) reverse(number string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	originals := l.entries[number]
	if len(originals) == 0 || originals[0].reversed {
		return false
	}
	for _, row := range originals {
		swapped := models.EntrySideDebit
		if row.side == models.EntrySideDebit {
			swapped = models.EntrySideCredit
		}
		comp := &memRow{accountId: row.accountId, side: swapped, amount: row.amount, reversed: true}
		l.rows = append(l.rows, comp)
		l.apply(comp.accountId, comp.side, comp.amount)
		row.reversed = true
	}
	return true
}

// replay derives balances from active rows only, the way reports do.
func (l *memLedger) replay() map[int]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := map[int]decimal.Decimal{}
	for _, row := range l.rows {
		if row.reversed {
			continue
		}
		if row.side == models.EntrySideDebit {
			out[row.accountId] = out[row.accountId].Add(row.amount)
		} else {
			out[row.accountId] = out[row.accountId].Sub(row.amount)
		}
	}
	return out
}

func (l *memLedger) cachedSnapshot() map[int]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[int]decimal.Decimal{}
	for k, v := range l.cached {
		out[k] = v
	}
	return out
}

func requireBalancesMatch(t *testing.T, cached, replayed map[int]decimal.Decimal) {
	t.Helper()
	for accountId, want := range cached {
		if !want.Equal(replayed[accountId]) {
			t.Fatalf("account %d: cached %s != replayed %s", accountId, want, replayed[accountId])
		}
	}
	for accountId, got := range replayed {
		if _, ok := cached[accountId]; !ok && !got.IsZero() {
			t.Fatalf("account %d: replay has %s but cache never saw it", accountId, got)
		}
	}
}

func balancedLines(amount string) []models.NewJournalLine {
	v, _ := decimal.NewFromString(amount)
	return []models.NewJournalLine{
		{AccountId: 1, Debit: v},
		{AccountId: 2, Credit: v},
	}
}

func TestDuplicatePostIsAppliedOnce(t *testing.T) {
	l := newMemLedger()

	var wg sync.WaitGroup
	applied := make(chan bool, 25)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied <- l.post("JRN-20260201-0001", balancedLines("100"))
		}()
	}
	wg.Wait()
	close(applied)

	wins := 0
	for ok := range applied {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 successful post, got %d", wins)
	}
	want, _ := decimal.NewFromString("100")
	if got := l.cachedSnapshot()[1]; !got.Equal(want) {
		t.Fatalf("account 1 cached = %s, want 100", got)
	}
}

func TestReversalKeepsCachedEqualToReplay(t *testing.T) {
	l := newMemLedger()

	l.post("JRN-20260201-0001", balancedLines("500"))
	l.post("JRN-20260201-0002", balancedLines("120"))
	if !l.reverse("JRN-20260201-0001") {
		t.Fatal("reverse failed")
	}
	// second reversal of the same entry is a no-op
	if l.reverse("JRN-20260201-0001") {
		t.Fatal("double reversal should not apply twice")
	}

	cached := l.cachedSnapshot()
	want, _ := decimal.NewFromString("120")
	if !cached[1].Equal(want) {
		t.Fatalf("account 1 cached = %s, want 120", cached[1])
	}
	requireBalancesMatch(t, cached, l.replay())
}

func TestConcurrentPostAndReverseStaysConsistent(t *testing.T) {
	for run := 0; run < 100; run++ {
		l := newMemLedger()
		var wg sync.WaitGroup

		numbers := []string{
			"JRN-20260301-0001",
			"JRN-20260301-0002",
			"JRN-20260301-0003",
		}
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				number := numbers[i%len(numbers)]
				l.post(number, balancedLines("50"))
				if i%2 == 0 {
					l.reverse(numbers[0])
				}
			}(i)
		}
		wg.Wait()

		requireBalancesMatch(t, l.cachedSnapshot(), l.replay())

		// the books as a whole always net to zero
		total := decimal.Zero
		for _, v := range l.cachedSnapshot() {
			total = total.Add(v)
		}
		if !total.IsZero() {
			t.Fatalf("run=%d ledger does not net to zero: %s", run, total)
		}
	}
}

func TestUnbalancedEntryNeverPosts(t *testing.T) {
	l := newMemLedger()
	bad := []models.NewJournalLine{
		{AccountId: 1, Debit: decimal.NewFromInt(100)},
		{AccountId: 2, Credit: decimal.NewFromInt(90)},
	}
	if l.post("JRN-20260401-0001", bad) {
		t.Fatal("unbalanced entry must not post")
	}
	if len(l.replay()) != 0 {
		t.Fatal("no rows should exist after a rejected post")
	}
}
