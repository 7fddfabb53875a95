package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func costEntry(id int, old *decimal.Decimal, newCost string, effective time.Time, created time.Time) *StockCostLogEntry {
	return &StockCostLogEntry{
		ID:            id,
		ItemId:        1,
		OldUnitCost:   old,
		NewUnitCost:   dec(newCost),
		EffectiveDate: effective,
		CreatedAt:     created,
	}
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestVerifyCostChainValid(t *testing.T) {
	entries := []*StockCostLogEntry{
		costEntry(1, nil, "2.00", day(1), day(1)),
		costEntry(2, decPtr("2.00"), "2.10", day(5), day(5)),
		costEntry(3, decPtr("2.10"), "1.95", day(9), day(9)),
	}
	if breaks := VerifyCostChain(entries); breaks != nil {
		t.Fatalf("expected no breaks, got %v", breaks)
	}
}

func TestVerifyCostChainEmpty(t *testing.T) {
	if breaks := VerifyCostChain(nil); breaks != nil {
		t.Fatalf("expected no breaks for empty chain, got %v", breaks)
	}
}

func TestVerifyCostChainFirstEntryMustBeNull(t *testing.T) {
	entries := []*StockCostLogEntry{
		costEntry(1, decPtr("1.50"), "2.00", day(1), day(1)),
		costEntry(2, decPtr("2.00"), "2.10", day(5), day(5)),
	}
	breaks := VerifyCostChain(entries)
	if len(breaks) != 1 {
		t.Fatalf("expected 1 break, got %d", len(breaks))
	}
	if breaks[0].EntryId != 1 {
		t.Fatalf("expected break on entry 1, got %d", breaks[0].EntryId)
	}
}

func TestVerifyCostChainBrokenLink(t *testing.T) {
	entries := []*StockCostLogEntry{
		costEntry(1, nil, "2.00", day(1), day(1)),
		costEntry(2, decPtr("1.80"), "2.10", day(5), day(5)),
	}
	breaks := VerifyCostChain(entries)
	if len(breaks) != 1 {
		t.Fatalf("expected 1 break, got %d", len(breaks))
	}
	b := breaks[0]
	if b.EntryId != 2 || b.PrevEntryId != 1 {
		t.Fatalf("expected break on entry 2 against 1, got entry %d prev %d", b.EntryId, b.PrevEntryId)
	}
	if !strings.Contains(b.Reason, "1.8") {
		t.Fatalf("break reason should carry the mismatched cost: %s", b.Reason)
	}
}

func TestVerifyCostChainNonFirstNullOldCost(t *testing.T) {
	entries := []*StockCostLogEntry{
		costEntry(1, nil, "2.00", day(1), day(1)),
		costEntry(2, nil, "2.10", day(5), day(5)),
	}
	breaks := VerifyCostChain(entries)
	if len(breaks) != 1 {
		t.Fatalf("expected 1 break, got %d", len(breaks))
	}
	if breaks[0].EntryId != 2 {
		t.Fatalf("expected break on entry 2, got %d", breaks[0].EntryId)
	}
}

// Chain order is (effective_date, created_at, id); the verifier must not
// depend on slice order.
func TestVerifyCostChainUnsortedInput(t *testing.T) {
	entries := []*StockCostLogEntry{
		costEntry(3, decPtr("2.10"), "1.95", day(9), day(9)),
		costEntry(1, nil, "2.00", day(1), day(1)),
		costEntry(2, decPtr("2.00"), "2.10", day(5), day(5)),
	}
	if breaks := VerifyCostChain(entries); breaks != nil {
		t.Fatalf("expected no breaks for shuffled valid chain, got %v", breaks)
	}
}

// Same-day entries tie-break by created_at then id.
func TestVerifyCostChainSameDayEntries(t *testing.T) {
	morning := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC)
	entries := []*StockCostLogEntry{
		costEntry(1, nil, "2.00", day(5), morning),
		costEntry(2, decPtr("2.00"), "2.25", day(5), evening),
	}
	if breaks := VerifyCostChain(entries); breaks != nil {
		t.Fatalf("expected no breaks, got %v", breaks)
	}

	// Flip the linkage and it must report.
	entries[1].OldUnitCost = decPtr("2.50")
	if breaks := VerifyCostChain(entries); len(breaks) != 1 {
		t.Fatalf("expected 1 break after corrupting link, got %d", len(breaks))
	}
}
