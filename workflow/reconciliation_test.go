package workflow

import (
	"errors"
	"testing"

	"github.com/innstack/hms_backend/models"
	"github.com/shopspring/decimal"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testGraph() *models.UnitGraph {
	return models.NewUnitGraph([]*models.StockUnit{
		{ID: 1, Name: "Kilogram", Symbol: "kg", UnitType: models.UnitTypeWeight, ConversionFactor: dec("1"), IsActive: boolPtr(true)},
		{ID: 2, Name: "Gram", Symbol: "g", UnitType: models.UnitTypeWeight, BaseUnitId: intPtr(1), ConversionFactor: dec("0.001"), IsActive: boolPtr(true)},
		{ID: 3, Name: "Liter", Symbol: "l", UnitType: models.UnitTypeVolume, ConversionFactor: dec("1"), IsActive: boolPtr(true)},
		{ID: 4, Name: "Sack", Symbol: "sack", UnitType: models.UnitTypeWeight, BaseUnitId: intPtr(1), ConversionFactor: dec("25"), IsActive: boolPtr(false)},
	})
}

func line(received, damaged, missing, price string, unitId int) *models.DeliveryNoteItem {
	return &models.DeliveryNoteItem{
		ID:               10,
		QuantityReceived: dec(received),
		QuantityDamaged:  dec(damaged),
		QuantityMissing:  dec(missing),
		UnitPrice:        dec(price),
		ReceivedUnitId:   unitId,
	}
}

func orderLine(expected string, unitId int) *models.PurchaseOrderItem {
	return &models.PurchaseOrderItem{
		ID:             20,
		ExpectedQty:    dec(expected),
		ExpectedUnitId: unitId,
	}
}

func TestNormalizeLineSameUnit(t *testing.T) {
	g := testGraph()
	n, err := normalizeLine(g, line("95", "0", "5", "2.10", 1), orderLine("100", 1), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.baseUnit.Symbol != "kg" {
		t.Fatalf("expected base kg, got %s", n.baseUnit.Symbol)
	}
	if !n.expected.Equal(dec("100")) || !n.received.Equal(dec("95")) || !n.missing.Equal(dec("5")) {
		t.Fatalf("normalization changed same-unit quantities: %+v", n)
	}
	if !n.pricePerBaseUnit.Equal(dec("2.10")) {
		t.Fatalf("base-unit price should pass through, got %s", n.pricePerBaseUnit)
	}
}

func TestNormalizeLineCrossUnit(t *testing.T) {
	g := testGraph()
	// Ordered 2.5 kg, received 2000 g with 500 g missing at 0.002 per gram.
	n, err := normalizeLine(g, line("2000", "0", "500", "0.002", 2), orderLine("2.5", 1), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.received.Equal(dec("2")) {
		t.Fatalf("expected 2 kg received, got %s", n.received)
	}
	if !n.missing.Equal(dec("0.5")) {
		t.Fatalf("expected 0.5 kg missing, got %s", n.missing)
	}
	// 0.002 per gram is 2.00 per kilogram.
	if !n.pricePerBaseUnit.Equal(dec("2")) {
		t.Fatalf("expected 2 per kg, got %s", n.pricePerBaseUnit)
	}
}

func TestNormalizeLineUnitMismatch(t *testing.T) {
	g := testGraph()
	_, err := normalizeLine(g, line("10", "0", "0", "1", 3), orderLine("10", 1), true)
	if !errors.Is(err, models.ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
}

func TestNormalizeLineInactiveUnit(t *testing.T) {
	g := testGraph()
	_, err := normalizeLine(g, line("4", "0", "0", "50", 4), orderLine("100", 1), true)
	if !errors.Is(err, models.ErrInactiveUnit) {
		t.Fatalf("expected ErrInactiveUnit in strict mode, got %v", err)
	}

	// Overrides re-run normalization without the active check.
	n, err := normalizeLine(g, line("4", "0", "0", "50", 4), orderLine("100", 1), false)
	if err != nil {
		t.Fatalf("unexpected error in non-strict mode: %v", err)
	}
	if !n.received.Equal(dec("100")) {
		t.Fatalf("expected 100 kg from 4 sacks, got %s", n.received)
	}
	// 50 per 25 kg sack is 2 per kg.
	if !n.pricePerBaseUnit.Equal(dec("2")) {
		t.Fatalf("expected 2 per kg, got %s", n.pricePerBaseUnit)
	}
}

func TestNormalizeLineUnknownUnit(t *testing.T) {
	g := testGraph()
	_, err := normalizeLine(g, line("10", "0", "0", "1", 99), orderLine("10", 1), true)
	if !errors.Is(err, models.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestComputeDiscrepancy(t *testing.T) {
	tests := []struct {
		name          string
		expected      string
		received      string
		damaged       string
		missing       string
		wantBalanced  bool
		wantQty       string
		wantDirection models.DisputeDirection
	}{
		// Damaged goods still count as received; 95 + 5 missing balances 100.
		{name: "balanced with missing", expected: "100", received: "95", missing: "5", wantBalanced: true},
		{name: "balanced exact", expected: "100", received: "100", missing: "0", wantBalanced: true},
		{name: "balanced with damage", expected: "100", received: "100", damaged: "10", missing: "0", wantBalanced: true},
		{name: "under received", expected: "100", received: "90", missing: "5", wantQty: "5", wantDirection: models.DisputeDirectionUnderReceived},
		{name: "over received", expected: "100", received: "105", missing: "0", wantQty: "5", wantDirection: models.DisputeDirectionOverReceived},
		{name: "fractional gap", expected: "2.5", received: "2.4999", missing: "0", wantQty: "0.0001", wantDirection: models.DisputeDirectionUnderReceived},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			damaged := tc.damaged
			if damaged == "" {
				damaged = "0"
			}
			n := &normalizedLine{
				expected: dec(tc.expected),
				received: dec(tc.received),
				damaged:  dec(damaged),
				missing:  dec(tc.missing),
			}
			qty, direction, balanced := computeDiscrepancy(n)
			if balanced != tc.wantBalanced {
				t.Fatalf("balanced = %v, expected %v", balanced, tc.wantBalanced)
			}
			if tc.wantBalanced {
				return
			}
			if !qty.Equal(dec(tc.wantQty)) {
				t.Fatalf("dispute qty = %s, expected %s", qty, tc.wantQty)
			}
			if direction != tc.wantDirection {
				t.Fatalf("direction = %s, expected %s", direction, tc.wantDirection)
			}
		})
	}
}

func TestGoodQty(t *testing.T) {
	n := &normalizedLine{received: dec("100"), damaged: dec("10")}
	if !n.goodQty().Equal(dec("90")) {
		t.Fatalf("expected good qty 90, got %s", n.goodQty())
	}
}
