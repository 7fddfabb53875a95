package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// kg/g (weight), l/ml (volume), pcs/dz (count) plus a deactivated "case" unit.
func testUnitGraph() *UnitGraph {
	return NewUnitGraph([]*StockUnit{
		{ID: 1, Name: "Kilogram", Symbol: "kg", UnitType: UnitTypeWeight, ConversionFactor: dec("1"), IsActive: boolPtr(true)},
		{ID: 2, Name: "Gram", Symbol: "g", UnitType: UnitTypeWeight, BaseUnitId: intPtr(1), ConversionFactor: dec("0.001"), IsActive: boolPtr(true)},
		{ID: 3, Name: "Liter", Symbol: "l", UnitType: UnitTypeVolume, ConversionFactor: dec("1"), IsActive: boolPtr(true)},
		{ID: 4, Name: "Milliliter", Symbol: "ml", UnitType: UnitTypeVolume, BaseUnitId: intPtr(3), ConversionFactor: dec("0.001"), IsActive: boolPtr(true)},
		{ID: 5, Name: "Piece", Symbol: "pcs", UnitType: UnitTypeCount, ConversionFactor: dec("1"), IsActive: boolPtr(true)},
		{ID: 6, Name: "Dozen", Symbol: "dz", UnitType: UnitTypeCount, BaseUnitId: intPtr(5), ConversionFactor: dec("12"), IsActive: boolPtr(true)},
		{ID: 7, Name: "Case", Symbol: "case", UnitType: UnitTypeCount, BaseUnitId: intPtr(5), ConversionFactor: dec("24"), IsActive: boolPtr(false)},
	})
}

func TestResolveToBase(t *testing.T) {
	g := testUnitGraph()

	base, qty, err := g.ResolveToBase(2, dec("2500"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ID != 1 {
		t.Fatalf("expected base kg (id 1), got id %d", base.ID)
	}
	if !qty.Equal(dec("2.5")) {
		t.Fatalf("expected 2.5 kg, got %s", qty)
	}

	// A base unit resolves to itself unchanged.
	base, qty, err = g.ResolveToBase(1, dec("7.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.ID != 1 || !qty.Equal(dec("7.25")) {
		t.Fatalf("base resolve changed quantity: base=%d qty=%s", base.ID, qty)
	}
}

func TestConvert(t *testing.T) {
	g := testUnitGraph()

	tests := []struct {
		name    string
		from    int
		to      int
		qty     string
		strict  bool
		want    string
		wantErr error
	}{
		{name: "g to kg", from: 2, to: 1, qty: "2500", strict: true, want: "2.5"},
		{name: "kg to g", from: 1, to: 2, qty: "2.5", strict: true, want: "2500"},
		{name: "dz to pcs", from: 6, to: 5, qty: "3", strict: true, want: "36"},
		{name: "pcs to dz", from: 5, to: 6, qty: "18", strict: true, want: "1.5"},
		{name: "same unit", from: 2, to: 2, qty: "42", strict: true, want: "42"},
		{name: "weight to volume", from: 2, to: 4, qty: "100", strict: true, wantErr: ErrUnitMismatch},
		{name: "unknown from", from: 99, to: 1, qty: "1", strict: true, wantErr: ErrUnknownUnit},
		{name: "inactive strict", from: 7, to: 5, qty: "2", strict: true, wantErr: ErrInactiveUnit},
		{name: "inactive historical", from: 7, to: 5, qty: "2", strict: false, want: "48"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.Convert(tc.from, tc.to, dec(tc.qty), tc.strict)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

// Converting to another unit and back must reproduce the original quantity;
// decimal arithmetic carries no float drift for these factors.
func TestConvertRoundTrip(t *testing.T) {
	g := testUnitGraph()

	pairs := [][2]int{{1, 2}, {3, 4}, {5, 6}}
	quantities := []string{"1", "0.0001", "2500", "123456.789", "0.3333"}

	for _, pair := range pairs {
		for _, q := range quantities {
			qty := dec(q)
			there, err := g.Convert(pair[0], pair[1], qty, true)
			if err != nil {
				t.Fatalf("convert %d->%d: %v", pair[0], pair[1], err)
			}
			back, err := g.Convert(pair[1], pair[0], there, true)
			if err != nil {
				t.Fatalf("convert %d->%d: %v", pair[1], pair[0], err)
			}
			if !back.Equal(qty) {
				t.Fatalf("round trip %d<->%d lost precision: %s -> %s -> %s", pair[0], pair[1], qty, there, back)
			}
		}
	}
}

func TestSameFamily(t *testing.T) {
	g := testUnitGraph()
	if !g.SameFamily(1, 2) {
		t.Fatal("kg and g should be the same family")
	}
	if g.SameFamily(1, 3) {
		t.Fatal("kg and l should not be the same family")
	}
	if g.SameFamily(1, 99) {
		t.Fatal("unknown unit should never match a family")
	}
}

func TestDisplayQuantity(t *testing.T) {
	tests := []struct {
		qty       string
		precision Precision
		want      string
	}{
		{qty: "2.456", precision: PrecisionTwo, want: "2.46"},
		{qty: "2.456", precision: PrecisionZero, want: "2"},
		{qty: "2.5", precision: PrecisionZero, want: "3"},
		{qty: "0.00009", precision: PrecisionFour, want: "0.0001"},
	}
	for _, tc := range tests {
		got := DisplayQuantity(dec(tc.qty), tc.precision)
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("DisplayQuantity(%s, %s) = %s, expected %s", tc.qty, tc.precision, got, tc.want)
		}
	}
}
