package models

import (
	"testing"
)

func TestStockItemDisplayRounding(t *testing.T) {
	tests := []struct {
		name      string
		onHand    string
		precision Precision
		want      string
	}{
		{name: "whole units", onHand: "92.4999", precision: PrecisionZero, want: "92"},
		{name: "two places", onHand: "92.4999", precision: PrecisionTwo, want: "92.5"},
		{name: "full precision kept", onHand: "92.4999", precision: PrecisionFour, want: "92.4999"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := &StockItem{
				OnHandQty:        dec(tc.onHand),
				DisplayPrecision: tc.precision,
			}
			if err := item.AfterFind(nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !item.OnHandDisplay.Equal(dec(tc.want)) {
				t.Fatalf("display = %s, expected %s", item.OnHandDisplay, tc.want)
			}
			if !item.OnHandQty.Equal(dec(tc.onHand)) {
				t.Fatalf("stored quantity must stay untouched, got %s", item.OnHandQty)
			}
		})
	}
}
