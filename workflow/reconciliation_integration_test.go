package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/models"
	"github.com/innstack/hms_backend/utils"
	"github.com/innstack/hms_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end reconciliation against a real MySQL (and optionally Redis).
// Set INTEGRATION_TESTS=1 plus the usual DB_* env vars to run.
func TestReconciliationEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires MySQL)")
	}

	config.ConnectDatabaseWithRetry()
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	}
	models.MigrateTable()

	ctx := context.Background()
	businessId := fmt.Sprintf("it-%d", time.Now().UnixNano())
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	kg, err := models.CreateStockUnit(ctx, &models.NewStockUnit{
		Name: "Kilogram", Symbol: "kg", UnitType: models.UnitTypeWeight,
	})
	if err != nil {
		t.Fatalf("CreateStockUnit kg: %v", err)
	}
	factor := decimal.RequireFromString("0.001")
	if _, err := models.CreateStockUnit(ctx, &models.NewStockUnit{
		Name: "Gram", Symbol: "g", UnitType: models.UnitTypeWeight,
		BaseUnitId: &kg.ID, ConversionFactor: factor,
	}); err != nil {
		t.Fatalf("CreateStockUnit g: %v", err)
	}

	item, err := models.CreateStockItem(ctx, &models.NewStockItem{
		Name: "Jasmine Rice", UnitId: kg.ID,
	})
	if err != nil {
		t.Fatalf("CreateStockItem: %v", err)
	}

	orderItem, err := models.CreatePurchaseOrderItem(ctx, &models.NewPurchaseOrderItem{
		OrderNumber: "PO-1", ItemId: item.ID,
		ExpectedQty: decimal.RequireFromString("100"), ExpectedUnitId: kg.ID,
		OrderUnitPrice: decimal.RequireFromString("2.00"),
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrderItem: %v", err)
	}

	note, err := models.CreateDeliveryNote(ctx, &models.NewDeliveryNote{
		NoteNumber:  "DN-1",
		ReceiptDate: time.Now().UTC(),
		Items: []models.NewDeliveryNoteItem{{
			OrderItemId:      orderItem.ID,
			QuantityReceived: decimal.RequireFromString("95"),
			QuantityDamaged:  decimal.RequireFromString("3"),
			QuantityMissing:  decimal.RequireFromString("5"),
			ReceivedUnitId:   kg.ID,
			UnitPrice:        decimal.RequireFromString("2.10"),
		}},
	})
	if err != nil {
		t.Fatalf("CreateDeliveryNote: %v", err)
	}
	lineId := note.Items[0].ID

	// Balanced line: 95 received + 5 missing = 100 expected.
	result, err := workflow.SubmitDeliveryLine(ctx, lineId)
	if err != nil {
		t.Fatalf("SubmitDeliveryLine: %v", err)
	}
	if result.State != models.DeliveryLineStateReconciled {
		t.Fatalf("expected reconciled, got %s", result.State)
	}
	if result.CostEntryId == nil {
		t.Fatal("price moved from none to 2.10; expected a cost entry")
	}

	// Good quantity lands on-hand, damaged is tracked separately.
	fresh, err := models.GetStockItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetStockItem: %v", err)
	}
	if !fresh.OnHandQty.Equal(decimal.RequireFromString("92")) {
		t.Fatalf("expected 92 on hand, got %s", fresh.OnHandQty)
	}
	if !fresh.DamagedQty.Equal(decimal.RequireFromString("3")) {
		t.Fatalf("expected 3 damaged, got %s", fresh.DamagedQty)
	}

	cost, err := models.CurrentCost(ctx, item.ID)
	if err != nil {
		t.Fatalf("CurrentCost: %v", err)
	}
	if cost == nil || !cost.Equal(decimal.RequireFromString("2.10")) {
		t.Fatalf("expected current cost 2.10, got %v", cost)
	}

	// Second submit of the same pair is a duplicate, never a merge.
	if _, err := workflow.SubmitDeliveryLine(ctx, lineId); !errors.Is(err, workflow.ErrDuplicateReconciliation) {
		t.Fatalf("expected ErrDuplicateReconciliation, got %v", err)
	}

	// Unbalanced line goes to dispute with no stock effects.
	order2, err := models.CreatePurchaseOrderItem(ctx, &models.NewPurchaseOrderItem{
		OrderNumber: "PO-2", ItemId: item.ID,
		ExpectedQty: decimal.RequireFromString("100"), ExpectedUnitId: kg.ID,
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrderItem: %v", err)
	}
	note2, err := models.CreateDeliveryNote(ctx, &models.NewDeliveryNote{
		NoteNumber:  "DN-2",
		ReceiptDate: time.Now().UTC(),
		Items: []models.NewDeliveryNoteItem{{
			OrderItemId:      order2.ID,
			QuantityReceived: decimal.RequireFromString("90"),
			QuantityMissing:  decimal.RequireFromString("5"),
			ReceivedUnitId:   kg.ID,
			UnitPrice:        decimal.RequireFromString("2.10"),
		}},
	})
	if err != nil {
		t.Fatalf("CreateDeliveryNote: %v", err)
	}
	line2 := note2.Items[0].ID

	result, err = workflow.SubmitDeliveryLine(ctx, line2)
	if err != nil {
		t.Fatalf("SubmitDeliveryLine: %v", err)
	}
	if result.State != models.DeliveryLineStateDisputed {
		t.Fatalf("expected disputed, got %s", result.State)
	}
	if result.DisputeQty == nil || !result.DisputeQty.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected dispute qty 5, got %v", result.DisputeQty)
	}
	if result.DisputeDirection == nil || *result.DisputeDirection != models.DisputeDirectionUnderReceived {
		t.Fatalf("expected under_received, got %v", result.DisputeDirection)
	}
	fresh, _ = models.GetStockItem(ctx, item.ID)
	if !fresh.OnHandQty.Equal(decimal.RequireFromString("92")) {
		t.Fatalf("dispute must not move stock; on hand = %s", fresh.OnHandQty)
	}

	// Supervisor override accepts the as-entered quantities.
	result, err = workflow.OverrideDispute(ctx, line2, "supplier short-shipped, credit agreed")
	if err != nil {
		t.Fatalf("OverrideDispute: %v", err)
	}
	if result.State != models.DeliveryLineStateReconciled {
		t.Fatalf("expected reconciled after override, got %s", result.State)
	}
	fresh, _ = models.GetStockItem(ctx, item.ID)
	if !fresh.OnHandQty.Equal(decimal.RequireFromString("182")) {
		t.Fatalf("expected 182 on hand after override, got %s", fresh.OnHandQty)
	}

	// The cost chain stays linked across both receipts.
	entries, err := models.CostHistory(ctx, item.ID, nil, nil)
	if err != nil {
		t.Fatalf("CostHistory: %v", err)
	}
	if breaks := models.VerifyCostChain(entries); breaks != nil {
		t.Fatalf("cost chain broken: %v", breaks)
	}

	// Backdated appends would corrupt the chain; they are rejected outright.
	if _, err := workflow.AppendManualCostEntry(ctx, &models.NewStockCostLogEntry{
		ItemId:        item.ID,
		NewUnitCost:   decimal.RequireFromString("1.95"),
		Reason:        models.CostChangeReasonManualUpdate,
		EffectiveDate: time.Now().UTC().AddDate(0, 0, -1),
	}); !errors.Is(err, models.ErrOutOfOrderEffectiveDate) {
		t.Fatalf("expected ErrOutOfOrderEffectiveDate, got %v", err)
	}

	// A draft line can be voided; voided is terminal.
	note3, err := models.CreateDeliveryNote(ctx, &models.NewDeliveryNote{
		NoteNumber:  "DN-3",
		ReceiptDate: time.Now().UTC(),
		Items: []models.NewDeliveryNoteItem{{
			OrderItemId:      order2.ID,
			QuantityReceived: decimal.RequireFromString("100"),
			ReceivedUnitId:   kg.ID,
			UnitPrice:        decimal.RequireFromString("2.10"),
		}},
	})
	if err != nil {
		t.Fatalf("CreateDeliveryNote: %v", err)
	}
	line3 := note3.Items[0].ID
	voided, err := workflow.VoidLine(ctx, line3, "entered against the wrong order")
	if err != nil {
		t.Fatalf("VoidLine: %v", err)
	}
	if voided.State != models.DeliveryLineStateVoided {
		t.Fatalf("expected voided, got %s", voided.State)
	}
	if _, err := workflow.SubmitDeliveryLine(ctx, line3); !errors.Is(err, workflow.ErrLineNotActionable) {
		t.Fatalf("expected ErrLineNotActionable submitting a voided line, got %v", err)
	}
	if _, err := workflow.VoidLine(ctx, line3, "again"); !errors.Is(err, workflow.ErrLineNotActionable) {
		t.Fatalf("expected ErrLineNotActionable voiding twice, got %v", err)
	}

	// A disputed line can be voided instead of overridden; no stock moves.
	note4, err := models.CreateDeliveryNote(ctx, &models.NewDeliveryNote{
		NoteNumber:  "DN-4",
		ReceiptDate: time.Now().UTC(),
		Items: []models.NewDeliveryNoteItem{{
			OrderItemId:      order2.ID,
			QuantityReceived: decimal.RequireFromString("80"),
			QuantityMissing:  decimal.RequireFromString("10"),
			ReceivedUnitId:   kg.ID,
			UnitPrice:        decimal.RequireFromString("2.10"),
		}},
	})
	if err != nil {
		t.Fatalf("CreateDeliveryNote: %v", err)
	}
	line4 := note4.Items[0].ID
	result, err = workflow.SubmitDeliveryLine(ctx, line4)
	if err != nil {
		t.Fatalf("SubmitDeliveryLine: %v", err)
	}
	if result.State != models.DeliveryLineStateDisputed {
		t.Fatalf("expected disputed, got %s", result.State)
	}
	voided, err = workflow.VoidLine(ctx, line4, "short shipment cancelled with supplier")
	if err != nil {
		t.Fatalf("VoidLine: %v", err)
	}
	if voided.State != models.DeliveryLineStateVoided {
		t.Fatalf("expected voided, got %s", voided.State)
	}
	fresh, _ = models.GetStockItem(ctx, item.ID)
	if !fresh.OnHandQty.Equal(decimal.RequireFromString("182")) {
		t.Fatalf("voiding must not move stock; on hand = %s", fresh.OnHandQty)
	}

	// Reversal inserts compensating rows and restores the summary.
	if _, err := workflow.ReverseLineStockEffects(ctx, lineId, "receiving error"); err != nil {
		t.Fatalf("ReverseLineStockEffects: %v", err)
	}
	fresh, _ = models.GetStockItem(ctx, item.ID)
	if !fresh.OnHandQty.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("expected 90 on hand after reversal, got %s", fresh.OnHandQty)
	}
	if !fresh.DamagedQty.IsZero() {
		t.Fatalf("expected 0 damaged after reversal, got %s", fresh.DamagedQty)
	}
	if _, err := workflow.ReverseLineStockEffects(ctx, lineId, "again"); !errors.Is(err, workflow.ErrEffectsReversed) {
		t.Fatalf("expected ErrEffectsReversed, got %v", err)
	}
}
