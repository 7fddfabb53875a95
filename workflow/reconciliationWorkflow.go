package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/models"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

var (
	// ErrDuplicateReconciliation means the (delivery note, order line) pair was
	// already reconciled or disputed, either by this line on a previous submit
	// or by a sibling line. Receiving the same order line twice on one note is
	// a data error, never a silent merge.
	ErrDuplicateReconciliation = errors.New("order line already reconciled for this delivery note")
	// ErrLineNotActionable means the line's current state does not allow the
	// requested transition (e.g. voiding a reconciled line).
	ErrLineNotActionable = errors.New("delivery line state does not allow this action")
	ErrEffectsReversed   = errors.New("stock effects already reversed for this line")
)

// ReconciliationResult reports the outcome of one submit, with all quantities
// expressed in the item family's base unit.
type ReconciliationResult struct {
	LineId           int                      `json:"line_id"`
	State            models.DeliveryLineState `json:"state"`
	BaseUnitSymbol   string                   `json:"base_unit_symbol"`
	ExpectedQty      decimal.Decimal          `json:"expected_qty"`
	ReceivedQty      decimal.Decimal          `json:"received_qty"`
	DamagedQty       decimal.Decimal          `json:"damaged_qty"`
	MissingQty       decimal.Decimal          `json:"missing_qty"`
	DisputeQty       *decimal.Decimal         `json:"dispute_qty,omitempty"`
	DisputeDirection *models.DisputeDirection `json:"dispute_direction,omitempty"`
	CostEntryId      *int                     `json:"cost_entry_id,omitempty"`
}

// normalizedLine holds a delivery line's quantities converted to the family
// base unit, plus the delivered price restated per base unit so it compares
// against the cost ledger.
type normalizedLine struct {
	baseUnit         *models.StockUnit
	expected         decimal.Decimal
	received         decimal.Decimal
	damaged          decimal.Decimal
	missing          decimal.Decimal
	pricePerBaseUnit decimal.Decimal
}

func (n *normalizedLine) goodQty() decimal.Decimal {
	return n.received.Sub(n.damaged)
}

// normalizeLine converts the as-entered quantities into base units. The
// expected quantity comes from the order line (possibly a different unit of
// the same family). strict rejects units deactivated since the line was
// entered; overrides pass strict=false so a catalog change cannot strand a
// dispute.
func normalizeLine(graph *models.UnitGraph, line *models.DeliveryNoteItem, orderItem *models.PurchaseOrderItem, strict bool) (*normalizedLine, error) {
	recvUnit, err := graph.Unit(line.ReceivedUnitId)
	if err != nil {
		return nil, err
	}
	expUnit, err := graph.Unit(orderItem.ExpectedUnitId)
	if err != nil {
		return nil, err
	}
	if recvUnit.UnitType != expUnit.UnitType {
		return nil, fmt.Errorf("%w: received in %s (%s), ordered in %s (%s)",
			models.ErrUnitMismatch, recvUnit.Symbol, recvUnit.UnitType, expUnit.Symbol, expUnit.UnitType)
	}
	if strict {
		if recvUnit.IsActive != nil && !*recvUnit.IsActive {
			return nil, fmt.Errorf("%w: %s", models.ErrInactiveUnit, recvUnit.Symbol)
		}
		if expUnit.IsActive != nil && !*expUnit.IsActive {
			return nil, fmt.Errorf("%w: %s", models.ErrInactiveUnit, expUnit.Symbol)
		}
	}

	recvBase, received, err := graph.ResolveToBase(line.ReceivedUnitId, line.QuantityReceived)
	if err != nil {
		return nil, err
	}
	expBase, expected, err := graph.ResolveToBase(orderItem.ExpectedUnitId, orderItem.ExpectedQty)
	if err != nil {
		return nil, err
	}
	// Same unit type but different base roots means the catalog holds two
	// disjoint families of one type; they are not convertible.
	if recvBase.ID != expBase.ID {
		return nil, fmt.Errorf("%w: %s and %s share no base unit",
			models.ErrUnitMismatch, recvUnit.Symbol, expUnit.Symbol)
	}
	_, damaged, err := graph.ResolveToBase(line.ReceivedUnitId, line.QuantityDamaged)
	if err != nil {
		return nil, err
	}
	_, missing, err := graph.ResolveToBase(line.ReceivedUnitId, line.QuantityMissing)
	if err != nil {
		return nil, err
	}

	// UnitPrice is per received unit. qty * price is invariant under unit
	// change, so the per-base price divides by the conversion factor.
	price := line.UnitPrice
	if !recvUnit.IsBase() {
		price = price.Div(recvUnit.ConversionFactor)
	}

	return &normalizedLine{
		baseUnit:         recvBase,
		expected:         expected,
		received:         received,
		damaged:          damaged,
		missing:          missing,
		pricePerBaseUnit: price,
	}, nil
}

// computeDiscrepancy applies the balance rule: expected must equal received
// plus missing, exactly, in base units. Returns the absolute gap and its
// direction when the line does not balance.
func computeDiscrepancy(n *normalizedLine) (decimal.Decimal, models.DisputeDirection, bool) {
	diff := n.received.Add(n.missing).Sub(n.expected)
	if diff.IsZero() {
		return decimal.Zero, "", true
	}
	if diff.IsPositive() {
		return diff, models.DisputeDirectionOverReceived, false
	}
	return diff.Neg(), models.DisputeDirectionUnderReceived, false
}

// SubmitDeliveryLine runs the reconciliation decision for one draft line.
// Balanced lines become Reconciled and post their stock and cost effects
// atomically; unbalanced lines become Disputed with no effects. Concurrent
// submits against the same order line serialize on a per-order-line advisory
// lock; the loser either waits or gets ErrLockTimeout.
func SubmitDeliveryLine(ctx context.Context, lineId int) (*ReconciliationResult, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	line, err := models.GetDeliveryNoteItem(ctx, lineId)
	if err != nil {
		return nil, err
	}
	switch line.State {
	case models.DeliveryLineStateDraft:
	case models.DeliveryLineStateVoided:
		return nil, fmt.Errorf("%w: line is voided", ErrLineNotActionable)
	default:
		return nil, ErrDuplicateReconciliation
	}

	note, err := utils.FetchModel[models.DeliveryNote](ctx, businessId, line.DeliveryNoteId)
	if err != nil {
		return nil, err
	}
	orderItem, err := utils.FetchModel[models.PurchaseOrderItem](ctx, businessId, line.OrderItemId)
	if err != nil {
		return nil, err
	}
	graph, err := models.GetUnitGraph(ctx, businessId)
	if err != nil {
		return nil, err
	}
	normalized, err := normalizeLine(graph, line, orderItem, true)
	if err != nil {
		return nil, err
	}
	disputeQty, direction, balanced := computeDiscrepancy(normalized)

	userId := actorFromContext(ctx)
	var costEntryId *int

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderItemPostingLock(tx, businessId, line.OrderItemId); err != nil {
			return err
		}
		defer ReleaseOrderItemPostingLock(tx, businessId, line.OrderItemId)

		// Re-read under the lock; a concurrent submit may have won the race
		// between the pre-check above and here.
		var current models.DeliveryNoteItem
		if err := tx.Clauses(forUpdate()).
			Where("business_id = ?", businessId).
			First(&current, line.ID).Error; err != nil {
			return err
		}
		if current.State != models.DeliveryLineStateDraft {
			return ErrDuplicateReconciliation
		}
		// A sibling line for the same (note, order line) pair that already
		// left draft also counts as a duplicate.
		var siblings int64
		err := tx.Model(&models.DeliveryNoteItem{}).
			Where("business_id = ? AND delivery_note_id = ? AND order_item_id = ? AND id <> ? AND state IN ?",
				businessId, line.DeliveryNoteId, line.OrderItemId, line.ID,
				[]models.DeliveryLineState{models.DeliveryLineStateReconciled, models.DeliveryLineStateDisputed}).
			Count(&siblings).Error
		if err != nil {
			return err
		}
		if siblings > 0 {
			return ErrDuplicateReconciliation
		}

		now := time.Now().UTC()
		if !balanced {
			line.State = models.DeliveryLineStateDisputed
			return tx.Model(&current).Updates(map[string]interface{}{
				"State":            models.DeliveryLineStateDisputed,
				"DisputeQty":       disputeQty,
				"DisputeDirection": direction,
			}).Error
		}

		entryId, err := applyLineEffects(ctx, tx, businessId, note, line, orderItem, normalized, userId)
		if err != nil {
			return err
		}
		costEntryId = entryId
		line.State = models.DeliveryLineStateReconciled
		return tx.Model(&current).Updates(map[string]interface{}{
			"State":        models.DeliveryLineStateReconciled,
			"ReconciledAt": &now,
		}).Error
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "SubmitDeliveryLine", "Reconciling delivery line", lineId, err)
		return nil, err
	}

	result := &ReconciliationResult{
		LineId:         line.ID,
		State:          line.State,
		BaseUnitSymbol: normalized.baseUnit.Symbol,
		ExpectedQty:    normalized.expected,
		ReceivedQty:    normalized.received,
		DamagedQty:     normalized.damaged,
		MissingQty:     normalized.missing,
		CostEntryId:    costEntryId,
	}
	if !balanced {
		result.DisputeQty = &disputeQty
		result.DisputeDirection = &direction
	}
	return result, nil
}

// applyLineEffects posts the stock and cost consequences of accepting a line.
// Runs inside the caller's transaction under the order-line lock; either all
// effects land or none do.
func applyLineEffects(ctx context.Context, tx *gorm.DB, businessId string, note *models.DeliveryNote, line *models.DeliveryNoteItem, orderItem *models.PurchaseOrderItem, n *normalizedLine, userId *int) (*int, error) {
	goodQty := n.goodQty()
	stockDate := note.ReceiptDate

	receipt := models.StockHistory{
		BusinessId:        businessId,
		ItemId:            line.ItemId,
		StockDate:         stockDate,
		Qty:               goodQty,
		UnitId:            n.baseUnit.ID,
		Description:       "Delivery " + note.NoteNumber,
		ReferenceType:     models.StockReferenceTypeDeliveryNote,
		ReferenceId:       note.ID,
		ReferenceDetailId: line.ID,
	}
	if err := tx.Create(&receipt).Error; err != nil {
		return nil, err
	}
	if n.damaged.IsPositive() {
		waste := models.StockHistory{
			BusinessId:        businessId,
			ItemId:            line.ItemId,
			StockDate:         stockDate,
			Qty:               n.damaged,
			UnitId:            n.baseUnit.ID,
			Description:       "Damaged in delivery " + note.NoteNumber,
			ReferenceType:     models.StockReferenceTypeWaste,
			ReferenceId:       note.ID,
			ReferenceDetailId: line.ID,
		}
		if err := tx.Create(&waste).Error; err != nil {
			return nil, err
		}
	}
	if err := models.AdjustStockItemQuantities(tx, businessId, line.ItemId, goodQty, n.damaged); err != nil {
		return nil, err
	}

	var costEntryId *int
	currentCost, err := models.CurrentCostTx(tx, businessId, line.ItemId)
	if err != nil {
		return nil, err
	}
	if currentCost == nil || !currentCost.Equal(n.pricePerBaseUnit) {
		supplierId := orderItem.SupplierId
		if supplierId == nil {
			supplierId = note.SupplierId
		}
		entry, err := models.AppendCostLogEntryTx(tx, businessId, &models.NewStockCostLogEntry{
			ItemId:        line.ItemId,
			SupplierId:    supplierId,
			NewUnitCost:   n.pricePerBaseUnit,
			Reason:        models.CostChangeReasonSupplierPriceChange,
			EffectiveDate: note.ReceiptDate,
			Notes:         "Delivery " + note.NoteNumber,
		}, userId)
		if err != nil {
			return nil, err
		}
		costEntryId = &entry.ID

		var oldCost *string
		if entry.OldUnitCost != nil {
			s := entry.OldUnitCost.String()
			oldCost = &s
		}
		err = models.PublishStockEvent(ctx, tx, businessId, time.Now().UTC(), entry.ID,
			models.StockEventTypeCostChanged, models.CostChangedPayload{
				ItemId:        line.ItemId,
				CostEntryId:   entry.ID,
				OldUnitCost:   oldCost,
				NewUnitCost:   entry.NewUnitCost.String(),
				EffectiveDate: entry.EffectiveDate.Format("2006-01-02"),
			})
		if err != nil {
			return nil, err
		}
	}

	err = models.PublishStockEvent(ctx, tx, businessId, time.Now().UTC(), line.ID,
		models.StockEventTypeStockChanged, models.StockChangedPayload{
			ItemId:       line.ItemId,
			DeliveryLine: line.ID,
			GoodQty:      goodQty.String(),
			DamagedQty:   n.damaged.String(),
			BaseUnit:     n.baseUnit.Symbol,
		})
	if err != nil {
		return nil, err
	}
	return costEntryId, nil
}

// OverrideDispute accepts a disputed line as entered. Requires an
// authenticated actor and a non-empty note; both land on the line for audit.
// The effects posted are exactly those of a balanced submit with the
// as-entered quantities.
func OverrideDispute(ctx context.Context, lineId int, notes string) (*ReconciliationResult, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("override requires an authenticated user")
	}
	if notes == "" {
		return nil, errors.New("override requires a note")
	}

	line, err := models.GetDeliveryNoteItem(ctx, lineId)
	if err != nil {
		return nil, err
	}
	if line.State != models.DeliveryLineStateDisputed {
		return nil, fmt.Errorf("%w: only disputed lines can be overridden", ErrLineNotActionable)
	}
	note, err := utils.FetchModel[models.DeliveryNote](ctx, businessId, line.DeliveryNoteId)
	if err != nil {
		return nil, err
	}
	orderItem, err := utils.FetchModel[models.PurchaseOrderItem](ctx, businessId, line.OrderItemId)
	if err != nil {
		return nil, err
	}
	graph, err := models.GetUnitGraph(ctx, businessId)
	if err != nil {
		return nil, err
	}
	// Non-strict: the units were valid when the line was entered and a later
	// catalog deactivation must not strand the dispute.
	normalized, err := normalizeLine(graph, line, orderItem, false)
	if err != nil {
		return nil, err
	}

	var costEntryId *int
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderItemPostingLock(tx, businessId, line.OrderItemId); err != nil {
			return err
		}
		defer ReleaseOrderItemPostingLock(tx, businessId, line.OrderItemId)

		var current models.DeliveryNoteItem
		if err := tx.Clauses(forUpdate()).
			Where("business_id = ?", businessId).
			First(&current, line.ID).Error; err != nil {
			return err
		}
		if current.State != models.DeliveryLineStateDisputed {
			return fmt.Errorf("%w: only disputed lines can be overridden", ErrLineNotActionable)
		}

		entryId, err := applyLineEffects(ctx, tx, businessId, note, line, orderItem, normalized, &userId)
		if err != nil {
			return err
		}
		costEntryId = entryId
		now := time.Now().UTC()
		line.State = models.DeliveryLineStateReconciled
		return tx.Model(&current).Updates(map[string]interface{}{
			"State":          models.DeliveryLineStateReconciled,
			"ReconciledAt":   &now,
			"OverrideUserId": userId,
			"OverrideNotes":  notes,
			"OverriddenAt":   &now,
		}).Error
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "OverrideDispute", "Overriding disputed line", lineId, err)
		return nil, err
	}

	return &ReconciliationResult{
		LineId:         line.ID,
		State:          line.State,
		BaseUnitSymbol: normalized.baseUnit.Symbol,
		ExpectedQty:    normalized.expected,
		ReceivedQty:    normalized.received,
		DamagedQty:     normalized.damaged,
		MissingQty:     normalized.missing,
		CostEntryId:    costEntryId,
	}, nil
}

// VoidLine cancels a draft or disputed line. Reconciled lines are terminal;
// their effects are undone through ReverseLineStockEffects instead.
func VoidLine(ctx context.Context, lineId int, reason string) (*models.DeliveryNoteItem, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	line, err := models.GetDeliveryNoteItem(ctx, lineId)
	if err != nil {
		return nil, err
	}
	switch line.State {
	case models.DeliveryLineStateDraft, models.DeliveryLineStateDisputed:
	case models.DeliveryLineStateReconciled:
		return nil, fmt.Errorf("%w: reconciled lines cannot be voided, reverse their stock effects instead", ErrLineNotActionable)
	default:
		return nil, fmt.Errorf("%w: line is already voided", ErrLineNotActionable)
	}

	userId := actorFromContext(ctx)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderItemPostingLock(tx, businessId, line.OrderItemId); err != nil {
			return err
		}
		defer ReleaseOrderItemPostingLock(tx, businessId, line.OrderItemId)

		var current models.DeliveryNoteItem
		if err := tx.Clauses(forUpdate()).
			Where("business_id = ?", businessId).
			First(&current, line.ID).Error; err != nil {
			return err
		}
		if current.State != models.DeliveryLineStateDraft && current.State != models.DeliveryLineStateDisputed {
			return fmt.Errorf("%w: line left %s state", ErrLineNotActionable, line.State)
		}

		now := time.Now().UTC()
		line.State = models.DeliveryLineStateVoided
		return tx.Model(&current).Updates(map[string]interface{}{
			"State":      models.DeliveryLineStateVoided,
			"VoidedBy":   userId,
			"VoidReason": reason,
			"VoidedAt":   &now,
		}).Error
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "VoidLine", "Voiding delivery line", lineId, err)
		return nil, err
	}
	return line, nil
}

// ReverseLineStockEffects undoes a reconciled line's stock postings by
// inserting compensating ledger rows linked both ways to the originals. The
// line stays Reconciled (terminal) and is marked reversed; the cost chain is
// untouched, a correcting manual entry restates cost when needed.
func ReverseLineStockEffects(ctx context.Context, lineId int, reason string) (*models.DeliveryNoteItem, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if reason == "" {
		return nil, errors.New("reversal requires a reason")
	}
	line, err := models.GetDeliveryNoteItem(ctx, lineId)
	if err != nil {
		return nil, err
	}
	if line.State != models.DeliveryLineStateReconciled {
		return nil, fmt.Errorf("%w: only reconciled lines carry stock effects", ErrLineNotActionable)
	}
	if line.EffectsReversedAt != nil {
		return nil, ErrEffectsReversed
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderItemPostingLock(tx, businessId, line.OrderItemId); err != nil {
			return err
		}
		defer ReleaseOrderItemPostingLock(tx, businessId, line.OrderItemId)

		var current models.DeliveryNoteItem
		if err := tx.Clauses(forUpdate()).
			Where("business_id = ?", businessId).
			First(&current, line.ID).Error; err != nil {
			return err
		}
		if current.EffectsReversedAt != nil {
			return ErrEffectsReversed
		}

		var rows []models.StockHistory
		err := tx.Clauses(forUpdate()).
			Where("business_id = ? AND reference_detail_id = ? AND is_reversal = 0 AND reversed_by_stock_history_id IS NULL",
				businessId, line.ID).
			Find(&rows).Error
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		onHandDelta := decimal.Zero
		damagedDelta := decimal.Zero
		baseUnitId := 0
		for i := range rows {
			orig := rows[i]
			reversal := models.StockHistory{
				BusinessId:             businessId,
				ItemId:                 orig.ItemId,
				StockDate:              now,
				Qty:                    orig.Qty.Neg(),
				UnitId:                 orig.UnitId,
				Description:            "Reversal of " + orig.Description,
				ReferenceType:          orig.ReferenceType,
				ReferenceId:            orig.ReferenceId,
				ReferenceDetailId:      orig.ReferenceDetailId,
				IsReversal:             true,
				ReversesStockHistoryId: &orig.ID,
				ReversalReason:         &reason,
			}
			if err := tx.Create(&reversal).Error; err != nil {
				return err
			}
			err := tx.Model(&models.StockHistory{}).Where("id = ?", orig.ID).Updates(map[string]interface{}{
				"ReversedByStockHistoryId": reversal.ID,
				"ReversedAt":               &now,
			}).Error
			if err != nil {
				return err
			}
			baseUnitId = orig.UnitId
			switch orig.ReferenceType {
			case models.StockReferenceTypeWaste:
				damagedDelta = damagedDelta.Sub(orig.Qty)
			default:
				onHandDelta = onHandDelta.Sub(orig.Qty)
			}
		}
		if len(rows) > 0 {
			if err := models.AdjustStockItemQuantities(tx, businessId, line.ItemId, onHandDelta, damagedDelta); err != nil {
				return err
			}
			baseSymbol := ""
			graph, gErr := models.GetUnitGraph(ctx, businessId)
			if gErr == nil {
				if u, uErr := graph.Unit(baseUnitId); uErr == nil {
					baseSymbol = u.Symbol
				}
			}
			err = models.PublishStockEvent(ctx, tx, businessId, now, line.ID,
				models.StockEventTypeStockChanged, models.StockChangedPayload{
					ItemId:       line.ItemId,
					DeliveryLine: line.ID,
					GoodQty:      onHandDelta.String(),
					DamagedQty:   damagedDelta.String(),
					BaseUnit:     baseSymbol,
				})
			if err != nil {
				return err
			}
		}

		line.EffectsReversedAt = &now
		return tx.Model(&current).Update("EffectsReversedAt", &now).Error
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ReverseLineStockEffects", "Reversing delivery line effects", lineId, err)
		return nil, err
	}
	return line, nil
}

// AppendManualCostEntry records a cost change outside the delivery flow
// (market adjustment, contract renewal, manual correction). Serialized per
// item so the chain head read-modify-write stays consistent with concurrent
// reconciliations.
func AppendManualCostEntry(ctx context.Context, input *models.NewStockCostLogEntry) (*models.StockCostLogEntry, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateResourceId[models.StockItem](ctx, businessId, input.ItemId); err != nil {
		return nil, errors.New("item not found")
	}
	userId := actorFromContext(ctx)

	var entry *models.StockCostLogEntry
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireItemCostLock(tx, businessId, input.ItemId); err != nil {
			return err
		}
		defer ReleaseItemCostLock(tx, businessId, input.ItemId)

		created, err := models.AppendCostLogEntryTx(tx, businessId, input, userId)
		if err != nil {
			return err
		}
		entry = created

		var oldCost *string
		if created.OldUnitCost != nil {
			s := created.OldUnitCost.String()
			oldCost = &s
		}
		return models.PublishStockEvent(ctx, tx, businessId, time.Now().UTC(), created.ID,
			models.StockEventTypeCostChanged, models.CostChangedPayload{
				ItemId:        created.ItemId,
				CostEntryId:   created.ID,
				OldUnitCost:   oldCost,
				NewUnitCost:   created.NewUnitCost.String(),
				EffectiveDate: created.EffectiveDate.Format("2006-01-02"),
			})
	})
	if err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "AppendManualCostEntry", "Appending manual cost entry", input, err)
		return nil, err
	}
	return entry, nil
}

func actorFromContext(ctx context.Context) *int {
	if id, ok := utils.GetUserIdFromContext(ctx); ok && id != 0 {
		return &id
	}
	return nil
}
