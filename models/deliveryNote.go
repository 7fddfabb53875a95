package models

import (
	"context"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// DeliveryNote is what the receiving clerk submits: one physical delivery,
// owning its line items.
type DeliveryNote struct {
	ID          int                `gorm:"primary_key" json:"id"`
	BusinessId  string             `gorm:"index;not null;uniqueIndex:udx_note_number,priority:1" json:"business_id"`
	NoteNumber  string             `gorm:"size:100;not null;uniqueIndex:udx_note_number,priority:2" json:"note_number" binding:"required"`
	SupplierId  *int               `gorm:"index" json:"supplier_id"`
	ReceiptDate time.Time          `gorm:"not null" json:"receipt_date"`
	Notes       string             `gorm:"type:text" json:"notes"`
	Items       []DeliveryNoteItem `gorm:"foreignKey:DeliveryNoteId" json:"items"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// DeliveryNoteItem is one delivery line resolved against its originating
// order line. Quantity fields are immutable once the line leaves Draft:
// corrections are new lines, never edits, to preserve the audit trail.
type DeliveryNoteItem struct {
	ID             int    `gorm:"primary_key" json:"id"`
	BusinessId     string `gorm:"index;not null" json:"business_id"`
	DeliveryNoteId int    `gorm:"index;not null;index:idx_note_order,priority:1" json:"delivery_note_id"`
	OrderItemId    int    `gorm:"index;not null;index:idx_note_order,priority:2" json:"order_item_id"`
	ItemId         int    `gorm:"index;not null" json:"item_id"`
	// Quantities are in ReceivedUnitId; the engine normalizes to the family
	// base unit during reconciliation.
	QuantityExpected decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_expected"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_received"`
	QuantityDamaged  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_damaged"`
	QuantityMissing  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_missing"`
	ReceivedUnitId   int             `gorm:"not null" json:"received_unit_id"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	ConditionStatus  ConditionStatus `gorm:"type:enum('good','damaged','defective','expired');default:'good'" json:"condition_status"`
	ConditionNotes   string          `gorm:"type:text" json:"condition_notes"`

	State DeliveryLineState `gorm:"type:enum('draft','reconciled','disputed','voided');default:'draft';index" json:"state"`
	// Dispute details, set when the balance check fails (base units).
	DisputeQty       *decimal.Decimal  `gorm:"type:decimal(20,4)" json:"dispute_qty"`
	DisputeDirection *DisputeDirection `gorm:"type:enum('over_received','under_received')" json:"dispute_direction"`
	ReconciledAt     *time.Time        `json:"reconciled_at"`
	// Supervisor override of a disputed line.
	OverrideUserId *int       `json:"override_user_id"`
	OverrideNotes  *string    `gorm:"type:text" json:"override_notes"`
	OverriddenAt   *time.Time `json:"overridden_at"`
	// Void bookkeeping (only reachable from draft/disputed).
	VoidedBy   *int       `json:"voided_by"`
	VoidReason *string    `gorm:"type:text" json:"void_reason"`
	VoidedAt   *time.Time `json:"voided_at"`
	// Set when a reconciled line's stock effects were reversed by
	// compensating ledger rows.
	EffectsReversedAt *time.Time `json:"effects_reversed_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDeliveryNoteItem struct {
	OrderItemId      int             `json:"order_item_id" binding:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	QuantityDamaged  decimal.Decimal `json:"quantity_damaged"`
	QuantityMissing  decimal.Decimal `json:"quantity_missing"`
	ReceivedUnitId   int             `json:"received_unit_id" binding:"required"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ConditionStatus  ConditionStatus `json:"condition_status"`
	ConditionNotes   string          `json:"condition_notes"`
}

type NewDeliveryNote struct {
	NoteNumber  string                `json:"note_number" binding:"required"`
	SupplierId  *int                  `json:"supplier_id"`
	ReceiptDate time.Time             `json:"receipt_date" binding:"required" time_format:"2006-01-02"`
	Notes       string                `json:"notes"`
	Items       []NewDeliveryNoteItem `json:"items" binding:"required,dive"`
}

func (input *NewDeliveryNoteItem) validate(ctx context.Context, businessId string) (*PurchaseOrderItem, error) {
	if input.QuantityReceived.IsNegative() || input.QuantityDamaged.IsNegative() || input.QuantityMissing.IsNegative() {
		return nil, errors.New("quantities cannot be negative")
	}
	if input.QuantityReceived.LessThan(input.QuantityDamaged) {
		return nil, errors.New("damaged quantity exceeds received quantity")
	}
	if input.UnitPrice.IsNegative() {
		return nil, errors.New("unit price cannot be negative")
	}
	orderItem, err := utils.FetchModel[PurchaseOrderItem](ctx, businessId, input.OrderItemId)
	if err != nil {
		return nil, errors.New("order item not found")
	}
	if err := utils.ValidateResourceId[StockUnit](ctx, businessId, input.ReceivedUnitId); err != nil {
		return nil, errors.New("received unit not found")
	}
	return orderItem, nil
}

// CreateDeliveryNote records a note with its lines in Draft. Reconciliation
// (state transitions, stock and cost effects) is a separate step per line.
func CreateDeliveryNote(ctx context.Context, input *NewDeliveryNote) (*DeliveryNote, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if len(input.Items) == 0 {
		return nil, errors.New("delivery note needs at least one line")
	}
	if err := utils.ValidateUnique[DeliveryNote](ctx, businessId, "note_number", input.NoteNumber, 0); err != nil {
		return nil, err
	}

	note := DeliveryNote{
		BusinessId:  businessId,
		NoteNumber:  input.NoteNumber,
		SupplierId:  input.SupplierId,
		ReceiptDate: utils.TruncateToDate(input.ReceiptDate),
		Notes:       input.Notes,
	}
	for _, line := range input.Items {
		orderItem, err := line.validate(ctx, businessId)
		if err != nil {
			return nil, err
		}
		condition := line.ConditionStatus
		if condition == "" {
			condition = ConditionStatusGood
		}
		note.Items = append(note.Items, DeliveryNoteItem{
			BusinessId:       businessId,
			OrderItemId:      line.OrderItemId,
			ItemId:           orderItem.ItemId,
			QuantityExpected: orderItem.ExpectedQty,
			QuantityReceived: line.QuantityReceived,
			QuantityDamaged:  line.QuantityDamaged,
			QuantityMissing:  line.QuantityMissing,
			ReceivedUnitId:   line.ReceivedUnitId,
			UnitPrice:        line.UnitPrice,
			ConditionStatus:  condition,
			ConditionNotes:   line.ConditionNotes,
			State:            DeliveryLineStateDraft,
		})
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&note).Error
	if err != nil {
		// The pre-check above races with concurrent creates; the unique index
		// is the real guard.
		if isDuplicateKeyErr(err) {
			return nil, errors.New("duplicate note_number")
		}
		return nil, err
	}
	return &note, nil
}

func GetDeliveryNote(ctx context.Context, id int) (*DeliveryNote, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[DeliveryNote](ctx, businessId, id, "Items")
}

func GetDeliveryNoteItem(ctx context.Context, id int) (*DeliveryNoteItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[DeliveryNoteItem](ctx, businessId, id)
}

// AppendConditionNotes is the only post-creation edit a line accepts besides
// state transitions; quantities stay frozen.
func AppendConditionNotes(ctx context.Context, id int, notes string) (*DeliveryNoteItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	line, err := utils.FetchModel[DeliveryNoteItem](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	combined := line.ConditionNotes
	if combined != "" {
		combined += "\n"
	}
	combined += notes

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&line).Update("ConditionNotes", combined).Error
	if err != nil {
		return nil, err
	}
	return line, nil
}
