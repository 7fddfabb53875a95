package models

import (
	"time"

	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockHistory is the append-only on-hand ledger behind StockItem summaries.
// Receipts write positive rows (DN), the damaged subset of a receipt writes a
// waste row (WST). Rows are never edited; undoing a reconciled receipt inserts
// linked reversal rows.
type StockHistory struct {
	ID            int                `gorm:"primary_key" json:"id"`
	BusinessId    string             `gorm:"index;not null" json:"business_id"`
	ItemId        int                `gorm:"index;not null" json:"item_id"`
	StockDate     time.Time          `gorm:"not null" json:"stock_date"`
	Qty           decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"qty"`
	UnitId        int                `gorm:"not null" json:"unit_id"`
	Description   string             `gorm:"size:100;not null" json:"description"`
	ReferenceType StockReferenceType `gorm:"type:enum('DN','WST')" json:"reference_type"`
	ReferenceId   int                `gorm:"index" json:"reference_id"`
	// ReferenceDetailId points at the delivery line that produced the row.
	ReferenceDetailId int   `gorm:"index" json:"reference_detail_id"`
	IsOutgoing        *bool `gorm:"not null;default:false" json:"is_outgoing"`
	// Reversal metadata: reversal rows negate a prior row and link both ways.
	IsReversal               bool       `gorm:"not null;default:false;index" json:"is_reversal"`
	ReversesStockHistoryId   *int       `gorm:"index" json:"reverses_stock_history_id"`
	ReversedByStockHistoryId *int       `gorm:"index" json:"reversed_by_stock_history_id"`
	ReversalReason           *string    `gorm:"type:text" json:"reversal_reason"`
	ReversedAt               *time.Time `gorm:"index" json:"reversed_at"`
	CreatedAt                time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave keeps the outgoing flag consistent with the quantity sign.
// Waste queries classify rows by IsOutgoing; a negative row flagged incoming
// makes on-hand rebuilds double-count.
func (sh *StockHistory) BeforeSave(tx *gorm.DB) error {
	_ = tx // signature required by gorm; tx may be nil in tests
	if sh == nil {
		return nil
	}
	if sh.IsOutgoing == nil {
		sh.IsOutgoing = utils.NewFalse()
	}
	if sh.Qty.IsZero() {
		return nil
	}
	b := sh.Qty.IsNegative()
	sh.IsOutgoing = &b
	return nil
}
