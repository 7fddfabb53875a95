package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrOutOfOrderEffectiveDate rejects backdated appends. Naive insertion
	// before the latest chain link would break OldUnitCost for every entry
	// after it; corrections restate the cost with a new entry instead.
	ErrOutOfOrderEffectiveDate = errors.New("effective date precedes the item's latest cost entry")
	ErrNoCostRecorded          = errors.New("no cost recorded for item")
)

// StockCostLogEntry is one link in an item's cost chain. Rows are append-only:
// there is no update or delete path through the application, and the storage
// user should hold INSERT/SELECT grants only on this table.
type StockCostLogEntry struct {
	ID            int              `gorm:"primary_key" json:"id"`
	BusinessId    string           `gorm:"index;not null;index:idx_cost_chain,priority:1" json:"business_id"`
	ItemId        int              `gorm:"not null;index:idx_cost_chain,priority:2" json:"item_id"`
	SupplierId    *int             `gorm:"index" json:"supplier_id"`
	OldUnitCost   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"old_unit_cost"`
	NewUnitCost   decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"new_unit_cost"`
	Reason        CostChangeReason `gorm:"type:enum('supplier_price_change','market_adjustment','bulk_discount','contract_renewal','manual_update');not null" json:"reason"`
	EffectiveDate time.Time        `gorm:"type:date;not null;index:idx_cost_chain,priority:3" json:"effective_date"`
	Notes         string           `gorm:"type:text" json:"notes"`
	UpdatedBy     *int             `gorm:"index" json:"updated_by"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockCostLogEntry struct {
	ItemId        int              `json:"item_id" binding:"required"`
	SupplierId    *int             `json:"supplier_id"`
	NewUnitCost   decimal.Decimal  `json:"new_unit_cost"`
	Reason        CostChangeReason `json:"reason" binding:"required"`
	EffectiveDate time.Time        `json:"effective_date" binding:"required" time_format:"2006-01-02"`
	Notes         string           `json:"notes"`
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// latestCostEntryTx reads the chain head: max (effective_date, created_at, id).
func latestCostEntryTx(tx *gorm.DB, businessId string, itemId int) (*StockCostLogEntry, error) {
	var entry StockCostLogEntry
	err := tx.Clauses(forUpdate()).
		Where("business_id = ? AND item_id = ?", businessId, itemId).
		Order("effective_date DESC, created_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// AppendCostLogEntryTx appends one chain link inside the caller's transaction.
// The read-modify-write on the chain head must be serialized per item; callers
// hold the per-item posting lock (workflow package) for the duration.
func AppendCostLogEntryTx(tx *gorm.DB, businessId string, input *NewStockCostLogEntry, updatedBy *int) (*StockCostLogEntry, error) {
	if input.NewUnitCost.IsNegative() {
		return nil, errors.New("unit cost cannot be negative")
	}
	effectiveDate := utils.TruncateToDate(input.EffectiveDate)

	latest, err := latestCostEntryTx(tx, businessId, input.ItemId)
	if err != nil {
		return nil, err
	}

	var oldUnitCost *decimal.Decimal
	if latest != nil {
		if effectiveDate.Before(utils.TruncateToDate(latest.EffectiveDate)) {
			return nil, fmt.Errorf("%w: latest is %s", ErrOutOfOrderEffectiveDate,
				latest.EffectiveDate.Format("2006-01-02"))
		}
		cost := latest.NewUnitCost
		oldUnitCost = &cost
	}

	entry := StockCostLogEntry{
		BusinessId:    businessId,
		ItemId:        input.ItemId,
		SupplierId:    input.SupplierId,
		OldUnitCost:   oldUnitCost,
		NewUnitCost:   input.NewUnitCost,
		Reason:        input.Reason,
		EffectiveDate: effectiveDate,
		Notes:         input.Notes,
		UpdatedBy:     updatedBy,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// CostAsOf returns the unit cost effective on the given date, or nil when the
// item has no cost recorded on or before it. "No cost" is distinct from zero.
func CostAsOf(ctx context.Context, itemId int, date time.Time) (*decimal.Decimal, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var entry StockCostLogEntry
	err := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ? AND effective_date <= ?",
			businessId, itemId, utils.TruncateToDate(date)).
		Order("effective_date DESC, created_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry.NewUnitCost, nil
}

func CurrentCost(ctx context.Context, itemId int) (*decimal.Decimal, error) {
	return CostAsOf(ctx, itemId, time.Now().UTC())
}

// CurrentCostTx is the in-transaction variant the reconciliation engine uses
// to decide whether a delivery price constitutes a change. Takes the chain
// head lock; callers are inside a posting transaction.
func CurrentCostTx(tx *gorm.DB, businessId string, itemId int) (*decimal.Decimal, error) {
	latest, err := latestCostEntryTx(tx, businessId, itemId)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, nil
	}
	return &latest.NewUnitCost, nil
}

// CostHistory returns the item's entries ordered oldest first, optionally
// bounded by effective date.
func CostHistory(ctx context.Context, itemId int, from, to *time.Time) ([]*StockCostLogEntry, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ?", businessId, itemId)
	if from != nil {
		dbCtx = dbCtx.Where("effective_date >= ?", utils.TruncateToDate(*from))
	}
	if to != nil {
		dbCtx = dbCtx.Where("effective_date <= ?", utils.TruncateToDate(*to))
	}
	var entries []*StockCostLogEntry
	err := dbCtx.Order("effective_date, created_at, id").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CostChainBreak reports one violated link found by VerifyCostChain.
type CostChainBreak struct {
	ItemId      int
	EntryId     int
	PrevEntryId int
	Reason      string
}

// VerifyCostChain checks one item's entries: ordered by (effective_date,
// created_at, id), each entry's OldUnitCost must equal the previous entry's
// NewUnitCost, and only the first entry may carry a nil OldUnitCost. The
// check is independent of insertion order; callers may pass entries unsorted.
func VerifyCostChain(entries []*StockCostLogEntry) []CostChainBreak {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]*StockCostLogEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	breaks := make([]CostChainBreak, 0)
	for i, entry := range sorted {
		if i == 0 {
			if entry.OldUnitCost != nil {
				breaks = append(breaks, CostChainBreak{
					ItemId:  entry.ItemId,
					EntryId: entry.ID,
					Reason:  "first entry must have null old cost",
				})
			}
			continue
		}
		prev := sorted[i-1]
		if entry.OldUnitCost == nil {
			breaks = append(breaks, CostChainBreak{
				ItemId:      entry.ItemId,
				EntryId:     entry.ID,
				PrevEntryId: prev.ID,
				Reason:      "non-first entry has null old cost",
			})
			continue
		}
		if !entry.OldUnitCost.Equal(prev.NewUnitCost) {
			breaks = append(breaks, CostChainBreak{
				ItemId:      entry.ItemId,
				EntryId:     entry.ID,
				PrevEntryId: prev.ID,
				Reason: fmt.Sprintf("old cost %s does not match previous new cost %s",
					entry.OldUnitCost.String(), prev.NewUnitCost.String()),
			})
		}
	}
	if len(breaks) == 0 {
		return nil
	}
	return breaks
}
