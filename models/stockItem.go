package models

import (
	"context"
	"errors"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockItem is the inventory identity the receiving core works against.
// OnHandQty / DamagedQty are summaries maintained inside reconciliation
// transactions; stock_histories is the ledger-of-record behind them.
type StockItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	Name             string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku              string          `gorm:"size:100" json:"sku"`
	UnitId           int             `gorm:"index;not null" json:"unit_id" binding:"required"`
	CategoryId       int             `gorm:"index" json:"category_id"`
	DisplayPrecision Precision       `gorm:"type:enum('0','1','2','3','4');default:'0';size:1;not null" json:"display_precision"`
	OnHandQty        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"on_hand_qty"`
	DamagedQty       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"damaged_qty"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	// OnHandDisplay is OnHandQty rounded to DisplayPrecision. Presentation
	// only; the stored summary and the ledger keep full precision.
	OnHandDisplay decimal.Decimal `gorm:"-" json:"on_hand_display"`
}

func (item *StockItem) AfterFind(tx *gorm.DB) error {
	_ = tx
	item.OnHandDisplay = DisplayQuantity(item.OnHandQty, item.DisplayPrecision)
	return nil
}

type NewStockItem struct {
	Name             string    `json:"name" binding:"required"`
	Sku              string    `json:"sku"`
	UnitId           int       `json:"unit_id" binding:"required"`
	CategoryId       int       `json:"category_id"`
	DisplayPrecision Precision `json:"display_precision"`
}

func (input *NewStockItem) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateUnique[StockItem](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[StockUnit](ctx, businessId, input.UnitId); err != nil {
		return errors.New("unit not found")
	}
	if input.CategoryId != 0 {
		if err := utils.ValidateResourceId[InventoryCategory](ctx, businessId, input.CategoryId); err != nil {
			return errors.New("category not found")
		}
	}
	return nil
}

func CreateStockItem(ctx context.Context, input *NewStockItem) (*StockItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	precision := input.DisplayPrecision
	if precision == "" {
		precision = PrecisionZero
	}
	item := StockItem{
		BusinessId:       businessId,
		Name:             input.Name,
		Sku:              input.Sku,
		UnitId:           input.UnitId,
		CategoryId:       input.CategoryId,
		DisplayPrecision: precision,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func GetStockItem(ctx context.Context, id int) (*StockItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[StockItem](ctx, businessId, id)
}

func GetStockItems(ctx context.Context, name *string) ([]*StockItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var results []*StockItem
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// AdjustStockItemQuantities moves the on-hand / damaged summaries inside the
// caller's transaction. Callers hold the per-order-item posting lock; the row
// is still locked FOR UPDATE so unrelated writers cannot interleave.
func AdjustStockItemQuantities(tx *gorm.DB, businessId string, itemId int, onHandDelta, damagedDelta decimal.Decimal) error {
	var item StockItem
	if err := tx.Clauses(forUpdate()).
		Where("business_id = ?", businessId).
		First(&item, itemId).Error; err != nil {
		return utils.ErrorRecordNotFound
	}
	return tx.Model(&item).Updates(map[string]interface{}{
		"OnHandQty":  item.OnHandQty.Add(onHandDelta),
		"DamagedQty": item.DamagedQty.Add(damagedDelta),
	}).Error
}
