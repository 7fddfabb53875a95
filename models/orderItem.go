package models

import (
	"context"
	"errors"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem is the originating order line a delivery fulfills. The
// wider purchasing module owns these records; reconciliation only consumes
// {itemId, expected quantity + unit, supplierId}.
type PurchaseOrderItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	OrderNumber    string          `gorm:"size:100;index;not null" json:"order_number" binding:"required"`
	ItemId         int             `gorm:"index;not null" json:"item_id" binding:"required"`
	SupplierId     *int            `gorm:"index" json:"supplier_id"`
	ExpectedQty    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"expected_qty"`
	ExpectedUnitId int             `gorm:"index;not null" json:"expected_unit_id" binding:"required"`
	OrderUnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"order_unit_price"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPurchaseOrderItem struct {
	OrderNumber    string          `json:"order_number" binding:"required"`
	ItemId         int             `json:"item_id" binding:"required"`
	SupplierId     *int            `json:"supplier_id"`
	ExpectedQty    decimal.Decimal `json:"expected_qty" binding:"required"`
	ExpectedUnitId int             `json:"expected_unit_id" binding:"required"`
	OrderUnitPrice decimal.Decimal `json:"order_unit_price"`
}

func CreatePurchaseOrderItem(ctx context.Context, input *NewPurchaseOrderItem) (*PurchaseOrderItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[StockItem](ctx, businessId, input.ItemId); err != nil {
		return nil, errors.New("stock item not found")
	}
	if err := utils.ValidateResourceId[StockUnit](ctx, businessId, input.ExpectedUnitId); err != nil {
		return nil, errors.New("expected unit not found")
	}
	if !input.ExpectedQty.IsPositive() {
		return nil, errors.New("expected qty must be positive")
	}

	orderItem := PurchaseOrderItem{
		BusinessId:     businessId,
		OrderNumber:    input.OrderNumber,
		ItemId:         input.ItemId,
		SupplierId:     input.SupplierId,
		ExpectedQty:    input.ExpectedQty,
		ExpectedUnitId: input.ExpectedUnitId,
		OrderUnitPrice: input.OrderUnitPrice,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&orderItem).Error
	if err != nil {
		return nil, err
	}
	return &orderItem, nil
}

func GetPurchaseOrderItem(ctx context.Context, id int) (*PurchaseOrderItem, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PurchaseOrderItem](ctx, businessId, id)
}
