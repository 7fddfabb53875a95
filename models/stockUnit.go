package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
)

// StockUnit is a shared, long-lived measurement unit. A unit either IS a base
// unit (BaseUnitId nil, implicit factor 1) or references its base directly:
// the base relation is a forest at most one hop deep, so conversion stays O(1).
type StockUnit struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null" json:"business_id"`
	Name             string          `gorm:"size:50;not null" json:"name" binding:"required"`
	Symbol           string          `gorm:"size:10;not null" json:"symbol" binding:"required"`
	UnitType         UnitType        `gorm:"type:enum('weight','volume','length','area','count','time');not null" json:"unit_type" binding:"required"`
	BaseUnitId       *int            `gorm:"index" json:"base_unit_id"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,8);default:1" json:"conversion_factor"`
	IsActive         *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStockUnit struct {
	Name             string          `json:"name" binding:"required"`
	Symbol           string          `json:"symbol" binding:"required"`
	UnitType         UnitType        `json:"unit_type" binding:"required"`
	BaseUnitId       *int            `json:"base_unit_id"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

func (u *StockUnit) IsBase() bool {
	return u.BaseUnitId == nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewStockUnit) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateUnique[StockUnit](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if err := utils.ValidateUnique[StockUnit](ctx, businessId, "symbol", input.Symbol, id); err != nil {
		return err
	}

	if input.BaseUnitId == nil {
		return nil
	}
	if *input.BaseUnitId == id && id != 0 {
		return errors.New("unit cannot be its own base")
	}
	if !input.ConversionFactor.IsPositive() {
		return errors.New("conversion factor must be positive")
	}

	base, err := utils.FetchModel[StockUnit](ctx, businessId, *input.BaseUnitId)
	if err != nil {
		return errors.New("base unit not found")
	}
	if base.UnitType != input.UnitType {
		return fmt.Errorf("base unit %s is %s, not %s", base.Symbol, base.UnitType, input.UnitType)
	}
	// No transitive chains: a unit's base must itself be a base unit.
	if !base.IsBase() {
		return fmt.Errorf("base unit %s is itself derived; pick the family's base unit", base.Symbol)
	}
	return nil
}

func CreateStockUnit(ctx context.Context, input *NewStockUnit) (*StockUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	factor := input.ConversionFactor
	if input.BaseUnitId == nil {
		factor = decimal.NewFromInt(1)
	}
	unit := StockUnit{
		BusinessId:       businessId,
		Name:             input.Name,
		Symbol:           input.Symbol,
		UnitType:         input.UnitType,
		BaseUnitId:       input.BaseUnitId,
		ConversionFactor: factor,
		IsActive:         utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&unit).Error
	if err != nil {
		return nil, err
	}
	invalidateUnitCache(businessId)
	return &unit, nil
}

func UpdateStockUnit(ctx context.Context, id int, input *NewStockUnit) (*StockUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	unit, err := utils.FetchModel[StockUnit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	// Changing a base unit's identity would silently rescale every derived
	// unit; only allow it while nothing references this unit as base.
	if unit.IsBase() && input.BaseUnitId != nil {
		count, err := utils.ResourceCountWhere[StockUnit](ctx, businessId, "base_unit_id = ?", id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("unit is the base of other units")
		}
	}

	factor := input.ConversionFactor
	if input.BaseUnitId == nil {
		factor = decimal.NewFromInt(1)
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&unit).Updates(map[string]interface{}{
		"Name":             input.Name,
		"Symbol":           input.Symbol,
		"UnitType":         input.UnitType,
		"BaseUnitId":       input.BaseUnitId,
		"ConversionFactor": factor,
	}).Error
	if err != nil {
		return nil, err
	}
	invalidateUnitCache(businessId)
	return unit, nil
}

// Units referenced by stock items or by other units are deactivated, never
// deleted; historical reads need them.
func ToggleActiveStockUnit(ctx context.Context, id int, isActive bool) (*StockUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	unit, err := utils.FetchModel[StockUnit](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&unit).Update("IsActive", isActive).Error
	if err != nil {
		return nil, err
	}
	invalidateUnitCache(businessId)
	return unit, nil
}

func GetStockUnit(ctx context.Context, id int) (*StockUnit, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[StockUnit](ctx, businessId, id)
}

func GetStockUnits(ctx context.Context, name *string) ([]*StockUnit, error) {

	db := config.GetDB()
	var results []*StockUnit

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("unit_type, name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

/* unit catalog cache */

// The unit catalog is tiny and read on every reconciliation; cache it in
// redis keyed by business, invalidated on any unit write.
func unitCacheKey(businessId string) string {
	return "stockUnits:" + businessId
}

func invalidateUnitCache(businessId string) {
	_ = config.RemoveRedisKey(unitCacheKey(businessId))
}

// GetUnitGraph loads the business's unit catalog (redis or db) and builds the
// in-memory conversion graph.
func GetUnitGraph(ctx context.Context, businessId string) (*UnitGraph, error) {
	units := make([]*StockUnit, 0)
	exists, err := config.GetRedisObject(unitCacheKey(businessId), &units)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		if err := db.WithContext(ctx).Where("business_id = ?", businessId).Find(&units).Error; err != nil {
			return nil, err
		}
		if err := config.SetRedisObject(unitCacheKey(businessId), &units, 0); err != nil {
			return nil, err
		}
	}
	return NewUnitGraph(units), nil
}
