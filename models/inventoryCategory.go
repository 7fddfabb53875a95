package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
)

// InventoryCategory is a flat parent-id tree (no in-memory pointer graph)
// used to classify stock items for reporting.
type InventoryCategory struct {
	ID               int       `gorm:"primary_key" json:"id"`
	BusinessId       string    `gorm:"index;not null" json:"business_id"`
	Name             string    `gorm:"size:100;not null" json:"name" binding:"required"`
	ParentCategoryId *int      `gorm:"index" json:"parent_category_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInventoryCategory struct {
	Name             string `json:"name" binding:"required"`
	ParentCategoryId *int   `json:"parent_category_id"`
}

// AncestorIdsFromArena walks parent links in a flat id->parent map. The walk
// is bounded by the arena size, so a corrupted cycle terminates with an error
// instead of spinning.
func AncestorIdsFromArena(arena map[int]*int, id int) ([]int, error) {
	ancestors := make([]int, 0)
	seen := map[int]struct{}{id: {}}
	current := id
	for {
		parent, ok := arena[current]
		if !ok {
			return nil, fmt.Errorf("category %d not found", current)
		}
		if parent == nil {
			return ancestors, nil
		}
		if _, dup := seen[*parent]; dup {
			return nil, fmt.Errorf("category cycle detected at %d", *parent)
		}
		seen[*parent] = struct{}{}
		ancestors = append(ancestors, *parent)
		current = *parent
	}
}

func categoryArena(ctx context.Context, businessId string) (map[int]*int, error) {
	db := config.GetDB()
	var rows []InventoryCategory
	if err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Select("id", "parent_category_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	arena := make(map[int]*int, len(rows))
	for _, row := range rows {
		arena[row.ID] = row.ParentCategoryId
	}
	return arena, nil
}

func (input *NewInventoryCategory) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateUnique[InventoryCategory](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if input.ParentCategoryId == nil {
		return nil
	}
	if id != 0 && *input.ParentCategoryId == id {
		return errors.New("category cannot be its own parent")
	}
	if err := utils.ValidateResourceId[InventoryCategory](ctx, businessId, *input.ParentCategoryId); err != nil {
		return errors.New("parent category not found")
	}
	if id != 0 {
		// Reparenting under a descendant would create a cycle.
		arena, err := categoryArena(ctx, businessId)
		if err != nil {
			return err
		}
		ancestors, err := AncestorIdsFromArena(arena, *input.ParentCategoryId)
		if err != nil {
			return err
		}
		for _, ancestorId := range ancestors {
			if ancestorId == id {
				return errors.New("parent category is a descendant")
			}
		}
	}
	return nil
}

func CreateInventoryCategory(ctx context.Context, input *NewInventoryCategory) (*InventoryCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	category := InventoryCategory{
		BusinessId:       businessId,
		Name:             input.Name,
		ParentCategoryId: input.ParentCategoryId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateInventoryCategory(ctx context.Context, id int, input *NewInventoryCategory) (*InventoryCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[InventoryCategory](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"Name":             input.Name,
		"ParentCategoryId": input.ParentCategoryId,
	}).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteInventoryCategory(ctx context.Context, id int) (*InventoryCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	category, err := utils.FetchModel[InventoryCategory](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[InventoryCategory](ctx, businessId, "parent_category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("category has subcategories")
	}
	count, err = utils.ResourceCountWhere[StockItem](ctx, businessId, "category_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by stock item")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&category).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

func GetInventoryCategories(ctx context.Context) ([]*InventoryCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[InventoryCategory](ctx, businessId)
}

// GetCategoryAncestors resolves the reporting classification chain for a
// category, nearest parent first.
func GetCategoryAncestors(ctx context.Context, id int) ([]*InventoryCategory, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	arena, err := categoryArena(ctx, businessId)
	if err != nil {
		return nil, err
	}
	ids, err := AncestorIdsFromArena(arena, id)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*InventoryCategory{}, nil
	}

	db := config.GetDB()
	var rows []*InventoryCategory
	if err := db.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	// preserve nearest-first order
	byId := make(map[int]*InventoryCategory, len(rows))
	for _, row := range rows {
		byId[row.ID] = row
	}
	ordered := make([]*InventoryCategory, 0, len(ids))
	for _, ancestorId := range ids {
		if row, ok := byId[ancestorId]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered, nil
}
