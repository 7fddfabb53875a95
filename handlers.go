package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/models"
	"github.com/innstack/hms_backend/utils"
	"github.com/innstack/hms_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/units", createStockUnitHandler)
	api.GET("/units", listStockUnitsHandler)
	api.GET("/units/:id", getStockUnitHandler)
	api.PUT("/units/:id", updateStockUnitHandler)
	api.POST("/units/:id/toggle-active", toggleStockUnitHandler)
	api.GET("/convert", convertQuantityHandler)

	api.POST("/categories", createCategoryHandler)
	api.GET("/categories", listCategoriesHandler)
	api.PUT("/categories/:id", updateCategoryHandler)
	api.DELETE("/categories/:id", deleteCategoryHandler)
	api.GET("/categories/:id/ancestors", categoryAncestorsHandler)

	api.POST("/items", createStockItemHandler)
	api.GET("/items", listStockItemsHandler)
	api.GET("/items/:id", getStockItemHandler)
	api.GET("/items/:id/cost", itemCostHandler)
	api.GET("/items/:id/cost-history", itemCostHistoryHandler)
	api.POST("/items/:id/cost-entries", appendManualCostEntryHandler)

	api.POST("/order-items", createOrderItemHandler)
	api.GET("/order-items/:id", getOrderItemHandler)

	api.POST("/delivery-notes", createDeliveryNoteHandler)
	api.GET("/delivery-notes/:id", getDeliveryNoteHandler)
	api.POST("/delivery-lines/:id/submit", submitDeliveryLineHandler)
	api.POST("/delivery-lines/:id/override", overrideDisputeHandler)
	api.POST("/delivery-lines/:id/void", voidDeliveryLineHandler)
	api.POST("/delivery-lines/:id/reverse", reverseDeliveryLineHandler)
	api.POST("/delivery-lines/:id/condition-notes", appendConditionNotesHandler)

	// Ops tooling: revive outbox records that went DEAD after max attempts.
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler)
}

// respondError maps domain sentinels onto HTTP statuses so clients can tell
// retryable conflicts from data errors.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, workflow.ErrDuplicateReconciliation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrLineNotActionable),
		errors.Is(err, workflow.ErrEffectsReversed),
		errors.Is(err, models.ErrUnitMismatch),
		errors.Is(err, models.ErrInactiveUnit),
		errors.Is(err, models.ErrUnknownUnit),
		errors.Is(err, models.ErrOutOfOrderEffectiveDate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func respondBindError(c *gin.Context, err error) {
	if fields := utils.ProcessValidationErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func requireBusiness(c *gin.Context) bool {
	if businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context()); !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	return true
}

func createStockUnitHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewStockUnit
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	unit, err := models.CreateStockUnit(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func listStockUnitsHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	units, err := models.GetStockUnits(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, units)
}

func getStockUnitHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	unit, err := models.GetStockUnit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

func updateStockUnitHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewStockUnit
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	unit, err := models.UpdateStockUnit(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

type toggleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func toggleStockUnitHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req toggleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	unit, err := models.ToggleActiveStockUnit(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// convertQuantityHandler exposes the conversion graph directly, mostly for
// front-end validation previews. strict defaults to true.
func convertQuantityHandler(c *gin.Context) {
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	fromId, err1 := strconv.Atoi(c.Query("from"))
	toId, err2 := strconv.Atoi(c.Query("to"))
	qty, err3 := decimal.NewFromString(c.Query("qty"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from, to and qty are required"})
		return
	}
	strict := c.DefaultQuery("strict", "true") != "false"

	graph, err := models.GetUnitGraph(c.Request.Context(), businessId)
	if err != nil {
		respondError(c, err)
		return
	}
	converted, err := graph.Convert(fromId, toId, qty, strict)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from_unit_id": fromId,
		"to_unit_id":   toId,
		"qty":          qty,
		"converted":    converted,
	})
}

func createCategoryHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewInventoryCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := models.CreateInventoryCategory(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func listCategoriesHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	categories, err := models.GetInventoryCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func updateCategoryHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewInventoryCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := models.UpdateInventoryCategory(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func deleteCategoryHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	category, err := models.DeleteInventoryCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func categoryAncestorsHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	ancestors, err := models.GetCategoryAncestors(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ancestors)
}

func createStockItemHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewStockItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	item, err := models.CreateStockItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func listStockItemsHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var name *string
	if v := c.Query("name"); v != "" {
		name = &v
	}
	items, err := models.GetStockItems(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func getStockItemHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	item, err := models.GetStockItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// itemCostHandler answers "what did this item cost" either now or as of a
// date. A null cost means no entry exists yet; zero is a real recorded cost.
func itemCostHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	asOf := time.Now().UTC()
	if v := c.Query("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}
	cost, err := models.CostAsOf(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item_id":   id,
		"as_of":     asOf.Format("2006-01-02"),
		"unit_cost": cost,
	})
}

func itemCostHistoryHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = &parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = &parsed
	}

	if c.Query("format") == "xlsx" {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=cost-history-%d.xlsx", id))
		if err := models.ExportCostHistoryXlsx(c.Request.Context(), id, from, to, c.Writer); err != nil {
			respondError(c, err)
		}
		return
	}

	entries, err := models.CostHistory(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func appendManualCostEntryHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewStockCostLogEntry
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	input.ItemId = id
	entry, err := workflow.AppendManualCostEntry(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func createOrderItemHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewPurchaseOrderItem
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	orderItem, err := models.CreatePurchaseOrderItem(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderItem)
}

func getOrderItemHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	orderItem, err := models.GetPurchaseOrderItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderItem)
}

func createDeliveryNoteHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewDeliveryNote
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	note, err := models.CreateDeliveryNote(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func getDeliveryNoteHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	note, err := models.GetDeliveryNote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// submitDeliveryLineHandler runs reconciliation for one draft line.
// Redis lock is a best-effort optimization to fail fast on obvious races.
// Reliability must not depend on Redis: the workflow also serializes through
// MySQL advisory locks per order line.
func submitDeliveryLineHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	logger := config.GetLogger()
	ctx, span := tracer.Start(c.Request.Context(), "SubmitDeliveryLine")
	defer span.End()

	line, err := models.GetDeliveryNoteItem(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	var lock *redislock.Lock
	if redisLock := config.GetRedisLock(); redisLock != nil {
		obtained, err := redisLock.Obtain(ctx, fmt.Sprintf("lock:recon-order-item:%d", line.OrderItemId), 30*time.Second, nil)
		if err == nil {
			lock = obtained
		} else if err != redislock.ErrNotObtained {
			logger.WithFields(logrus.Fields{
				"field":         "submitDeliveryLineHandler",
				"line_id":       id,
				"order_item_id": line.OrderItemId,
			}).Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
		}
	}
	defer func() {
		if lock == nil {
			return
		}
		if releaseErr := lock.Release(ctx); releaseErr != nil {
			logger.WithFields(logrus.Fields{
				"field":   "submitDeliveryLineHandler",
				"line_id": id,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}()

	result, err := workflow.SubmitDeliveryLine(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type overrideRequest struct {
	Notes string `json:"notes" binding:"required"`
}

func overrideDisputeHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := workflow.OverrideDispute(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func voidDeliveryLineHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := workflow.VoidLine(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func reverseDeliveryLineHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := workflow.ReverseLineStockEffects(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

type conditionNotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

func appendConditionNotesHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req conditionNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	line, err := models.AppendConditionNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id" binding:"required"`
}

func outboxReplayHandler(c *gin.Context) {
	// Require an authenticated user; replay mutates dispatch state.
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok || userId == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !requireBusiness(c) {
		return
	}
	var req outboxReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := workflow.ReplayDeadOutboxRecord(c.Request.Context(), req.RecordId); err != nil {
		respondError(c, err)
		return
	}
	userName, _ := utils.GetUserNameFromContext(c.Request.Context())
	config.GetLogger().WithFields(logrus.Fields{
		"field":     "outboxReplayHandler",
		"record_id": req.RecordId,
		"user_id":   userId,
		"user_name": userName,
	}).Info("dead outbox record replayed")
	c.JSON(http.StatusOK, gin.H{
		"record_id":      req.RecordId,
		"publish_status": models.OutboxPublishStatusPending,
	})
}
