package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/utils"
	"gorm.io/gorm"
)

// Outbox publish statuses for StockEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// StockEventRecord is the transactional outbox behind the "on-hand changed" /
// "cost changed" notification sink: written inside the posting transaction,
// published to Pub/Sub asynchronously by the dispatcher after commit.
type StockEventRecord struct {
	ID            int            `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId    string         `gorm:"size:64;not null;index" json:"business_id"`
	EventDateTime time.Time      `gorm:"index;not null" json:"event_date_time"`
	ReferenceId   int            `json:"reference_id"`
	EventType     StockEventType `gorm:"type:enum('STK','CST')" json:"event_type"`
	Payload       []byte         `gorm:"type:blob" json:"payload"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockChangedPayload notifies subscribers that an item's on-hand moved.
type StockChangedPayload struct {
	ItemId       int    `json:"item_id"`
	DeliveryLine int    `json:"delivery_line_id"`
	GoodQty      string `json:"good_qty"`
	DamagedQty   string `json:"damaged_qty"`
	BaseUnit     string `json:"base_unit"`
}

// CostChangedPayload notifies subscribers that a new cost chain link exists.
type CostChangedPayload struct {
	ItemId        int     `json:"item_id"`
	CostEntryId   int     `json:"cost_entry_id"`
	OldUnitCost   *string `json:"old_unit_cost"`
	NewUnitCost   string  `json:"new_unit_cost"`
	EffectiveDate string  `json:"effective_date"`
}

// PublishStockEvent writes the outbox record inside the caller's transaction.
// It never talks to Pub/Sub directly.
func PublishStockEvent(ctx context.Context, tx *gorm.DB, businessId string, eventTime time.Time, refId int, eventType StockEventType, payload interface{}) error {
	payloadInByte, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	record := StockEventRecord{
		BusinessId:    businessId,
		EventDateTime: eventTime,
		ReferenceId:   refId,
		EventType:     eventType,
		Payload:       payloadInByte,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToStockEventMessage(record StockEventRecord) config.StockEventMessage {
	return config.StockEventMessage{
		ID:            record.ID,
		BusinessId:    record.BusinessId,
		EventDateTime: record.EventDateTime,
		ReferenceId:   record.ReferenceId,
		EventType:     string(record.EventType),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}
