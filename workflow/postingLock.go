package workflow

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrLockTimeout means another reconciliation for the same order line is in
// flight. Safe to retry after a short delay.
var ErrLockTimeout = errors.New("reconciliation lock timeout, retry later")

const postingLockWaitSeconds = 5

// AcquireOrderItemPostingLock serializes reconciliation per order line across
// instances using MySQL advisory locks. Draft submits happen at receiving
// speed, so the wait is short and the caller surfaces ErrLockTimeout as a
// retryable condition instead of queueing behind a long hold.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that runs the reconciliation transaction.
func AcquireOrderItemPostingLock(tx *gorm.DB, businessId string, orderItemId int) error {
	lockName := fmt.Sprintf("recon:%s:%d", businessId, orderItemId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, ?)", lockName, postingLockWaitSeconds).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("%w: order_item_id=%d", ErrLockTimeout, orderItemId)
	}
	return nil
}

func ReleaseOrderItemPostingLock(tx *gorm.DB, businessId string, orderItemId int) {
	lockName := fmt.Sprintf("recon:%s:%d", businessId, orderItemId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireItemCostLock serializes manual cost appends per item. Reconciliation
// already serializes through the order-item lock; manual cost entries bypass
// that path and need their own.
func AcquireItemCostLock(tx *gorm.DB, businessId string, itemId int) error {
	lockName := fmt.Sprintf("costlog:%s:%d", businessId, itemId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, ?)", lockName, postingLockWaitSeconds).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("%w: item_id=%d", ErrLockTimeout, itemId)
	}
	return nil
}

func ReleaseItemCostLock(tx *gorm.DB, businessId string, itemId int) {
	lockName := fmt.Sprintf("costlog:%s:%d", businessId, itemId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
