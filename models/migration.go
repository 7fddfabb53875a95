package models

import (
	"log"

	"github.com/innstack/hms_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&StockUnit{}, &InventoryCategory{}, &StockItem{},
		&PurchaseOrderItem{},
		&DeliveryNote{}, &DeliveryNoteItem{},
		&StockHistory{}, &StockCostLogEntry{},
		&StockEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
