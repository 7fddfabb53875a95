package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/models"
	"github.com/innstack/hms_backend/utils"
)

// Scans cost chains and reports broken links: a non-first entry whose
// OldUnitCost does not match its predecessor's NewUnitCost, or a stray null
// old cost. Read-only; fixing a break is a manual decision.
func main() {
	businessID := flag.String("business-id", "", "Required: business id")
	itemID := flag.Int("item-id", 0, "Optional: verify a single item")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	query := db.Model(&models.StockCostLogEntry{}).
		Where("business_id = ?", strings.TrimSpace(*businessID))
	if *itemID > 0 {
		query = query.Where("item_id = ?", *itemID)
	}

	var entries []*models.StockCostLogEntry
	if err := query.Order("item_id, effective_date, created_at, id").Find(&entries).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load cost entries: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("no cost entries found")
		return
	}

	itemIds := make([]int, 0, len(entries))
	byItem := make(map[int][]*models.StockCostLogEntry)
	for _, e := range entries {
		itemIds = append(itemIds, e.ItemId)
		byItem[e.ItemId] = append(byItem[e.ItemId], e)
	}

	totalBreaks := 0
	// Entries arrive ordered by item; dedup keeps the report order stable.
	for _, itemId := range utils.UniqueSlice(itemIds) {
		breaks := models.VerifyCostChain(byItem[itemId])
		if len(breaks) == 0 {
			continue
		}
		totalBreaks += len(breaks)
		for _, b := range breaks {
			fmt.Printf("item %d entry %d (prev %d): %s\n", itemId, b.EntryId, b.PrevEntryId, b.Reason)
		}
	}

	fmt.Printf("checked %d entries across %d items: %d break(s)\n", len(entries), len(byItem), totalBreaks)
	if totalBreaks > 0 {
		os.Exit(2)
	}
}
