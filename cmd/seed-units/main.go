package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/innstack/hms_backend/config"
	"github.com/innstack/hms_backend/models"
	"github.com/innstack/hms_backend/utils"
	"github.com/shopspring/decimal"
)

type seedUnit struct {
	name       string
	symbol     string
	unitType   models.UnitType
	baseSymbol string
	factor     string
}

// Standard hotel receiving catalog. Base units first; derived units reference
// their base by symbol.
var catalog = []seedUnit{
	{name: "Kilogram", symbol: "kg", unitType: models.UnitTypeWeight},
	{name: "Gram", symbol: "g", unitType: models.UnitTypeWeight, baseSymbol: "kg", factor: "0.001"},
	{name: "Liter", symbol: "l", unitType: models.UnitTypeVolume},
	{name: "Milliliter", symbol: "ml", unitType: models.UnitTypeVolume, baseSymbol: "l", factor: "0.001"},
	{name: "Meter", symbol: "m", unitType: models.UnitTypeLength},
	{name: "Centimeter", symbol: "cm", unitType: models.UnitTypeLength, baseSymbol: "m", factor: "0.01"},
	{name: "Square Meter", symbol: "sqm", unitType: models.UnitTypeArea},
	{name: "Piece", symbol: "pcs", unitType: models.UnitTypeCount},
	{name: "Dozen", symbol: "dz", unitType: models.UnitTypeCount, baseSymbol: "pcs", factor: "12"},
	{name: "Hour", symbol: "hr", unitType: models.UnitTypeTime},
	{name: "Minute", symbol: "min", unitType: models.UnitTypeTime, baseSymbol: "hr", factor: "0.0166666667"},
}

func main() {
	businessID := flag.String("business-id", "", "Required: business id to seed")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	models.MigrateTable()

	ctx := utils.SetBusinessIdInContext(context.Background(), strings.TrimSpace(*businessID))

	created := 0
	idBySymbol := make(map[string]int)
	for _, su := range catalog {
		input := models.NewStockUnit{
			Name:     su.name,
			Symbol:   su.symbol,
			UnitType: su.unitType,
		}
		if su.baseSymbol != "" {
			baseId, ok := idBySymbol[su.baseSymbol]
			if !ok {
				fmt.Fprintf(os.Stderr, "base unit %s not seeded before %s\n", su.baseSymbol, su.symbol)
				os.Exit(1)
			}
			factor, err := decimal.NewFromString(su.factor)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad factor for %s: %v\n", su.symbol, err)
				os.Exit(1)
			}
			input.BaseUnitId = &baseId
			input.ConversionFactor = factor
		}

		unit, err := models.CreateStockUnit(ctx, &input)
		if err != nil {
			// Re-running the seed is fine; existing symbols just get skipped.
			if strings.Contains(err.Error(), "duplicate") {
				existing, lookupErr := findUnitBySymbol(ctx, su.symbol)
				if lookupErr != nil {
					fmt.Fprintf(os.Stderr, "unit %s exists but lookup failed: %v\n", su.symbol, lookupErr)
					os.Exit(1)
				}
				idBySymbol[su.symbol] = existing.ID
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", su.symbol, err)
			os.Exit(1)
		}
		idBySymbol[su.symbol] = unit.ID
		created++
	}

	fmt.Printf("seeded %d unit(s), %d already present\n", created, len(catalog)-created)
}

func findUnitBySymbol(ctx context.Context, symbol string) (*models.StockUnit, error) {
	units, err := models.GetStockUnits(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.Symbol == symbol {
			return u, nil
		}
	}
	return nil, fmt.Errorf("unit %s not found", symbol)
}
