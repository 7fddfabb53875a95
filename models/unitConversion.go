package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnitMismatch is returned when converting across unit-type families.
	// This is a hard error, never a silent no-op.
	ErrUnitMismatch = errors.New("units belong to different unit types")
	// ErrInactiveUnit is returned in strict mode for deactivated units.
	// Historical reads (reporting) pass strict=false.
	ErrInactiveUnit = errors.New("unit is inactive")
	ErrUnknownUnit  = errors.New("unknown unit")
)

// UnitGraph resolves quantities across a business's unit catalog. The base
// relation is one hop deep (enforced at unit creation), so every conversion
// is a multiply and at most one divide, all in decimal, never floats.
type UnitGraph struct {
	units map[int]*StockUnit
}

func NewUnitGraph(units []*StockUnit) *UnitGraph {
	g := &UnitGraph{units: make(map[int]*StockUnit, len(units))}
	for _, u := range units {
		g.units[u.ID] = u
	}
	return g
}

func (g *UnitGraph) Unit(id int) (*StockUnit, error) {
	u, ok := g.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUnit, id)
	}
	return u, nil
}

// ResolveToBase returns the family's base unit and the quantity expressed in
// it. A base unit resolves to itself unchanged.
func (g *UnitGraph) ResolveToBase(unitId int, qty decimal.Decimal) (*StockUnit, decimal.Decimal, error) {
	unit, err := g.Unit(unitId)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if unit.IsBase() {
		return unit, qty, nil
	}
	base, err := g.Unit(*unit.BaseUnitId)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("unit %s: base %w", unit.Symbol, err)
	}
	return base, qty.Mul(unit.ConversionFactor), nil
}

// Convert expresses qty (given in fromUnit) in toUnit. Both units must belong
// to the same unit type. strict rejects inactive units; reporting contexts
// reading historical rows pass strict=false.
func (g *UnitGraph) Convert(fromUnitId, toUnitId int, qty decimal.Decimal, strict bool) (decimal.Decimal, error) {
	from, err := g.Unit(fromUnitId)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := g.Unit(toUnitId)
	if err != nil {
		return decimal.Zero, err
	}
	if from.UnitType != to.UnitType {
		return decimal.Zero, fmt.Errorf("%w: %s is %s, %s is %s",
			ErrUnitMismatch, from.Symbol, from.UnitType, to.Symbol, to.UnitType)
	}
	if strict {
		if from.IsActive != nil && !*from.IsActive {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrInactiveUnit, from.Symbol)
		}
		if to.IsActive != nil && !*to.IsActive {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrInactiveUnit, to.Symbol)
		}
	}

	_, baseQty, err := g.ResolveToBase(fromUnitId, qty)
	if err != nil {
		return decimal.Zero, err
	}
	if to.IsBase() {
		return baseQty, nil
	}
	return baseQty.Div(to.ConversionFactor), nil
}

// SameFamily reports whether two units are convertible.
func (g *UnitGraph) SameFamily(aId, bId int) bool {
	a, err := g.Unit(aId)
	if err != nil {
		return false
	}
	b, err := g.Unit(bId)
	if err != nil {
		return false
	}
	return a.UnitType == b.UnitType
}

// DisplayQuantity rounds for presentation only. Internal arithmetic keeps
// full precision to avoid compounding rounding error across conversions.
func DisplayQuantity(qty decimal.Decimal, precision Precision) decimal.Decimal {
	return qty.Round(precision.Places())
}
