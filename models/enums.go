package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// UnitType is the measurement family of a stock unit. Units of different
// families are never comparable.
type UnitType string

const (
	UnitTypeWeight UnitType = "weight"
	UnitTypeVolume UnitType = "volume"
	UnitTypeLength UnitType = "length"
	UnitTypeArea   UnitType = "area"
	UnitTypeCount  UnitType = "count"
	UnitTypeTime   UnitType = "time"
)

func (t *UnitType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("unit type must be string")
	}
	switch UnitType(str) {
	case UnitTypeWeight, UnitTypeVolume, UnitTypeLength, UnitTypeArea, UnitTypeCount, UnitTypeTime:
		*t = UnitType(str)
	default:
		return fmt.Errorf("invalid unit type %q", str)
	}
	return nil
}

type CostChangeReason string

const (
	CostChangeReasonSupplierPriceChange CostChangeReason = "supplier_price_change"
	CostChangeReasonMarketAdjustment    CostChangeReason = "market_adjustment"
	CostChangeReasonBulkDiscount        CostChangeReason = "bulk_discount"
	CostChangeReasonContractRenewal     CostChangeReason = "contract_renewal"
	CostChangeReasonManualUpdate        CostChangeReason = "manual_update"
)

func (r *CostChangeReason) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("cost change reason must be string")
	}
	switch CostChangeReason(str) {
	case CostChangeReasonSupplierPriceChange, CostChangeReasonMarketAdjustment,
		CostChangeReasonBulkDiscount, CostChangeReasonContractRenewal, CostChangeReasonManualUpdate:
		*r = CostChangeReason(str)
	default:
		return fmt.Errorf("invalid cost change reason %q", str)
	}
	return nil
}

type ConditionStatus string

const (
	ConditionStatusGood      ConditionStatus = "good"
	ConditionStatusDamaged   ConditionStatus = "damaged"
	ConditionStatusDefective ConditionStatus = "defective"
	ConditionStatusExpired   ConditionStatus = "expired"
)

func (s *ConditionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("condition status must be string")
	}
	switch ConditionStatus(str) {
	case ConditionStatusGood, ConditionStatusDamaged, ConditionStatusDefective, ConditionStatusExpired:
		*s = ConditionStatus(str)
	default:
		return fmt.Errorf("invalid condition status %q", str)
	}
	return nil
}

// DeliveryLineState is the reconciliation state machine of a delivery line.
// Draft is initial; Reconciled and Voided are terminal.
type DeliveryLineState string

const (
	DeliveryLineStateDraft      DeliveryLineState = "draft"
	DeliveryLineStateReconciled DeliveryLineState = "reconciled"
	DeliveryLineStateDisputed   DeliveryLineState = "disputed"
	DeliveryLineStateVoided     DeliveryLineState = "voided"
)

type DisputeDirection string

const (
	DisputeDirectionOverReceived  DisputeDirection = "over_received"
	DisputeDirectionUnderReceived DisputeDirection = "under_received"
)

// StockReferenceType classifies append-only stock history rows.
// DN = delivery note receipt, WST = damaged/waste split of a receipt.
type StockReferenceType string

const (
	StockReferenceTypeDeliveryNote StockReferenceType = "DN"
	StockReferenceTypeWaste        StockReferenceType = "WST"
)

// StockEventType classifies outbox records published to the notification sink.
type StockEventType string

const (
	StockEventTypeStockChanged StockEventType = "STK"
	StockEventTypeCostChanged  StockEventType = "CST"
)

// Precision is a stock item's display precision (fractional digits shown at
// the presentation boundary). Internally quantities are never rounded.
type Precision string

const (
	PrecisionZero  Precision = "0"
	PrecisionOne   Precision = "1"
	PrecisionTwo   Precision = "2"
	PrecisionThree Precision = "3"
	PrecisionFour  Precision = "4"
)

func (p *Precision) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("precision must be string")
	}
	switch Precision(str) {
	case PrecisionZero, PrecisionOne, PrecisionTwo, PrecisionThree, PrecisionFour:
		*p = Precision(str)
	default:
		return fmt.Errorf("invalid precision %q", str)
	}
	return nil
}

func (p Precision) Places() int32 {
	switch p {
	case PrecisionOne:
		return 1
	case PrecisionTwo:
		return 2
	case PrecisionThree:
		return 3
	case PrecisionFour:
		return 4
	default:
		return 0
	}
}
