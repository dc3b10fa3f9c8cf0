package enum

// UnitType describes how a product is sold.
type UnitType string

const (
	UnitTypeUnit   UnitType = "unit"
	UnitTypeWeight UnitType = "weight"
	UnitTypeCombo  UnitType = "combo"
)

func (u UnitType) IsValid() bool {
	switch u {
	case UnitTypeUnit, UnitTypeWeight, UnitTypeCombo:
		return true
	}
	return false
}

// MovementType is the cause recorded on an inventory ledger entry.
type MovementType string

const (
	MovementAdjustment MovementType = "adjustment"
	MovementPurchase   MovementType = "purchase"
	MovementTransfer   MovementType = "transfer"
	MovementSale       MovementType = "sale"
	MovementCancelled  MovementType = "cancelled"
)

func (m MovementType) IsValid() bool {
	switch m {
	case MovementAdjustment, MovementPurchase, MovementTransfer, MovementSale, MovementCancelled:
		return true
	}
	return false
}

// IsManual reports whether operators may record this movement type directly.
// sale and cancelled are reserved for the sale engine.
func (m MovementType) IsManual() bool {
	return m == MovementAdjustment || m == MovementPurchase || m == MovementTransfer
}
