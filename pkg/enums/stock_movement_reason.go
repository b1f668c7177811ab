package enums

import "fmt"

// StockMovementReason explains why a product's stock count changed.
type StockMovementReason string

const (
	StockMovementSale       StockMovementReason = "sale"
	StockMovementRestock    StockMovementReason = "restock"
	StockMovementCorrection StockMovementReason = "correction"
)

var validStockMovementReasons = []StockMovementReason{
	StockMovementSale,
	StockMovementRestock,
	StockMovementCorrection,
}

// String implements fmt.Stringer.
func (r StockMovementReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known StockMovementReason.
func (r StockMovementReason) IsValid() bool {
	for _, candidate := range validStockMovementReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseStockMovementReason converts raw input into a StockMovementReason.
func ParseStockMovementReason(value string) (StockMovementReason, error) {
	for _, candidate := range validStockMovementReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement reason %q", value)
}
