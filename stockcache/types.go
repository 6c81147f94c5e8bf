package stockcache

import "github.com/shopspring/decimal"

// Level is the cached stock position of one raw material.
type Level struct {
	MaterialID   int64           `json:"material_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

func (l Level) Low() bool {
	return l.CurrentStock.LessThanOrEqual(l.MinimumStock)
}
