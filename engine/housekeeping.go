package engine

import (
	"context"
	"fmt"

	"tinacopro/store"
)

// HousekeepingSummary reports what one housekeeping pass changed.
type HousekeepingSummary struct {
	Dispatched int                  `json:"dispatched"`
	Delivered  int                  `json:"delivered"`
	LowStock   []*store.RawMaterial `json:"low_stock"`
}

// RunHousekeeping moves due shipments along and scans for low stock. It runs
// only when asked: from the dashboard, the API, or a floor message.
func (e *Engine) RunHousekeeping(ctx context.Context) (*HousekeepingSummary, error) {
	now := e.now()
	sum := &HousekeepingSummary{}

	n, err := e.shipping.AutoDispatch(ctx, now)
	sum.Dispatched = n
	if err != nil {
		return sum, fmt.Errorf("auto dispatch: %w", err)
	}
	n, err = e.shipping.AutoDeliver(ctx, now)
	sum.Delivered = n
	if err != nil {
		return sum, fmt.Errorf("auto deliver: %w", err)
	}

	low, err := e.ledger.LowStock(ctx)
	if err != nil {
		return sum, fmt.Errorf("low stock scan: %w", err)
	}
	sum.LowStock = low
	for _, m := range low {
		e.Events.Emit(Event{Type: EventLowStock, Payload: LowStockEvent{
			MaterialID:   m.ID,
			Code:         m.Code,
			CurrentStock: m.CurrentStock,
			MinimumStock: m.MinimumStock,
		}})
	}

	e.Events.Emit(Event{Type: EventHousekeepingRan, Payload: HousekeepingEvent{
		Dispatched: sum.Dispatched,
		Delivered:  sum.Delivered,
		LowStock:   len(low),
	}})
	return sum, nil
}
