package production

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tinacopro/store"
	"tinacopro/validate"
)

// DailyEntryInput is one floor production entry: quantity made today of a
// product.
type DailyEntryInput struct {
	ProductID int64  `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Shift     string `json:"shift" validate:"omitempty,oneof=Morning Afternoon Night"`
	Notes     string `json:"notes" validate:"max=500"`
	StationID string `json:"station_id"`
}

// DailyResult reports everything a daily entry changed.
type DailyResult struct {
	Order               *store.ProductionOrder `json:"order"`
	AutoCompleted       bool                   `json:"auto_completed"`
	StartedOrderNumbers []string               `json:"started_order_numbers"`
	LowStockWarnings    []string               `json:"low_stock_warnings"`
}

// CreateDailyProduction records a daily entry as a new started order, then
// reconciles it against the product's other open orders:
//
//  1. every other Pending order is started, oldest first
//  2. every other InProgress order whose quantity the entry covers is
//     completed; a failed completion leaves that order InProgress
//  3. active materials at or below minimum are reported
func (m *Manager) CreateDailyProduction(ctx context.Context, in DailyEntryInput) (*DailyResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	log := m.log.WithFields(logrus.Fields{"product_id": in.ProductID, "quantity": in.Quantity, "station": in.StationID})

	created, err := m.Create(ctx, CreateOrderInput{ProductID: in.ProductID, Quantity: in.Quantity, Shift: in.Shift, Notes: in.Notes})
	if err != nil {
		return nil, err
	}
	if _, err := m.Start(ctx, created.ID); err != nil {
		return nil, err
	}

	result := &DailyResult{StartedOrderNumbers: []string{}, LowStockWarnings: []string{}}

	orders, err := m.db.ListOrdersByProduct(in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list orders for product %d: %w", in.ProductID, err)
	}
	for _, o := range orders {
		if o.ID == created.ID || o.Status != StatusPending {
			continue
		}
		if _, err := m.Start(ctx, o.ID); err != nil {
			return nil, err
		}
		result.StartedOrderNumbers = append(result.StartedOrderNumbers, o.OrderNumber)
	}

	orders, err = m.db.ListOrdersByProduct(in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list orders for product %d: %w", in.ProductID, err)
	}
	for _, o := range orders {
		if o.ID == created.ID || o.Status != StatusInProgress || in.Quantity < o.Quantity {
			continue
		}
		done, err := m.Complete(ctx, o.ID)
		if err != nil {
			log.WithField("order", o.OrderNumber).Warnf("auto-complete skipped: %v", err)
			continue
		}
		if done.Status == StatusCompleted {
			result.AutoCompleted = true
		}
	}

	low, err := m.ledger.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, mat := range low {
		result.LowStockWarnings = append(result.LowStockWarnings, LowStockWarning(mat))
		m.emitter.EmitLowStock(mat.ID, mat.Code, mat.CurrentStock, mat.MinimumStock)
	}

	result.Order, err = m.db.GetProductionOrder(created.ID)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"order":          result.Order.OrderNumber,
		"started":        len(result.StartedOrderNumbers),
		"auto_completed": result.AutoCompleted,
		"low_stock":      len(result.LowStockWarnings),
	}).Info("daily production recorded")
	return result, nil
}

// LowStockWarning formats the operator-facing warning for one material.
func LowStockWarning(m *store.RawMaterial) string {
	return fmt.Sprintf("Low stock: %s (%s) at %s %s, minimum %s",
		m.Name, m.Code, m.CurrentStock.StringFixed(2), m.Unit, m.MinimumStock.StringFixed(2))
}
