package engine

import "github.com/shopspring/decimal"

// productionEmitter bridges the production package's emitter interface to the EventBus.
type productionEmitter struct {
	bus *EventBus
}

func (e *productionEmitter) EmitOrderCreated(orderID int64, orderNumber string, productID int64, quantity int) {
	e.bus.Emit(Event{Type: EventOrderCreated, Payload: OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		ProductID:   productID,
		Quantity:    quantity,
	}})
}

func (e *productionEmitter) EmitOrderStarted(orderID int64, orderNumber string) {
	e.bus.Emit(Event{Type: EventOrderStarted, Payload: OrderStartedEvent{OrderID: orderID, OrderNumber: orderNumber}})
}

func (e *productionEmitter) EmitOrderCompleted(orderID int64, orderNumber string, finishedGoodID int64) {
	e.bus.Emit(Event{Type: EventOrderCompleted, Payload: OrderCompletedEvent{
		OrderID:        orderID,
		OrderNumber:    orderNumber,
		FinishedGoodID: finishedGoodID,
	}})
}

func (e *productionEmitter) EmitOrderCancelled(orderID int64, orderNumber, fromStatus string) {
	e.bus.Emit(Event{Type: EventOrderCancelled, Payload: OrderCancelledEvent{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		FromStatus:  fromStatus,
	}})
}

func (e *productionEmitter) EmitFinishedGoodCreated(finishedGoodID, productID int64, batchNumber string, quantity decimal.Decimal) {
	e.bus.Emit(Event{Type: EventFinishedGoodCreated, Payload: FinishedGoodCreatedEvent{
		FinishedGoodID: finishedGoodID,
		ProductID:      productID,
		BatchNumber:    batchNumber,
		Quantity:       quantity,
	}})
}

func (e *productionEmitter) EmitLowStock(materialID int64, code string, current, minimum decimal.Decimal) {
	e.bus.Emit(Event{Type: EventLowStock, Payload: LowStockEvent{
		MaterialID:   materialID,
		Code:         code,
		CurrentStock: current,
		MinimumStock: minimum,
	}})
}

// ledgerEmitter bridges stock movements from the ledger to the EventBus.
type ledgerEmitter struct {
	bus *EventBus
}

func (e *ledgerEmitter) EmitStockMoved(materialID int64, movementType string, quantity, newStock decimal.Decimal, reference string) {
	e.bus.Emit(Event{Type: EventStockMoved, Payload: StockMovedEvent{
		MaterialID:   materialID,
		MovementType: movementType,
		Quantity:     quantity,
		NewStock:     newStock,
		Reference:    reference,
	}})
}

// shippingEmitter bridges the shipping package's emitter interface to the EventBus.
type shippingEmitter struct {
	bus *EventBus
}

func (e *shippingEmitter) EmitShipmentCreated(shipmentID int64, shipmentNumber string, productID int64, finishedGoodID *int64) {
	e.bus.Emit(Event{Type: EventShipmentCreated, Payload: ShipmentCreatedEvent{
		ShipmentID:     shipmentID,
		ShipmentNumber: shipmentNumber,
		ProductID:      productID,
		FinishedGoodID: finishedGoodID,
	}})
}

func (e *shippingEmitter) EmitShipmentStatusChanged(shipmentID int64, shipmentNumber, oldStatus, newStatus string) {
	e.bus.Emit(Event{Type: EventShipmentStatusChanged, Payload: ShipmentStatusChangedEvent{
		ShipmentID:     shipmentID,
		ShipmentNumber: shipmentNumber,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
	}})
}

func (e *shippingEmitter) EmitShipmentCancelled(shipmentID int64, shipmentNumber string) {
	e.bus.Emit(Event{Type: EventShipmentCancelled, Payload: ShipmentCancelledEvent{
		ShipmentID:     shipmentID,
		ShipmentNumber: shipmentNumber,
	}})
}
