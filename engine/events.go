package engine

import (
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated EventType = iota + 1
	EventOrderStarted
	EventOrderCompleted
	EventOrderCancelled
	EventFinishedGoodCreated
	EventStockMoved
	EventLowStock
	EventShipmentCreated
	EventShipmentStatusChanged
	EventShipmentCancelled
	EventHousekeepingRan
	EventMessagingConnected
	EventMessagingDisconnected
)

var eventNames = map[EventType]string{
	EventOrderCreated:          "order_created",
	EventOrderStarted:          "order_started",
	EventOrderCompleted:        "order_completed",
	EventOrderCancelled:        "order_cancelled",
	EventFinishedGoodCreated:   "finished_good_created",
	EventStockMoved:            "stock_moved",
	EventLowStock:              "low_stock",
	EventShipmentCreated:       "shipment_created",
	EventShipmentStatusChanged: "shipment_status_changed",
	EventShipmentCancelled:     "shipment_cancelled",
	EventHousekeepingRan:       "housekeeping_ran",
	EventMessagingConnected:    "messaging_connected",
	EventMessagingDisconnected: "messaging_disconnected",
}

// String is the wire name used for outbox message types and SSE event names.
func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// --- Event payloads ---

type OrderCreatedEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	ProductID   int64  `json:"product_id"`
	Quantity    int    `json:"quantity"`
}

type OrderStartedEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type OrderCompletedEvent struct {
	OrderID        int64  `json:"order_id"`
	OrderNumber    string `json:"order_number"`
	FinishedGoodID int64  `json:"finished_good_id"`
}

type OrderCancelledEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	FromStatus  string `json:"from_status"`
}

type FinishedGoodCreatedEvent struct {
	FinishedGoodID int64           `json:"finished_good_id"`
	ProductID      int64           `json:"product_id"`
	BatchNumber    string          `json:"batch_number"`
	Quantity       decimal.Decimal `json:"quantity"`
}

type StockMovedEvent struct {
	MaterialID   int64           `json:"material_id"`
	MovementType string          `json:"movement_type"` // "In", "Out", "Adjustment"
	Quantity     decimal.Decimal `json:"quantity"`
	NewStock     decimal.Decimal `json:"new_stock"`
	Reference    string          `json:"reference,omitempty"`
}

type LowStockEvent struct {
	MaterialID   int64           `json:"material_id"`
	Code         string          `json:"code"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

type ShipmentCreatedEvent struct {
	ShipmentID     int64  `json:"shipment_id"`
	ShipmentNumber string `json:"shipment_number"`
	ProductID      int64  `json:"product_id"`
	FinishedGoodID *int64 `json:"finished_good_id,omitempty"`
}

type ShipmentStatusChangedEvent struct {
	ShipmentID     int64  `json:"shipment_id"`
	ShipmentNumber string `json:"shipment_number"`
	OldStatus      string `json:"old_status"`
	NewStatus      string `json:"new_status"`
}

type ShipmentCancelledEvent struct {
	ShipmentID     int64  `json:"shipment_id"`
	ShipmentNumber string `json:"shipment_number"`
}

type HousekeepingEvent struct {
	Dispatched int `json:"dispatched"`
	Delivered  int `json:"delivered"`
	LowStock   int `json:"low_stock"`
}

type ConnectionEvent struct {
	Detail string `json:"detail"`
}
