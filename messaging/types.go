package messaging

import (
	"encoding/json"
	"time"
)

// Envelope is the wrapper for every message on the events and floor topics.
type Envelope struct {
	Version   int             `json:"v"`
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Src       string          `json:"src"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"p"`
}

// RawHeader is the minimal decode used to route a message before its payload
// is decoded.
type RawHeader struct {
	Version int    `json:"v"`
	Type    string `json:"type"`
	ID      string `json:"id"`
}

const Version = 1

// Floor station -> plant (published on the floor topic).
const (
	TypeProductionEntry = "production_entry"
	TypeShipmentStatus  = "shipment_status"
	TypeHousekeeping    = "housekeeping"
)

// Plant -> subscribers (published on the events topic).
const (
	TypeProductionResult = "production_result"
	TypeFloorError       = "floor_error"
)

// --- Inbound payloads ---

type ProductionEntry struct {
	StationID string `json:"station_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Shift     string `json:"shift"`
	Notes     string `json:"notes,omitempty"`
}

type ShipmentStatus struct {
	ShipmentID int64  `json:"shipment_id"`
	Status     string `json:"status"`
}

type Housekeeping struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// --- Outbound replies ---

type ProductionResult struct {
	StationID        string   `json:"station_id"`
	OrderNumber      string   `json:"order_number"`
	Status           string   `json:"status"`
	AutoCompleted    bool     `json:"auto_completed"`
	StartedOrders    []string `json:"started_orders,omitempty"`
	LowStockWarnings []string `json:"low_stock_warnings,omitempty"`
}

type FloorError struct {
	CorrelationID string `json:"cor"`
	MsgType       string `json:"msg_type"`
	Detail        string `json:"detail"`
}
