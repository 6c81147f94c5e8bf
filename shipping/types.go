package shipping

// Shipment statuses
const (
	StatusPending   = "Pending"
	StatusInTransit = "InTransit"
	StatusDelivered = "Delivered"
	StatusCancelled = "Cancelled"
)

var validTransitions = map[string][]string{
	StatusPending:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
}

// IsValidTransition checks if a status transition is allowed.
func IsValidTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status is a terminal state.
func IsTerminal(status string) bool {
	return status == StatusDelivered || status == StatusCancelled
}

// IsKnown reports whether status is one of the shipment statuses.
func IsKnown(status string) bool {
	switch status {
	case StatusPending, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Emitter is the interface the shipping package uses to emit events.
type Emitter interface {
	EmitShipmentCreated(shipmentID int64, shipmentNumber string, productID int64, finishedGoodID *int64)
	EmitShipmentStatusChanged(shipmentID int64, shipmentNumber, oldStatus, newStatus string)
	EmitShipmentCancelled(shipmentID int64, shipmentNumber string)
}

type nopEmitter struct{}

func (nopEmitter) EmitShipmentCreated(int64, string, int64, *int64)        {}
func (nopEmitter) EmitShipmentStatusChanged(int64, string, string, string) {}
func (nopEmitter) EmitShipmentCancelled(int64, string)                     {}
