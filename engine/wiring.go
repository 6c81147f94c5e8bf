package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"tinacopro/logging"
	"tinacopro/messaging"
)

const actorSystem = "system"

func (e *Engine) wireEventHandlers() {
	// Every domain event goes to the events topic through the outbox
	e.Events.Subscribe(func(evt Event) {
		if evt.Type == EventMessagingConnected || evt.Type == EventMessagingDisconnected {
			return
		}
		e.enqueueEvent(evt)
	})

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCreatedEvent)
		e.audit("production_order", ev.OrderID, "created", "", fmt.Sprintf("%s qty %d", ev.OrderNumber, ev.Quantity))
	}, EventOrderCreated)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderStartedEvent)
		e.audit("production_order", ev.OrderID, "started", "Pending", "InProgress")
	}, EventOrderStarted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCompletedEvent)
		e.log.WithField("order", ev.OrderNumber).Info("order completed")
		e.audit("production_order", ev.OrderID, "completed", "InProgress", "Completed")
	}, EventOrderCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OrderCancelledEvent)
		e.audit("production_order", ev.OrderID, "cancelled", ev.FromStatus, "Cancelled")
	}, EventOrderCancelled)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(FinishedGoodCreatedEvent)
		e.audit("finished_good", ev.FinishedGoodID, "created", "", fmt.Sprintf("%s qty %s", ev.BatchNumber, ev.Quantity))
	}, EventFinishedGoodCreated)

	// Stock movements: audit and refresh the cached level
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StockMovedEvent)
		e.audit("raw_material", ev.MaterialID, "stock_"+ev.MovementType, "", fmt.Sprintf("%s -> %s %s", ev.Quantity, ev.NewStock, ev.Reference))
		e.cache.UpdateMaterial(context.Background(), ev.MaterialID)
	}, EventStockMoved)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(LowStockEvent)
		e.log.WithFields(logrus.Fields{"material": ev.Code, "current": ev.CurrentStock.String(), "minimum": ev.MinimumStock.String()}).Warn("low stock")
		e.audit("raw_material", ev.MaterialID, "low_stock", "", fmt.Sprintf("%s at %s, minimum %s", ev.Code, ev.CurrentStock, ev.MinimumStock))
		e.cache.UpdateMaterial(context.Background(), ev.MaterialID)
	}, EventLowStock)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ShipmentCreatedEvent)
		e.audit("shipment", ev.ShipmentID, "created", "", ev.ShipmentNumber)
	}, EventShipmentCreated)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ShipmentStatusChangedEvent)
		e.audit("shipment", ev.ShipmentID, "status", ev.OldStatus, ev.NewStatus)
	}, EventShipmentStatusChanged)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ShipmentCancelledEvent)
		e.audit("shipment", ev.ShipmentID, "cancelled", "", ev.ShipmentNumber)
	}, EventShipmentCancelled)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(HousekeepingEvent)
		e.log.WithFields(logrus.Fields{"dispatched": ev.Dispatched, "delivered": ev.Delivered, "low_stock": ev.LowStock}).Info("housekeeping ran")
	}, EventHousekeepingRan)
}

func (e *Engine) audit(entityType string, entityID int64, action, oldValue, newValue string) {
	if err := e.db.AppendAudit(entityType, entityID, action, oldValue, newValue, actorSystem); err != nil {
		logging.LogError(e.log, "engine", "audit", entityType+" "+action, entityID, err)
	}
}

// enqueueEvent writes the event to the outbox as an envelope on the events
// topic. The drainer publishes it later.
func (e *Engine) enqueueEvent(evt Event) {
	env, err := messaging.NewEnvelope(evt.Type.String(), e.cfg.Messaging.PlantID, evt.Payload)
	if err != nil {
		logging.LogError(e.log, "engine", "enqueueEvent", "build envelope", evt.Type.String(), err)
		return
	}
	env.Timestamp = evt.Timestamp
	e.enqueueEnvelope(env, entityKey(evt.Payload))
}

func (e *Engine) enqueueEnvelope(env *messaging.Envelope, key string) {
	data, err := env.Encode()
	if err != nil {
		logging.LogError(e.log, "engine", "enqueueEnvelope", "encode", env.Type, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, env.Type, key); err != nil {
		logging.LogError(e.log, "engine", "enqueueEnvelope", "enqueue", env.Type, err)
	}
}

// entityKey is the outbox key used to keep one entity's messages together.
func entityKey(payload any) string {
	switch p := payload.(type) {
	case OrderCreatedEvent:
		return p.OrderNumber
	case OrderStartedEvent:
		return p.OrderNumber
	case OrderCompletedEvent:
		return p.OrderNumber
	case OrderCancelledEvent:
		return p.OrderNumber
	case FinishedGoodCreatedEvent:
		return p.BatchNumber
	case StockMovedEvent:
		return "material-" + strconv.FormatInt(p.MaterialID, 10)
	case LowStockEvent:
		return "material-" + strconv.FormatInt(p.MaterialID, 10)
	case ShipmentCreatedEvent:
		return p.ShipmentNumber
	case ShipmentStatusChangedEvent:
		return p.ShipmentNumber
	case ShipmentCancelledEvent:
		return p.ShipmentNumber
	default:
		return ""
	}
}
