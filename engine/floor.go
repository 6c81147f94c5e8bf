package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tinacopro/messaging"
	"tinacopro/production"
)

const floorTimeout = 30 * time.Second

// floorHandler serves messages from floor stations. Results and failures go
// back on the events topic through the outbox.
type floorHandler struct {
	engine *Engine
}

func (h *floorHandler) HandleProductionEntry(env *messaging.Envelope, p messaging.ProductionEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), floorTimeout)
	defer cancel()

	station := p.StationID
	if station == "" {
		station = env.Src
	}
	res, err := h.engine.production.CreateDailyProduction(ctx, production.DailyEntryInput{
		ProductID: p.ProductID,
		Quantity:  p.Quantity,
		Shift:     p.Shift,
		Notes:     p.Notes,
		StationID: station,
	})
	if err != nil {
		h.reject(env, err)
		return
	}
	h.reply(messaging.TypeProductionResult, station, messaging.ProductionResult{
		StationID:        station,
		OrderNumber:      res.Order.OrderNumber,
		Status:           res.Order.Status,
		AutoCompleted:    res.AutoCompleted,
		StartedOrders:    res.StartedOrderNumbers,
		LowStockWarnings: res.LowStockWarnings,
	})
}

func (h *floorHandler) HandleShipmentStatus(env *messaging.Envelope, p messaging.ShipmentStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), floorTimeout)
	defer cancel()
	if _, err := h.engine.shipping.UpdateStatus(ctx, p.ShipmentID, p.Status); err != nil {
		h.reject(env, err)
	}
}

func (h *floorHandler) HandleHousekeeping(env *messaging.Envelope, _ messaging.Housekeeping) {
	ctx, cancel := context.WithTimeout(context.Background(), floorTimeout)
	defer cancel()
	if _, err := h.engine.RunHousekeeping(ctx); err != nil {
		h.reject(env, err)
	}
}

func (h *floorHandler) reject(env *messaging.Envelope, err error) {
	h.engine.log.WithError(err).WithFields(logrus.Fields{"type": env.Type, "id": env.ID, "src": env.Src}).Warn("floor message failed")
	h.reply(messaging.TypeFloorError, env.Src, messaging.FloorError{
		CorrelationID: env.ID,
		MsgType:       env.Type,
		Detail:        err.Error(),
	})
}

func (h *floorHandler) reply(msgType, key string, payload any) {
	env, err := messaging.NewEnvelope(msgType, h.engine.cfg.Messaging.PlantID, payload)
	if err != nil {
		h.engine.log.WithError(err).Error("build floor reply")
		return
	}
	h.engine.enqueueEnvelope(env, key)
}
