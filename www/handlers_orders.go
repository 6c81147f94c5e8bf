package www

import (
	"context"
	"net/http"

	"tinacopro/production"
	"tinacopro/store"
)

func (h *Handlers) apiListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []*store.ProductionOrder
		err    error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		orders, err = h.engine.DB().ListProductionOrdersByStatus(status)
	} else {
		orders, err = h.engine.DB().ListProductionOrders()
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, orders)
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	order, err := h.engine.DB().GetProductionOrder(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	history, err := h.engine.DB().ListOrderHistory(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"order": order, "history": history})
}

func (h *Handlers) apiOrderConsumption(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	logs, err := h.engine.Production().Consumption(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, logs)
}

func (h *Handlers) apiCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in production.CreateOrderInput
	if !h.decode(w, r, &in) {
		return
	}
	o, err := h.engine.Production().Create(r.Context(), in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonBody(w, http.StatusCreated, o)
}

func (h *Handlers) apiDailyProduction(w http.ResponseWriter, r *http.Request) {
	var in production.DailyEntryInput
	if !h.decode(w, r, &in) {
		return
	}
	if in.StationID == "" {
		in.StationID = h.actor(r)
	}
	res, err := h.engine.Production().CreateDailyProduction(r.Context(), in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonBody(w, http.StatusCreated, res)
}

func (h *Handlers) apiStartOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "start", h.engine.Production().Start)
}

func (h *Handlers) apiCompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "complete", h.engine.Production().Complete)
}

func (h *Handlers) apiCancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "cancel", h.engine.Production().Cancel)
}

func (h *Handlers) orderAction(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, int64) (*store.ProductionOrder, error)) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	o, err := fn(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("order", o.OrderNumber).Infof("order %s requested", action)
	h.jsonOK(w, o)
}
