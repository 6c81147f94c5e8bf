package www

import (
	"net/http"

	"tinacopro/shipping"
	"tinacopro/store"
)

func (h *Handlers) apiListShipments(w http.ResponseWriter, r *http.Request) {
	var (
		list []*store.Shipment
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = h.engine.DB().ListShipmentsByStatus(status)
	} else {
		list, err = h.engine.DB().ListShipments()
	}
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, list)
}

func (h *Handlers) apiGetShipment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	s, err := h.engine.DB().GetShipment(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, s)
}

func (h *Handlers) apiCreateShipment(w http.ResponseWriter, r *http.Request) {
	var in shipping.CreateInput
	if !h.decode(w, r, &in) {
		return
	}
	s, err := h.engine.Shipping().Create(r.Context(), in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonBody(w, http.StatusCreated, s)
}

func (h *Handlers) apiUpdateShipment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in shipping.UpdateInput
	if !h.decode(w, r, &in) {
		return
	}
	s, err := h.engine.Shipping().Update(r.Context(), id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, s)
}

func (h *Handlers) apiShipmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.engine.Shipping().UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, s)
}

func (h *Handlers) apiCancelShipment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	s, err := h.engine.Shipping().Cancel(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("shipment", s.ShipmentNumber).Info("shipment cancelled")
	h.jsonOK(w, s)
}
