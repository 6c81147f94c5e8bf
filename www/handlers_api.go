package www

import (
	"net/http"
	"strconv"
)

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":      "ok",
		"database":    "ok",
		"messaging":   h.messagingOK(),
		"stock_cache": h.engine.StockCache().Enabled(),
		"sse_clients": h.eventHub.ClientCount(),
	}
	if err := h.engine.DB().PingContext(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		h.jsonBody(w, http.StatusServiceUnavailable, status)
		return
	}
	h.jsonOK(w, status)
}

func (h *Handlers) messagingOK() bool {
	c := h.engine.MsgClient()
	return c != nil && c.IsConnected()
}

func (h *Handlers) apiAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) apiListFinishedGoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if pid := q.Get("product_id"); pid != "" {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			h.jsonError(w, "invalid product_id", http.StatusBadRequest)
			return
		}
		list := h.engine.DB().ListFinishedGoodsByProduct
		if q.Get("available") == "1" {
			list = h.engine.DB().ListAvailableFinishedGoods
		}
		batches, err := list(id)
		if err != nil {
			h.serviceError(w, err)
			return
		}
		h.jsonOK(w, batches)
		return
	}
	batches, err := h.engine.DB().ListFinishedGoods()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, batches)
}

func (h *Handlers) apiHousekeeping(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.RunHousekeeping(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).Info("housekeeping requested")
	h.jsonOK(w, summary)
}
