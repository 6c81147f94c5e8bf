package www

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"tinacopro/ledger"
	"tinacopro/store"
)

type movementRequest struct {
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference"`
}

func (h *Handlers) apiListMaterials(w http.ResponseWriter, r *http.Request) {
	list := h.engine.DB().ListActiveRawMaterials
	if r.URL.Query().Get("all") == "1" {
		list = h.engine.DB().ListRawMaterials
	}
	materials, err := list()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, materials)
}

// apiLowStock answers from the stock cache, which falls back to SQL when
// Redis is not configured.
func (h *Handlers) apiLowStock(w http.ResponseWriter, r *http.Request) {
	ids, err := h.engine.StockCache().LowStockIDs(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	materials := make([]*store.RawMaterial, 0, len(ids))
	for _, id := range ids {
		m, err := h.engine.DB().GetRawMaterial(id)
		if err != nil {
			h.serviceError(w, err)
			return
		}
		materials = append(materials, m)
	}
	h.jsonOK(w, materials)
}

func (h *Handlers) apiMaterialMovements(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if _, err := h.engine.DB().GetRawMaterial(id); err != nil {
		h.serviceError(w, err)
		return
	}
	moves, err := h.engine.DB().ListStockMovements(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, moves)
}

func (h *Handlers) apiCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var in ledger.MaterialInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.engine.Ledger().CreateMaterial(r.Context(), in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.engine.StockCache().UpdateMaterial(r.Context(), m.ID)
	h.log.WithField("user", h.actor(r)).WithField("code", m.Code).Info("material created")
	h.jsonBody(w, http.StatusCreated, m)
}

func (h *Handlers) apiUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in ledger.MaterialInput
	if !h.decode(w, r, &in) {
		return
	}
	m, err := h.engine.Ledger().UpdateMaterial(r.Context(), id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.engine.StockCache().UpdateMaterial(r.Context(), m.ID)
	h.jsonOK(w, m)
}

func (h *Handlers) apiDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.engine.Ledger().DeleteMaterial(r.Context(), id); err != nil {
		h.serviceError(w, err)
		return
	}
	h.engine.StockCache().RemoveMaterial(r.Context(), id)
	h.log.WithField("user", h.actor(r)).WithField("material_id", id).Info("material deleted")
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiMaterialConsumption(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	logs, err := h.engine.Ledger().Consumption(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, logs)
}

func (h *Handlers) apiAdjustMaterial(w http.ResponseWriter, r *http.Request) {
	h.moveStock(w, r, h.engine.Ledger().Adjust)
}

func (h *Handlers) apiReceiveMaterial(w http.ResponseWriter, r *http.Request) {
	h.moveStock(w, r, h.engine.Ledger().Receive)
}

func (h *Handlers) moveStock(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, in ledger.AdjustInput) (*store.StockMovement, error)) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req movementRequest
	if !h.decode(w, r, &req) {
		return
	}
	move, err := fn(r.Context(), ledger.AdjustInput{
		MaterialID: id,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		Reference:  req.Reference,
	})
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, move)
}
