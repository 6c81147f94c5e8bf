package www

import (
	"net/http"

	"tinacopro/bom"
)

func (h *Handlers) apiGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	t, err := h.engine.DB().GetTemplateWithParts(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	tree := bom.NewTree(t.Parts)
	h.jsonOK(w, map[string]any{
		"template":     t,
		"totals":       tree.Rollup(),
		"requirements": tree.Requirements(),
	})
}

func (h *Handlers) apiAddPart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in bom.PartInput
	if !h.decode(w, r, &in) {
		return
	}
	in.TemplateID = id
	p, err := h.engine.BOM().AddPart(in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonBody(w, http.StatusCreated, p)
}

func (h *Handlers) apiUpdatePart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in bom.PartInput
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.engine.BOM().UpdatePart(id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiDeletePart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.engine.BOM().DeletePart(id); err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiSyncProductCosts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	p, err := h.engine.BOM().SyncProductCosts(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, p)
}
