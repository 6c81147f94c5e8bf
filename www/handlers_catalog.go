package www

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tinacopro/catalog"
)

func (h *Handlers) apiListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.engine.Catalog().Templates()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, templates)
}

func (h *Handlers) apiCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in catalog.TemplateInput
	if !h.decode(w, r, &in) {
		return
	}
	t, err := h.engine.Catalog().CreateTemplate(in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("template", t.Name).Info("template created")
	h.jsonBody(w, http.StatusCreated, t)
}

func (h *Handlers) apiUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in catalog.TemplateInput
	if !h.decode(w, r, &in) {
		return
	}
	t, err := h.engine.Catalog().UpdateTemplate(id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, t)
}

func (h *Handlers) apiDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.engine.Catalog().DeleteTemplate(id); err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("template_id", id).Info("template deleted")
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.engine.Catalog().Products()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, products)
}

func (h *Handlers) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	p, err := h.engine.Catalog().Product(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.engine.Catalog().CreateProduct(in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("product", p.Name).Info("product created")
	h.jsonBody(w, http.StatusCreated, p)
}

func (h *Handlers) apiUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in catalog.ProductInput
	if !h.decode(w, r, &in) {
		return
	}
	p, err := h.engine.Catalog().UpdateProduct(id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, p)
}

func (h *Handlers) apiDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.engine.Catalog().DeleteProduct(id); err != nil {
		h.serviceError(w, err)
		return
	}
	h.log.WithField("user", h.actor(r)).WithField("product_id", id).Info("product deleted")
	h.jsonOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) apiAddProductMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var in catalog.MaterialLineInput
	if !h.decode(w, r, &in) {
		return
	}
	pm, err := h.engine.Catalog().AddMaterialLine(id, in)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonBody(w, http.StatusCreated, pm)
}

func (h *Handlers) apiRemoveProductMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid line id", http.StatusBadRequest)
		return
	}
	if err := h.engine.Catalog().RemoveMaterialLine(id, lineID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "ok"})
}
