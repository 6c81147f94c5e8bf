package www

import (
	"bytes"
	"net/http"
	"time"

	"tinacopro/report"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sendWorkbook buffers the workbook so a render failure can still answer 500.
func (h *Handlers) sendWorkbook(w http.ResponseWriter, filename string, build func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := build(&buf); err != nil {
		h.log.WithError(err).WithField("report", filename).Error("render report")
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(buf.Bytes())
}

// reportProduction covers ?from=YYYY-MM-DD&to=YYYY-MM-DD, defaulting to the
// last 30 days. The end day is inclusive.
func (h *Handlers) reportProduction(w http.ResponseWriter, r *http.Request) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := dateParam(r, "from", today.AddDate(0, 0, -30))
	if err != nil {
		h.jsonError(w, "invalid from date", http.StatusBadRequest)
		return
	}
	to, err := dateParam(r, "to", today)
	if err != nil {
		h.jsonError(w, "invalid to date", http.StatusBadRequest)
		return
	}
	to = to.Add(24*time.Hour - time.Second)
	if to.Before(from) {
		h.jsonError(w, "to is before from", http.StatusBadRequest)
		return
	}
	orders, err := h.engine.DB().ListProductionOrders()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	products, err := h.engine.DB().ListProducts()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.sendWorkbook(w, "production.xlsx", func(buf *bytes.Buffer) error {
		return report.ProductionReport(buf, orders, products, from, to)
	})
}

func (h *Handlers) reportInventory(w http.ResponseWriter, r *http.Request) {
	materials, err := h.engine.DB().ListActiveRawMaterials()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.sendWorkbook(w, "inventory.xlsx", func(buf *bytes.Buffer) error {
		return report.InventoryReport(buf, materials)
	})
}

func (h *Handlers) reportFinishedGoods(w http.ResponseWriter, r *http.Request) {
	batches, err := h.engine.DB().ListFinishedGoods()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	products, err := h.engine.DB().ListProducts()
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.sendWorkbook(w, "finished-goods.xlsx", func(buf *bytes.Buffer) error {
		return report.FinishedGoodsReport(buf, batches, products)
	})
}
