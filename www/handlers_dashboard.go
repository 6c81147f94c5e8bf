package www

import (
	"net/http"
)

func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	db := h.engine.DB()
	orders, _ := db.ListProductionOrders()
	shipments, _ := db.ListShipments()
	materials, _ := db.ListActiveRawMaterials()
	low, _ := h.engine.Ledger().LowStock(r.Context())
	audit, _ := db.ListAuditLog(15)

	orderCounts := map[string]int{}
	for _, o := range orders {
		orderCounts[o.Status]++
	}
	shipmentCounts := map[string]int{}
	for _, s := range shipments {
		shipmentCounts[s.Status]++
	}

	data := map[string]any{
		"Page":           "dashboard",
		"OrderCounts":    orderCounts,
		"ShipmentCounts": shipmentCounts,
		"TotalOrders":    len(orders),
		"TotalShipments": len(shipments),
		"TotalMaterials": len(materials),
		"LowStock":       low,
		"Audit":          audit,
		"MessagingOK":    h.messagingOK(),
		"CacheOK":        h.engine.StockCache().Enabled(),
		"Authenticated":  h.isAuthenticated(r),
	}
	h.render(w, "dashboard.html", data)
}
