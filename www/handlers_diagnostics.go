package www

import (
	"net/http"
)

func (h *Handlers) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	auditLog, _ := h.engine.DB().ListAuditLog(50)
	pending, _ := h.engine.DB().ListPendingOutbox(100)

	data := map[string]any{
		"Page":          "diagnostics",
		"AuditLog":      auditLog,
		"PendingOutbox": pending,
		"MessagingOK":   h.messagingOK(),
		"CacheOK":       h.engine.StockCache().Enabled(),
		"SSEClients":    h.eventHub.ClientCount(),
		"Authenticated": h.isAuthenticated(r),
	}
	h.render(w, "diagnostics.html", data)
}
