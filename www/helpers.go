package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tinacopro/fault"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "just now"
			case d < time.Hour:
				m := int(d.Minutes())
				if m == 1 {
					return "1 minute ago"
				}
				return fmt.Sprintf("%d minutes ago", m)
			case d < 24*time.Hour:
				h := int(d.Hours())
				if h == 1 {
					return "1 hour ago"
				}
				return fmt.Sprintf("%d hours ago", h)
			default:
				days := int(d.Hours() / 24)
				if days == 1 {
					return "1 day ago"
				}
				return fmt.Sprintf("%d days ago", days)
			}
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"formatTimePtr": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"statusColor": func(status string) string {
			switch status {
			case "Pending":
				return "bg-yellow-100 text-yellow-800"
			case "InProgress", "InTransit":
				return "bg-blue-100 text-blue-800"
			case "Completed", "Delivered":
				return "bg-green-100 text-green-800"
			case "Cancelled":
				return "bg-gray-100 text-gray-800"
			default:
				return "bg-gray-100 text-gray-800"
			}
		},
		"dec": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"add": func(a, b int) int {
			return a + b
		},
	}
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	h.jsonBody(w, code, map[string]any{"error": msg})
}

func (h *Handlers) jsonBody(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

type shortageJSON struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// serviceError maps the fault kinds onto HTTP status codes. Unknown errors
// are logged and reported as 500.
func (h *Handlers) serviceError(w http.ResponseWriter, err error) {
	var (
		validation   *fault.ValidationError
		insufficient *fault.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		h.jsonBody(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "fields": validation.Fields})
	case errors.As(err, &insufficient):
		lines := make([]shortageJSON, 0, len(insufficient.Shortages))
		for _, s := range insufficient.Shortages {
			lines = append(lines, shortageJSON(s))
		}
		h.jsonBody(w, http.StatusConflict, map[string]any{"error": err.Error(), "shortages": lines})
	case errors.Is(err, fault.ErrNotFound):
		h.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, fault.ErrInvalidTransition), errors.Is(err, fault.ErrInUse):
		h.jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.log.WithError(err).Error("request failed")
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// decode reads a JSON request body into v, answering 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// dateParam parses a YYYY-MM-DD query value, returning def when absent.
func dateParam(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return time.ParseInLocation("2006-01-02", v, time.UTC)
}
