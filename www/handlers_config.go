package www

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

func (h *Handlers) handleConfig(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Page":          "config",
		"Authenticated": h.isAuthenticated(r),
		"Config":        h.engine.AppConfig(),
		"Saved":         r.URL.Query().Get("saved"),
	}
	h.render(w, "config.html", data)
}

func (h *Handlers) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	section := r.FormValue("section")
	cfg := h.engine.AppConfig()

	cfg.Lock()
	switch section {
	case "messaging":
		cfg.Messaging.Backend = r.FormValue("msg_backend")
		cfg.Messaging.MQTT.Broker = r.FormValue("mqtt_broker")
		if p, err := strconv.Atoi(r.FormValue("mqtt_port")); err == nil {
			cfg.Messaging.MQTT.Port = p
		}
		cfg.Messaging.MQTT.ClientID = r.FormValue("mqtt_client_id")
		cfg.Messaging.Kafka.Brokers = splitTrim(r.FormValue("kafka_brokers"), ",")
		if v := r.FormValue("events_topic"); v != "" {
			cfg.Messaging.EventsTopic = v
		}
		if v := r.FormValue("floor_topic"); v != "" {
			cfg.Messaging.FloorTopic = v
		}
		if d, err := time.ParseDuration(r.FormValue("outbox_drain_interval")); err == nil && d > 0 {
			cfg.Messaging.OutboxDrainInterval = d
		}
		cfg.Messaging.PlantID = r.FormValue("plant_id")
	case "production":
		if v := strings.TrimSpace(r.FormValue("order_prefix")); v != "" {
			cfg.Production.OrderPrefix = v
		}
		if v := strings.TrimSpace(r.FormValue("shipment_prefix")); v != "" {
			cfg.Production.ShipmentPrefix = v
		}
	case "redis":
		cfg.Redis.Address = r.FormValue("redis_address")
		cfg.Redis.Password = r.FormValue("redis_password")
		if d, err := strconv.Atoi(r.FormValue("redis_db")); err == nil {
			cfg.Redis.DB = d
		}
	default:
		cfg.Unlock()
		http.Error(w, "unknown section", http.StatusBadRequest)
		return
	}
	cfg.Unlock()

	if err := cfg.Save(h.engine.ConfigPath()); err != nil {
		h.log.WithError(err).Error("config: save")
		http.Error(w, "Failed to save: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Prefix and Redis changes take effect on restart.
	if section == "messaging" {
		h.engine.ReconfigureMessaging()
	}

	h.log.WithField("user", h.actor(r)).Infof("config: %s section saved", section)
	http.Redirect(w, r, "/config?saved="+section, http.StatusSeeOther)
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
