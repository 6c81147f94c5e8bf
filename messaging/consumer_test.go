package messaging

import "testing"

type recordingHandler struct {
	entries      []ProductionEntry
	statuses     []ShipmentStatus
	housekeeping int
}

func (h *recordingHandler) HandleProductionEntry(_ *Envelope, p ProductionEntry) {
	h.entries = append(h.entries, p)
}
func (h *recordingHandler) HandleShipmentStatus(_ *Envelope, p ShipmentStatus) {
	h.statuses = append(h.statuses, p)
}
func (h *recordingHandler) HandleHousekeeping(_ *Envelope, _ Housekeeping) { h.housekeeping++ }

type fakeSubscriber struct {
	topic   string
	handler MessageHandler
}

func (f *fakeSubscriber) Subscribe(topic string, handler MessageHandler) error {
	f.topic, f.handler = topic, handler
	return nil
}

func encode(t *testing.T, msgType string, payload any) []byte {
	t.Helper()
	env, err := NewEnvelope(msgType, "test", payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func TestConsumerRoutesByType(t *testing.T) {
	h := &recordingHandler{}
	sub := &fakeSubscriber{}
	c := NewConsumer(sub, "tinacopro.floor", h, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sub.topic != "tinacopro.floor" {
		t.Fatalf("subscribed to %q", sub.topic)
	}

	sub.handler("tinacopro.floor", encode(t, TypeProductionEntry, ProductionEntry{ProductID: 3, Quantity: 4}))
	sub.handler("tinacopro.floor", encode(t, TypeShipmentStatus, ShipmentStatus{ShipmentID: 8, Status: "Delivered"}))
	sub.handler("tinacopro.floor", encode(t, TypeHousekeeping, Housekeeping{}))

	if len(h.entries) != 1 || h.entries[0].ProductID != 3 {
		t.Errorf("entries = %+v", h.entries)
	}
	if len(h.statuses) != 1 || h.statuses[0].Status != "Delivered" {
		t.Errorf("statuses = %+v", h.statuses)
	}
	if h.housekeeping != 1 {
		t.Errorf("housekeeping = %d", h.housekeeping)
	}
}

func TestConsumerDropsBadMessages(t *testing.T) {
	h := &recordingHandler{}
	c := NewConsumer(&fakeSubscriber{}, "floor", h, nil)

	c.HandleMessage("floor", []byte(`{"v":1,"type":"production_entry","id":"x","p":"not an object"}`))
	c.HandleMessage("floor", encode(t, "pallet_scanned", map[string]string{"a": "b"}))
	c.HandleMessage("floor", []byte(`{`))

	if len(h.entries)+len(h.statuses)+h.housekeeping != 0 {
		t.Errorf("handler called for bad input: %+v", h)
	}
}
