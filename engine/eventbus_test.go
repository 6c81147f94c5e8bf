package engine

import "testing"

func TestEventBusFiltersByType(t *testing.T) {
	bus := NewEventBus(nil)
	var all, shipments int
	bus.Subscribe(func(Event) { all++ })
	bus.SubscribeTypes(func(Event) { shipments++ }, EventShipmentCreated, EventShipmentCancelled)

	bus.Emit(Event{Type: EventOrderCreated})
	bus.Emit(Event{Type: EventShipmentCreated})
	bus.Emit(Event{Type: EventShipmentCancelled})

	if all != 3 || shipments != 2 {
		t.Errorf("all = %d, shipments = %d; want 3, 2", all, shipments)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	n := 0
	id := bus.Subscribe(func(Event) { n++ })
	bus.Emit(Event{Type: EventLowStock})
	bus.Unsubscribe(id)
	bus.Emit(Event{Type: EventLowStock})
	if n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestEventBusSurvivesPanickingSubscriber(t *testing.T) {
	bus := NewEventBus(nil)
	reached := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(evt Event) {
		reached = true
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not stamped")
		}
	})
	bus.Emit(Event{Type: EventOrderStarted})
	if !reached {
		t.Error("second subscriber not called after panic")
	}
}

func TestEventTypeNames(t *testing.T) {
	if EventShipmentStatusChanged.String() != "shipment_status_changed" {
		t.Errorf("name = %q", EventShipmentStatusChanged.String())
	}
	if EventType(999).String() != "unknown" {
		t.Errorf("unknown name = %q", EventType(999).String())
	}
}
