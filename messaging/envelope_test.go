package messaging

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeProductionEntry, "station-3", ProductionEntry{
		StationID: "station-3",
		ProductID: 7,
		Quantity:  12,
		Shift:     "Night",
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Version != Version || env.ID == "" || env.Timestamp.IsZero() {
		t.Errorf("envelope header = %+v", env)
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if got.Type != TypeProductionEntry || got.ID != env.ID || got.Src != "station-3" {
		t.Errorf("decoded header = %+v", got)
	}

	var p ProductionEntry
	if err := got.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.ProductID != 7 || p.Quantity != 12 || p.Shift != "Night" {
		t.Errorf("payload = %+v", p)
	}
}

func TestEnvelopeWireKeys(t *testing.T) {
	env, _ := NewEnvelope(TypeHousekeeping, "plant-1", Housekeeping{})
	data, _ := env.Encode()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"v", "type", "id", "src", "ts", "p"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q in %s", k, data)
		}
	}
}

func TestDecodeEnvelopeRejects(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"garbage", `not json`, "decode header"},
		{"wrong version", `{"v":2,"type":"housekeeping","id":"a"}`, "unsupported envelope version 2"},
		{"missing version", `{"type":"housekeeping","id":"a"}`, "unsupported envelope version 0"},
		{"missing type", `{"v":1,"id":"a"}`, "has no type"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(c.data))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Errorf("err = %v, want containing %q", err, c.want)
			}
		})
	}
}

func TestDecodeShipmentStatusPayload(t *testing.T) {
	data := []byte(`{
		"v": 1,
		"type": "shipment_status",
		"id": "msg-9",
		"src": "dock-2",
		"ts": "2026-08-12T12:00:00Z",
		"p": {"shipment_id": 41, "status": "InTransit"}
	}`)
	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var p ShipmentStatus
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.ShipmentID != 41 || p.Status != "InTransit" {
		t.Errorf("payload = %+v", p)
	}
	if env.Timestamp.Year() != 2026 {
		t.Errorf("ts = %v", env.Timestamp)
	}
}
