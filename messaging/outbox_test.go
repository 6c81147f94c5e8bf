package messaging

import (
	"errors"
	"path/filepath"
	"testing"

	"tinacopro/config"
	"tinacopro/store"
)

type fakePublisher struct {
	fail map[string]bool
	sent []string
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	if p.fail[topic] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, string(payload))
	return nil
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDrainPublishesInOrderAndAcks(t *testing.T) {
	db := testDB(t)
	for _, p := range []string{"one", "two", "three"} {
		if err := db.EnqueueOutbox("events", []byte(p), "order_created", "PO-1"); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	pub := &fakePublisher{}
	d := NewOutboxDrainer(db, pub, 0, nil)

	if n := d.Drain(); n != 3 {
		t.Fatalf("sent = %d, want 3", n)
	}
	if len(pub.sent) != 3 || pub.sent[0] != "one" || pub.sent[2] != "three" {
		t.Errorf("sent = %v", pub.sent)
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
	if n := d.Drain(); n != 0 {
		t.Errorf("second drain sent %d", n)
	}
}

func TestDrainKeepsFailedMessagesPending(t *testing.T) {
	db := testDB(t)
	db.EnqueueOutbox("down", []byte("a"), "t", "")
	db.EnqueueOutbox("up", []byte("b"), "t", "")
	pub := &fakePublisher{fail: map[string]bool{"down": true}}
	d := NewOutboxDrainer(db, pub, 0, nil)

	if n := d.Drain(); n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 1 || pending[0].Topic != "down" || pending[0].Retries != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	pub.fail = nil
	if n := d.Drain(); n != 1 {
		t.Errorf("retry sent = %d, want 1", n)
	}
}
