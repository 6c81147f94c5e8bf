package fifo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tinacopro/config"
	"tinacopro/fault"
	"tinacopro/locks"
	"tinacopro/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

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

type fixture struct {
	db      *store.DB
	alloc   *Allocator
	product *store.Product
	order   *store.ProductionOrder
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	p := &store.Product{Name: "Tinaco 1100", IsActive: true}
	if err := db.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	o := &store.ProductionOrder{OrderNumber: "PO-1", ProductID: p.ID, Quantity: 1, Status: "Completed", OrderDate: time.Now()}
	if err := db.CreateProductionOrder(o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return &fixture{db: db, alloc: New(db, locks.NewLocalManager(), nil), product: p, order: o}
}

// batch creates a batch produced daysAgo days before a fixed date.
func (f *fixture) batch(t *testing.T, name string, daysAgo int, stock string) *store.FinishedGood {
	t.Helper()
	fg := &store.FinishedGood{
		ProductID:         f.product.ID,
		ProductionOrderID: f.order.ID,
		Quantity:          dec(stock),
		CurrentStock:      dec(stock),
		ProductionDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		BatchNumber:       name,
	}
	if err := f.db.CreateFinishedGood(fg); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return fg
}

func (f *fixture) stock(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	fg, err := f.db.GetFinishedGood(id)
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	return fg.CurrentStock
}

func TestAutoDepleteWithinFirstBatch(t *testing.T) {
	f := setup(t)
	// created newest first so insertion order differs from date order
	b3 := f.batch(t, "B3", 1, "7")
	b2 := f.batch(t, "B2", 5, "4")
	b1 := f.batch(t, "B1", 10, "3")

	primary, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("3"))
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}
	if primary == nil || *primary != b1.ID {
		t.Fatalf("primary = %v, want %d", primary, b1.ID)
	}
	if !f.stock(t, b1.ID).IsZero() || !f.stock(t, b2.ID).Equal(dec("4")) || !f.stock(t, b3.ID).Equal(dec("7")) {
		t.Errorf("stocks = %s/%s/%s, want 0/4/7", f.stock(t, b1.ID), f.stock(t, b2.ID), f.stock(t, b3.ID))
	}
}

func TestAutoDepleteSpillsIntoNextBatch(t *testing.T) {
	f := setup(t)
	b1 := f.batch(t, "B1", 10, "3")
	b2 := f.batch(t, "B2", 5, "10")

	primary, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("5"))
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}
	if primary == nil || *primary != b1.ID {
		t.Fatalf("primary = %v, want %d", primary, b1.ID)
	}
	if !f.stock(t, b1.ID).IsZero() || !f.stock(t, b2.ID).Equal(dec("8")) {
		t.Errorf("stocks = %s/%s, want 0/8", f.stock(t, b1.ID), f.stock(t, b2.ID))
	}
}

func TestAutoDepleteSkipsEmptyBatches(t *testing.T) {
	f := setup(t)
	f.batch(t, "EMPTY", 20, "0")
	b := f.batch(t, "B", 2, "6")

	primary, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("2"))
	if err != nil || primary == nil || *primary != b.ID {
		t.Fatalf("primary = %v, err = %v, want %d", primary, err, b.ID)
	}
}

func TestAutoDepleteNoBatchIsNotAnError(t *testing.T) {
	f := setup(t)
	primary, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("1"))
	if err != nil || primary != nil {
		t.Errorf("primary = %v, err = %v, want nil, nil", primary, err)
	}
}

func TestAutoDepleteShortfallChangesNothing(t *testing.T) {
	f := setup(t)
	b1 := f.batch(t, "B1", 10, "3")
	b2 := f.batch(t, "B2", 5, "4")

	_, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("8"))
	var ise *fault.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if !ise.Shortages[0].Available.Equal(dec("7")) {
		t.Errorf("available = %s, want 7", ise.Shortages[0].Available)
	}
	if !f.stock(t, b1.ID).Equal(dec("3")) || !f.stock(t, b2.ID).Equal(dec("4")) {
		t.Error("stocks changed after failed depletion")
	}
}

func TestDepleteBatchAndRestoreRoundTrip(t *testing.T) {
	f := setup(t)
	b := f.batch(t, "B", 1, "10")
	ctx := context.Background()

	if err := f.alloc.DepleteBatch(ctx, b.ID, dec("4")); err != nil {
		t.Fatalf("deplete: %v", err)
	}
	if got := f.stock(t, b.ID); !got.Equal(dec("6")) {
		t.Errorf("stock = %s, want 6", got)
	}
	if err := f.alloc.Restore(ctx, b.ID, dec("4")); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := f.stock(t, b.ID); !got.Equal(dec("10")) {
		t.Errorf("stock = %s, want 10", got)
	}

	if err := f.alloc.DepleteBatch(ctx, b.ID, dec("11")); !errors.Is(err, fault.ErrInsufficientStock) {
		t.Errorf("over-deplete err = %v, want insufficient stock", err)
	}
	if err := f.alloc.DepleteBatch(ctx, 999, dec("1")); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing batch err = %v, want not found", err)
	}
}

func TestRestoreTargetsPrimaryBatchOnly(t *testing.T) {
	f := setup(t)
	b1 := f.batch(t, "B1", 10, "3")
	b2 := f.batch(t, "B2", 5, "10")
	ctx := context.Background()

	primary, _ := f.alloc.AutoDeplete(ctx, f.product.ID, dec("5"))
	if err := f.alloc.Restore(ctx, *primary, dec("5")); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !f.stock(t, b1.ID).Equal(dec("5")) || !f.stock(t, b2.ID).Equal(dec("8")) {
		t.Errorf("stocks = %s/%s, want 5/8", f.stock(t, b1.ID), f.stock(t, b2.ID))
	}
}

func TestConcurrentAutoDepleteNeverOversells(t *testing.T) {
	f := setup(t)
	b := f.batch(t, "B", 1, "10")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.alloc.AutoDeplete(context.Background(), f.product.ID, dec("4"))
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if ok != 2 {
		t.Errorf("successful depletions = %d, want 2", ok)
	}
	if got := f.stock(t, b.ID); !got.Equal(dec("2")) {
		t.Errorf("stock = %s, want 2", got)
	}
}
