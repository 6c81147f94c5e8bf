package stockcache

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"tinacopro/config"
	"tinacopro/store"
)

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

func seed(t *testing.T, db *store.DB) (ok, low *store.RawMaterial) {
	t.Helper()
	ok = &store.RawMaterial{Code: "RES-01", Name: "Resin", Unit: "kg", CurrentStock: decimal.NewFromInt(100), MinimumStock: decimal.NewFromInt(20), IsActive: true}
	low = &store.RawMaterial{Code: "PIG-01", Name: "Pigment", Unit: "kg", CurrentStock: decimal.NewFromInt(5), MinimumStock: decimal.NewFromInt(5), IsActive: true}
	for _, m := range []*store.RawMaterial{ok, low} {
		if err := db.CreateRawMaterial(m); err != nil {
			t.Fatalf("create material: %v", err)
		}
	}
	return ok, low
}

func TestLevelLowAtThreshold(t *testing.T) {
	l := Level{CurrentStock: decimal.NewFromInt(5), MinimumStock: decimal.NewFromInt(5)}
	if !l.Low() {
		t.Error("stock equal to minimum should be low")
	}
	l.CurrentStock = decimal.RequireFromString("5.01")
	if l.Low() {
		t.Error("stock above minimum should not be low")
	}
}

func TestFallsBackToSQLWithoutRedis(t *testing.T) {
	db := testDB(t)
	ok, low := seed(t, db)
	c := New(db, nil, nil)
	ctx := context.Background()

	if c.Enabled() {
		t.Fatal("cache without client should be disabled")
	}
	if err := c.SyncFromSQL(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	c.UpdateMaterial(ctx, ok.ID)

	ids, err := c.LowStockIDs(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{low.ID}) {
		t.Errorf("low stock = %v, want [%d]", ids, low.ID)
	}
	lvl, err := c.GetLevel(ctx, ok.ID)
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	if !lvl.CurrentStock.Equal(decimal.NewFromInt(100)) {
		t.Errorf("stock = %s, want 100", lvl.CurrentStock)
	}
}

func TestRedisTracksLowStockSet(t *testing.T) {
	addr := os.Getenv("TINACO_TEST_REDIS")
	if addr == "" {
		t.Skip("TINACO_TEST_REDIS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	db := testDB(t)
	ok, low := seed(t, db)
	c := New(db, rdb, nil)
	ctx := context.Background()
	if err := c.SyncFromSQL(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	t.Cleanup(func() { c.redis.FlushAll(context.Background()) })

	ids, _ := c.LowStockIDs(ctx)
	if !reflect.DeepEqual(ids, []int64{low.ID}) {
		t.Fatalf("low stock = %v, want [%d]", ids, low.ID)
	}

	// drop resin below its minimum and raise pigment above
	db.MoveStock(ctx, ok.ID, "Out", decimal.NewFromInt(-90), "test", "")
	db.MoveStock(ctx, low.ID, "In", decimal.NewFromInt(50), "test", "")
	c.UpdateMaterial(ctx, ok.ID)
	c.UpdateMaterial(ctx, low.ID)

	ids, _ = c.LowStockIDs(ctx)
	if !reflect.DeepEqual(ids, []int64{ok.ID}) {
		t.Errorf("low stock = %v, want [%d]", ids, ok.ID)
	}
	lvl, err := c.redis.GetLevel(ctx, low.ID)
	if err != nil || lvl == nil {
		t.Fatalf("cached level = %v, %v", lvl, err)
	}
	if !lvl.CurrentStock.Equal(decimal.NewFromInt(55)) {
		t.Errorf("cached stock = %s, want 55", lvl.CurrentStock)
	}
}
