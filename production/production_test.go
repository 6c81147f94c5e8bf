package production

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tinacopro/bom"
	"tinacopro/config"
	"tinacopro/fault"
	"tinacopro/ledger"
	"tinacopro/locks"
	"tinacopro/store"
)

// --- Mock emitter ---

type mockEmitter struct {
	created   []int64
	started   []int64
	completed []emitCompleted
	cancelled []emitCancelled
	batches   []string
	lowStock  []string
}

type emitCompleted struct {
	orderID        int64
	finishedGoodID int64
}
type emitCancelled struct {
	orderID    int64
	fromStatus string
}

func (m *mockEmitter) EmitOrderCreated(orderID int64, _ string, _ int64, _ int) {
	m.created = append(m.created, orderID)
}
func (m *mockEmitter) EmitOrderStarted(orderID int64, _ string) {
	m.started = append(m.started, orderID)
}
func (m *mockEmitter) EmitOrderCompleted(orderID int64, _ string, finishedGoodID int64) {
	m.completed = append(m.completed, emitCompleted{orderID, finishedGoodID})
}
func (m *mockEmitter) EmitOrderCancelled(orderID int64, _, fromStatus string) {
	m.cancelled = append(m.cancelled, emitCancelled{orderID, fromStatus})
}
func (m *mockEmitter) EmitFinishedGoodCreated(_, _ int64, batchNumber string, _ decimal.Decimal) {
	m.batches = append(m.batches, batchNumber)
}
func (m *mockEmitter) EmitLowStock(_ int64, code string, _, _ decimal.Decimal) {
	m.lowStock = append(m.lowStock, code)
}

// --- Fixtures ---

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func partQty(s string) *decimal.Decimal {
	d := dec(s)
	return &d
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

type fixture struct {
	db      *store.DB
	bom     *bom.Service
	mgr     *Manager
	emitter *mockEmitter
	clock   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	em := &mockEmitter{}
	bomSvc := bom.NewService(db, nil)
	lm := locks.NewLocalManager()
	l := ledger.New(db, lm, nil, nil)
	f := &fixture{db: db, bom: bomSvc, emitter: em, clock: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	f.mgr = NewManager(db, bomSvc, l, lm, em, "PO", nil)
	f.mgr.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) material(t *testing.T, code, stock string) *store.RawMaterial {
	t.Helper()
	m := &store.RawMaterial{Code: code, Name: code, Unit: "kg", CurrentStock: dec(stock), MinimumStock: dec("5"), UnitCost: dec("5"), IsActive: true}
	if err := f.db.CreateRawMaterial(m); err != nil {
		t.Fatalf("create material: %v", err)
	}
	return m
}

// templateProduct builds the Basic template (M x2 root, Assembly with one
// M x1 child) and a product that uses it with synced costs.
func (f *fixture) templateProduct(t *testing.T, m *store.RawMaterial) *store.Product {
	t.Helper()
	tpl := &store.ProductTemplate{Name: "Basic", IsActive: true}
	if err := f.db.CreateTemplate(tpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	f.bom.AddPart(bom.PartInput{TemplateID: tpl.ID, Name: "Shell", PartType: store.PartMaterial, Quantity: partQty("2"), RawMaterialID: &m.ID})
	lid, err := f.bom.AddPart(bom.PartInput{TemplateID: tpl.ID, Name: "Lid", PartType: store.PartAssembly, LaborCost: dec("10")})
	if err != nil {
		t.Fatalf("add lid: %v", err)
	}
	f.bom.AddPart(bom.PartInput{TemplateID: tpl.ID, ParentPartID: &lid.ID, Name: "Lid resin", PartType: store.PartMaterial, Quantity: partQty("1"), RawMaterialID: &m.ID})

	p := &store.Product{Name: "Tinaco 1100", TemplateID: &tpl.ID, IsActive: true}
	if err := f.db.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := f.bom.SyncProductCosts(p.ID); err != nil {
		t.Fatalf("sync costs: %v", err)
	}
	return p
}

func (f *fixture) flatProduct(t *testing.T, m *store.RawMaterial, perUnit string) *store.Product {
	t.Helper()
	p := &store.Product{Name: "Legacy 450", IsActive: true, MaterialCost: dec("7"), LaborCost: dec("2")}
	if err := f.db.CreateProduct(p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := f.db.AddProductMaterial(&store.ProductMaterial{ProductID: p.ID, RawMaterialID: m.ID, QuantityRequired: dec(perUnit)}); err != nil {
		t.Fatalf("add product material: %v", err)
	}
	return p
}

func (f *fixture) inProgress(t *testing.T, productID int64, qty int) *store.ProductionOrder {
	t.Helper()
	o, err := f.mgr.Create(context.Background(), CreateOrderInput{ProductID: productID, Quantity: qty})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	o, err = f.mgr.Start(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return o
}

func (f *fixture) stock(t *testing.T, id int64) decimal.Decimal {
	t.Helper()
	m, err := f.db.GetRawMaterial(id)
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	return m.CurrentStock
}

// --- State table ---

func TestTransitions(t *testing.T) {
	allowed := map[[2]string]bool{
		{StatusPending, StatusInProgress}:   true,
		{StatusPending, StatusCancelled}:    true,
		{StatusInProgress, StatusCompleted}: true,
		{StatusInProgress, StatusCancelled}: true,
	}
	all := []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			if got := IsValidTransition(from, to); got != allowed[[2]string{from, to}] {
				t.Errorf("IsValidTransition(%s, %s) = %v", from, to, got)
			}
		}
	}
	if !IsTerminal(StatusCompleted) || !IsTerminal(StatusCancelled) || IsTerminal(StatusPending) || IsTerminal(StatusInProgress) {
		t.Error("terminal states should be Completed and Cancelled only")
	}
}

// --- Create ---

func TestCreateAllocatesDailySequence(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "20")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	o1, err := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 2, Shift: ShiftMorning})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	o2, _ := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 2})
	if o1.OrderNumber != "PO-20260504-0001" || o2.OrderNumber != "PO-20260504-0002" {
		t.Errorf("numbers = %s, %s", o1.OrderNumber, o2.OrderNumber)
	}
	if o1.Status != StatusPending || o1.Shift != ShiftMorning {
		t.Errorf("order = %+v", o1)
	}

	f.clock = f.clock.AddDate(0, 0, 1)
	o3, _ := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 1})
	if o3.OrderNumber != "PO-20260505-0001" {
		t.Errorf("next day number = %s", o3.OrderNumber)
	}
	if len(f.emitter.created) != 3 {
		t.Errorf("created events = %d, want 3", len(f.emitter.created))
	}
}

func TestCreateValidates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.mgr.Create(ctx, CreateOrderInput{ProductID: 1, Quantity: 0}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("zero quantity err = %v, want validation", err)
	}
	if _, err := f.mgr.Create(ctx, CreateOrderInput{ProductID: 1, Quantity: 1, Shift: "Graveyard"}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("bad shift err = %v, want validation", err)
	}
	if _, err := f.mgr.Create(ctx, CreateOrderInput{ProductID: 99, Quantity: 1}); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing product err = %v, want not found", err)
	}
}

// --- Complete ---

func TestCompleteTemplateOrder(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "20")
	p := f.templateProduct(t, m)
	o := f.inProgress(t, p.ID, 4)

	done, err := f.mgr.Complete(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedDate == nil {
		t.Errorf("order = %+v", done)
	}
	if got := f.stock(t, m.ID); !got.Equal(dec("8")) {
		t.Errorf("stock = %s, want 8", got)
	}

	batches, _ := f.db.ListFinishedGoodsByProduct(p.ID)
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	fg := batches[0]
	if !fg.Quantity.Equal(dec("4")) || !fg.CurrentStock.Equal(dec("4")) {
		t.Errorf("batch qty/stock = %s/%s, want 4/4", fg.Quantity, fg.CurrentStock)
	}
	if !fg.ActualMaterialCost.Equal(dec("15")) || !fg.ActualLaborCost.Equal(dec("10")) {
		t.Errorf("cost snapshot = %s/%s, want 15/10", fg.ActualMaterialCost, fg.ActualLaborCost)
	}
	if want := "FG-" + o.OrderNumber + "-20260504"; fg.BatchNumber != want {
		t.Errorf("batch number = %s, want %s", fg.BatchNumber, want)
	}
	if fg.TemplateID == nil || *fg.TemplateID != *p.TemplateID {
		t.Errorf("batch template = %v", fg.TemplateID)
	}
	if len(f.emitter.completed) != 1 || f.emitter.completed[0].finishedGoodID != fg.ID {
		t.Errorf("completed events = %+v", f.emitter.completed)
	}
}

func TestCompleteInsufficientStockLeavesOrderInProgress(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "10")
	p := f.templateProduct(t, m)
	o := f.inProgress(t, p.ID, 4)

	_, err := f.mgr.Complete(context.Background(), o.ID)
	if !errors.Is(err, fault.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	got, _ := f.db.GetProductionOrder(o.ID)
	if got.Status != StatusInProgress {
		t.Errorf("status = %s, want InProgress", got.Status)
	}
	if s := f.stock(t, m.ID); !s.Equal(dec("10")) {
		t.Errorf("stock = %s, want 10", s)
	}
	if batches, _ := f.db.ListFinishedGoodsByProduct(p.ID); len(batches) != 0 {
		t.Errorf("batches = %d, want 0", len(batches))
	}
}

func TestCompleteFlatBOM(t *testing.T) {
	f := setup(t)
	m := f.material(t, "RESIN", "30")
	p := f.flatProduct(t, m, "2.5")
	o := f.inProgress(t, p.ID, 10)

	if _, err := f.mgr.Complete(context.Background(), o.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := f.stock(t, m.ID); !got.Equal(dec("5")) {
		t.Errorf("stock = %s, want 5", got)
	}
	logs, _ := f.mgr.Consumption(o.ID)
	if len(logs) != 1 || !logs[0].Quantity.Equal(dec("25")) {
		t.Errorf("consumption = %+v", logs)
	}
}

func TestConcurrentCompleteConsumesOnce(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "100")
	p := f.templateProduct(t, m)
	o := f.inProgress(t, p.ID, 4)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.mgr.Complete(context.Background(), o.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("complete %d: %v", i, err)
		}
	}
	if got := f.stock(t, m.ID); !got.Equal(dec("88")) {
		t.Errorf("stock = %s, want 88", got)
	}
	if batches, _ := f.db.ListFinishedGoodsByProduct(p.ID); len(batches) != 1 {
		t.Errorf("batches = %d, want 1", len(batches))
	}
	if logs, _ := f.mgr.Consumption(o.ID); len(logs) != 1 {
		t.Errorf("consumption rows = %d, want 1", len(logs))
	}
	if len(f.emitter.completed) != 1 {
		t.Errorf("completed events = %d, want 1", len(f.emitter.completed))
	}
}

func TestConcurrentCancelAndCompleteAgree(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "100")
	p := f.flatProduct(t, m, "1")
	o := f.inProgress(t, p.ID, 5)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.mgr.Complete(context.Background(), o.ID)
	}()
	go func() {
		defer wg.Done()
		f.mgr.Cancel(context.Background(), o.ID)
	}()
	wg.Wait()

	got, _ := f.db.GetProductionOrder(o.ID)
	batches, _ := f.db.ListFinishedGoodsByProduct(p.ID)
	switch got.Status {
	case StatusCompleted:
		if len(batches) != 1 || !f.stock(t, m.ID).Equal(dec("95")) {
			t.Errorf("completed order: batches = %d, stock = %s", len(batches), f.stock(t, m.ID))
		}
	case StatusCancelled:
		if len(batches) != 0 || !f.stock(t, m.ID).Equal(dec("100")) {
			t.Errorf("cancelled order: batches = %d, stock = %s", len(batches), f.stock(t, m.ID))
		}
	default:
		t.Errorf("status = %s", got.Status)
	}
}

func TestManagerWithoutEmitter(t *testing.T) {
	f := setup(t)
	lm := locks.NewLocalManager()
	mgr := NewManager(f.db, f.bom, ledger.New(f.db, lm, nil, nil), lm, nil, "PO", nil)
	m := f.material(t, "M", "10")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	o, err := mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mgr.Start(ctx, o.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := mgr.Complete(ctx, o.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	o2, _ := mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 1})
	if _, err := mgr.Cancel(ctx, o2.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := mgr.CreateDailyProduction(ctx, DailyEntryInput{ProductID: p.ID, Quantity: 1}); err != nil {
		t.Fatalf("daily: %v", err)
	}
}

func TestCompleteMissingProduct(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "30")
	p := f.flatProduct(t, m, "1")
	o := f.inProgress(t, p.ID, 1)

	if _, err := f.db.Exec(`PRAGMA foreign_keys=OFF`); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if err := f.db.DeleteProduct(p.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	_, err := f.mgr.Complete(context.Background(), o.ID)
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

// --- Closure ---

func TestOrderActionsOutsideTheirStateAreNoOps(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "100")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	pending, _ := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 1})
	got, err := f.mgr.Complete(ctx, pending.ID)
	if err != nil || got.Status != StatusPending {
		t.Errorf("complete pending = %v, %v", got.Status, err)
	}

	done := f.inProgress(t, p.ID, 1)
	f.mgr.Complete(ctx, done.ID)
	for name, action := range map[string]func(context.Context, int64) (*store.ProductionOrder, error){
		"start":    f.mgr.Start,
		"complete": f.mgr.Complete,
		"cancel":   f.mgr.Cancel,
	} {
		got, err := action(ctx, done.ID)
		if err != nil || got.Status != StatusCompleted {
			t.Errorf("%s on completed = %v, %v", name, got.Status, err)
		}
	}

	cancelled, _ := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 1})
	f.mgr.Cancel(ctx, cancelled.ID)
	for name, action := range map[string]func(context.Context, int64) (*store.ProductionOrder, error){
		"start":    f.mgr.Start,
		"complete": f.mgr.Complete,
		"cancel":   f.mgr.Cancel,
	} {
		got, err := action(ctx, cancelled.ID)
		if err != nil || got.Status != StatusCancelled {
			t.Errorf("%s on cancelled = %v, %v", name, got.Status, err)
		}
	}
	if s := f.stock(t, m.ID); !s.Equal(dec("99")) {
		t.Errorf("stock = %s, want 99 (one completion)", s)
	}
	if _, err := f.mgr.Start(ctx, 9999); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("start missing err = %v, want not found", err)
	}
}

func TestCancelInProgressKeepsConsumption(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "100")
	p := f.flatProduct(t, m, "1")
	o := f.inProgress(t, p.ID, 3)

	got, err := f.mgr.Cancel(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s", got.Status)
	}
	if len(f.emitter.cancelled) != 1 || f.emitter.cancelled[0].fromStatus != StatusInProgress {
		t.Errorf("cancel events = %+v", f.emitter.cancelled)
	}
	history, _ := f.db.ListOrderHistory(o.ID)
	if len(history) != 3 || history[2].Status != StatusCancelled {
		t.Errorf("history = %+v", history)
	}
}

// --- Daily orchestrator ---

func TestDailyProductionReconcilesOpenOrders(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "100")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	older, _ := f.mgr.Create(ctx, CreateOrderInput{ProductID: p.ID, Quantity: 5})
	small := f.inProgress(t, p.ID, 3)
	big := f.inProgress(t, p.ID, 50)

	res, err := f.mgr.CreateDailyProduction(ctx, DailyEntryInput{ProductID: p.ID, Quantity: 10, Shift: ShiftNight})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if res.Order.Status != StatusInProgress || res.Order.Quantity != 10 {
		t.Errorf("triggering order = %+v", res.Order)
	}
	if len(res.StartedOrderNumbers) != 1 || res.StartedOrderNumbers[0] != older.OrderNumber {
		t.Errorf("started = %v, want [%s]", res.StartedOrderNumbers, older.OrderNumber)
	}
	if !res.AutoCompleted {
		t.Error("AutoCompleted should be true")
	}
	for id, want := range map[int64]string{older.ID: StatusCompleted, small.ID: StatusCompleted, big.ID: StatusInProgress} {
		got, _ := f.db.GetProductionOrder(id)
		if got.Status != want {
			t.Errorf("order %s = %s, want %s", got.OrderNumber, got.Status, want)
		}
	}
	if s := f.stock(t, m.ID); !s.Equal(dec("92")) {
		t.Errorf("stock = %s, want 92", s)
	}
	if len(res.LowStockWarnings) != 0 {
		t.Errorf("warnings = %v, want none", res.LowStockWarnings)
	}
}

func TestDailyProductionSwallowsCompletionFailure(t *testing.T) {
	f := setup(t)
	m := f.material(t, "M", "6")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	stuck := f.inProgress(t, p.ID, 8)

	res, err := f.mgr.CreateDailyProduction(ctx, DailyEntryInput{ProductID: p.ID, Quantity: 8})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if res.AutoCompleted {
		t.Error("AutoCompleted should be false")
	}
	got, _ := f.db.GetProductionOrder(stuck.ID)
	if got.Status != StatusInProgress {
		t.Errorf("stuck order = %s, want InProgress", got.Status)
	}
	if len(res.LowStockWarnings) != 0 {
		t.Errorf("warnings = %v", res.LowStockWarnings)
	}
}

func TestDailyProductionReportsLowStock(t *testing.T) {
	f := setup(t)
	m := f.material(t, "PE-BLACK", "9")
	p := f.flatProduct(t, m, "1")
	ctx := context.Background()

	f.inProgress(t, p.ID, 4)
	res, err := f.mgr.CreateDailyProduction(ctx, DailyEntryInput{ProductID: p.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if !res.AutoCompleted {
		t.Fatal("AutoCompleted should be true")
	}
	want := "Low stock: PE-BLACK (PE-BLACK) at 5.00 kg, minimum 5.00"
	if len(res.LowStockWarnings) != 1 || res.LowStockWarnings[0] != want {
		t.Errorf("warnings = %v, want [%s]", res.LowStockWarnings, want)
	}
	if len(f.emitter.lowStock) != 1 || f.emitter.lowStock[0] != "PE-BLACK" {
		t.Errorf("low stock events = %v", f.emitter.lowStock)
	}
}
