// Package ledger validates and applies raw-material stock changes. A
// depletion checks every line before it mutates anything, so a shortage on
// one material leaves all of them untouched.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/fault"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/store"
	"tinacopro/validate"
)

// Emitter receives stock movement notifications.
type Emitter interface {
	EmitStockMoved(materialID int64, movementType string, quantity, newStock decimal.Decimal, reference string)
}

type Ledger struct {
	db      *store.DB
	locks   locks.Manager
	emitter Emitter
	log     logrus.FieldLogger
}

func New(db *store.DB, lm locks.Manager, emitter Emitter, logger logrus.FieldLogger) *Ledger {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ledger{db: db, locks: lm, emitter: emitter, log: logger.WithField("module", "ledger")}
}

// DepleteForOrder draws perUnit times the order quantity of each material.
// Fails with *fault.InsufficientStockError listing every short material.
func (l *Ledger) DepleteForOrder(ctx context.Context, order *store.ProductionOrder, perUnit map[int64]decimal.Decimal) error {
	qty := decimal.NewFromInt(int64(order.Quantity))
	required := make(map[int64]decimal.Decimal, len(perUnit))
	for id, q := range perUnit {
		required[id] = q.Mul(qty)
	}
	return l.deplete(ctx, order, required)
}

// DepleteFlat is DepleteForOrder for products without a template. Lines for
// the same material are summed before validation.
func (l *Ledger) DepleteFlat(ctx context.Context, order *store.ProductionOrder, lines []*store.ProductMaterial) error {
	perUnit := make(map[int64]decimal.Decimal, len(lines))
	for _, pm := range lines {
		perUnit[pm.RawMaterialID] = perUnit[pm.RawMaterialID].Add(pm.QuantityRequired)
	}
	return l.DepleteForOrder(ctx, order, perUnit)
}

func (l *Ledger) deplete(ctx context.Context, order *store.ProductionOrder, required map[int64]decimal.Decimal) error {
	ids := make([]int64, 0, len(required))
	keys := make([]string, 0, len(required))
	for id, q := range required {
		if q.IsZero() {
			continue
		}
		ids = append(ids, id)
		keys = append(keys, locks.MaterialKey(id))
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	unlock, err := l.locks.Acquire(ctx, keys...)
	if err != nil {
		return fmt.Errorf("lock materials for order %s: %w", order.OrderNumber, err)
	}
	defer unlock()

	// stock is read under the locks so validation and apply see the same values
	draws := make([]store.MaterialDraw, 0, len(ids))
	newStock := make(map[int64]decimal.Decimal, len(ids))
	var shortages []fault.Shortage
	for _, id := range ids {
		m, err := l.db.GetRawMaterial(id)
		if err != nil {
			return err
		}
		need := required[id]
		if m.CurrentStock.LessThan(need) {
			shortages = append(shortages, fault.Shortage{ID: m.ID, Name: m.Name, Required: need, Available: m.CurrentStock})
			continue
		}
		draws = append(draws, store.MaterialDraw{RawMaterialID: id, Quantity: need, UnitCost: m.UnitCost})
		newStock[id] = m.CurrentStock.Sub(need)
	}
	if len(shortages) > 0 {
		err := fault.Insufficient(shortages)
		l.log.WithFields(logrus.Fields{"order": order.OrderNumber, "shortages": len(shortages)}).Warn(err.Error())
		return err
	}

	if err := l.db.ApplyMaterialDepletion(ctx, order.ID, order.OrderNumber, draws, time.Now()); err != nil {
		logging.LogError(l.log, "ledger", "deplete", "apply material depletion", order.OrderNumber, err)
		return fmt.Errorf("apply depletion for order %s: %w", order.OrderNumber, err)
	}
	for _, d := range draws {
		l.emit(d.RawMaterialID, store.MovementOut, d.Quantity, newStock[d.RawMaterialID], order.OrderNumber)
	}
	return nil
}

func (l *Ledger) emit(materialID int64, movementType string, qty, newStock decimal.Decimal, ref string) {
	if l.emitter != nil {
		l.emitter.EmitStockMoved(materialID, movementType, qty, newStock, ref)
	}
}

// AdjustInput is a manual stock change on one material.
type AdjustInput struct {
	MaterialID int64           `json:"material_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason" validate:"max=200"`
	Reference  string          `json:"reference" validate:"max=100"`
}

// Receive books incoming stock. Quantity must be positive.
func (l *Ledger) Receive(ctx context.Context, in AdjustInput) (*store.StockMovement, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, &fault.ValidationError{Fields: map[string]string{"Quantity": "gt"}}
	}
	if in.Reason == "" {
		in.Reason = "receipt"
	}
	return l.move(ctx, in, store.MovementIn)
}

// Adjust applies a signed correction. The result may not go below zero.
func (l *Ledger) Adjust(ctx context.Context, in AdjustInput) (*store.StockMovement, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Quantity.IsZero() {
		return nil, &fault.ValidationError{Fields: map[string]string{"Quantity": "required"}}
	}
	if in.Reason == "" {
		in.Reason = "adjustment"
	}
	return l.move(ctx, in, store.MovementAdjustment)
}

func (l *Ledger) move(ctx context.Context, in AdjustInput, movementType string) (*store.StockMovement, error) {
	unlock, err := l.locks.Acquire(ctx, locks.MaterialKey(in.MaterialID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	m, err := l.db.GetRawMaterial(in.MaterialID)
	if err != nil {
		return nil, err
	}
	if m.CurrentStock.Add(in.Quantity).IsNegative() {
		return nil, fault.Insufficient([]fault.Shortage{{ID: m.ID, Name: m.Name, Required: in.Quantity.Neg(), Available: m.CurrentStock}})
	}
	mv, err := l.db.MoveStock(ctx, in.MaterialID, movementType, in.Quantity, in.Reason, in.Reference)
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"material": m.Code, "type": movementType, "quantity": in.Quantity.String()}).Info("stock moved")
	l.emit(mv.RawMaterialID, movementType, mv.Quantity, mv.NewStock, in.Reference)
	return mv, nil
}

// LowStock returns active materials at or below their minimum.
func (l *Ledger) LowStock(ctx context.Context) ([]*store.RawMaterial, error) {
	materials, err := l.db.ListActiveRawMaterials()
	if err != nil {
		return nil, fmt.Errorf("list active materials: %w", err)
	}
	var low []*store.RawMaterial
	for _, m := range materials {
		if m.IsLow() {
			low = append(low, m)
		}
	}
	return low, nil
}
