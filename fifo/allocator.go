// Package fifo draws finished goods from a product's batches oldest first.
package fifo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/fault"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/store"
)

type Allocator struct {
	db    *store.DB
	locks locks.Manager
	log   logrus.FieldLogger
}

func New(db *store.DB, lm locks.Manager, logger logrus.FieldLogger) *Allocator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Allocator{db: db, locks: lm, log: logger.WithField("module", "fifo")}
}

// AutoDeplete drains qty of a product across its batches by production
// date and returns the first batch touched. With no stocked batch it returns
// nil and no error; the caller decides whether that matters. A total short of
// qty fails with *fault.InsufficientStockError and changes nothing.
func (a *Allocator) AutoDeplete(ctx context.Context, productID int64, qty decimal.Decimal) (*int64, error) {
	candidates, err := a.db.ListAvailableFinishedGoods(productID)
	if err != nil {
		return nil, fmt.Errorf("list batches for product %d: %w", productID, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	keys := make([]string, len(candidates))
	locked := make(map[int64]bool, len(candidates))
	for i, fg := range candidates {
		keys[i] = locks.BatchKey(fg.ID)
		locked[fg.ID] = true
	}
	unlock, err := a.locks.Acquire(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("lock batches for product %d: %w", productID, err)
	}
	defer unlock()

	// re-read under the locks; only batches we hold are drawn from
	current, err := a.db.ListAvailableFinishedGoods(productID)
	if err != nil {
		return nil, fmt.Errorf("list batches for product %d: %w", productID, err)
	}
	var batches []*store.FinishedGood
	total := decimal.Zero
	for _, fg := range current {
		if locked[fg.ID] {
			batches = append(batches, fg)
			total = total.Add(fg.CurrentStock)
		}
	}
	if len(batches) == 0 {
		return nil, nil
	}
	if total.LessThan(qty) {
		return nil, fault.Insufficient([]fault.Shortage{{
			ID:        productID,
			Name:      fmt.Sprintf("finished goods for product %d", productID),
			Required:  qty,
			Available: total,
		}})
	}

	var draws []store.BatchDraw
	remaining := qty
	for _, fg := range batches {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(fg.CurrentStock, remaining)
		draws = append(draws, store.BatchDraw{FinishedGoodID: fg.ID, Quantity: take})
		remaining = remaining.Sub(take)
	}
	if len(draws) == 0 {
		return nil, nil
	}
	if err := a.db.DrainFinishedGoods(ctx, draws); err != nil {
		return nil, fmt.Errorf("drain batches for product %d: %w", productID, err)
	}
	primary := draws[0].FinishedGoodID
	a.log.WithFields(logrus.Fields{"product_id": productID, "quantity": qty.String(), "batches": len(draws), "primary": primary}).Debug("fifo depletion")
	return &primary, nil
}

// DepleteBatch draws qty from one named batch.
func (a *Allocator) DepleteBatch(ctx context.Context, batchID int64, qty decimal.Decimal) error {
	unlock, err := a.locks.Acquire(ctx, locks.BatchKey(batchID))
	if err != nil {
		return err
	}
	defer unlock()

	fg, err := a.db.GetFinishedGood(batchID)
	if err != nil {
		return err
	}
	if fg.CurrentStock.LessThan(qty) {
		return fault.Insufficient([]fault.Shortage{{ID: fg.ID, Name: "batch " + fg.BatchNumber, Required: qty, Available: fg.CurrentStock}})
	}
	return a.db.AdjustFinishedGoodStock(ctx, batchID, qty.Neg())
}

// Restore adds qty back to one batch unconditionally. A depletion that
// spanned several batches is restored to the primary one only.
func (a *Allocator) Restore(ctx context.Context, batchID int64, qty decimal.Decimal) error {
	unlock, err := a.locks.Acquire(ctx, locks.BatchKey(batchID))
	if err != nil {
		return err
	}
	defer unlock()
	return a.db.AdjustFinishedGoodStock(ctx, batchID, qty)
}
