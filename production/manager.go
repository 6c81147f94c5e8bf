// Package production drives production orders through their lifecycle and
// reconciles daily floor output against outstanding orders.
package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/bom"
	"tinacopro/ledger"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/store"
	"tinacopro/validate"
)

// Manager handles the production order state machine. Start and Complete on
// an order in the wrong state are ignored, not errors. Every transition runs
// under the order's lock and re-reads the status after taking it.
type Manager struct {
	db      *store.DB
	bom     *bom.Service
	ledger  *ledger.Ledger
	locks   locks.Manager
	emitter Emitter
	prefix  string
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewManager creates an order manager. prefix starts every order number.
func NewManager(db *store.DB, bomSvc *bom.Service, l *ledger.Ledger, lm locks.Manager, emitter Emitter, prefix string, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if prefix == "" {
		prefix = "PO"
	}
	return &Manager{
		db:      db,
		bom:     bomSvc,
		ledger:  l,
		locks:   lm,
		emitter: emitter,
		prefix:  prefix,
		log:     logger.WithField("module", "production"),
		now:     time.Now,
	}
}

// CreateOrderInput is a request for a new Pending order.
type CreateOrderInput struct {
	ProductID int64      `json:"product_id" validate:"required"`
	Quantity  int        `json:"quantity" validate:"gt=0"`
	Shift     string     `json:"shift" validate:"omitempty,oneof=Morning Afternoon Night"`
	OrderDate *time.Time `json:"order_date"`
	Notes     string     `json:"notes" validate:"max=500"`
}

// Create records a Pending order for an existing product.
func (m *Manager) Create(ctx context.Context, in CreateOrderInput) (*store.ProductionOrder, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := m.db.GetProduct(in.ProductID); err != nil {
		return nil, err
	}
	now := m.now()
	number, err := m.db.NextNumber(m.prefix, now)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}
	o := &store.ProductionOrder{
		OrderNumber: number,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		Status:      StatusPending,
		Shift:       in.Shift,
		OrderDate:   now,
		Notes:       in.Notes,
	}
	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	if err := m.db.CreateProductionOrder(o); err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"order": o.OrderNumber, "product_id": o.ProductID, "quantity": o.Quantity}).Info("order created")
	m.emitter.EmitOrderCreated(o.ID, o.OrderNumber, o.ProductID, o.Quantity)
	return m.db.GetProductionOrder(o.ID)
}

// Start moves a Pending order to InProgress.
func (m *Manager) Start(ctx context.Context, id int64) (*store.ProductionOrder, error) {
	unlock, err := m.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := m.db.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	if !IsValidTransition(o.Status, StatusInProgress) {
		return o, nil
	}
	if err := m.db.UpdateOrderStatus(id, o.Status, StatusInProgress, "production started"); err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			return m.db.GetProductionOrder(id)
		}
		return nil, fmt.Errorf("start order %s: %w", o.OrderNumber, err)
	}
	m.emitter.EmitOrderStarted(o.ID, o.OrderNumber)
	return m.db.GetProductionOrder(id)
}

// Complete consumes materials for an InProgress order, books the finished
// goods batch and marks the order Completed. A stock shortage leaves the
// order InProgress with nothing consumed. The three steps are not one
// transaction: a failure after depletion keeps the materials consumed.
func (m *Manager) Complete(ctx context.Context, id int64) (*store.ProductionOrder, error) {
	unlock, err := m.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := m.db.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	if !IsValidTransition(o.Status, StatusCompleted) {
		return o, nil
	}
	product, err := m.db.GetProduct(o.ProductID)
	if err != nil {
		return nil, err
	}

	if product.TemplateID != nil {
		perUnit, err := m.bom.Requirements(*product.TemplateID)
		if err != nil {
			return nil, err
		}
		err = m.ledger.DepleteForOrder(ctx, o, perUnit)
		if err != nil {
			return nil, err
		}
	} else {
		lines, err := m.db.ListProductMaterials(product.ID)
		if err != nil {
			return nil, fmt.Errorf("list product materials: %w", err)
		}
		if err := m.ledger.DepleteFlat(ctx, o, lines); err != nil {
			return nil, err
		}
	}

	now := m.now()
	qty := decimal.NewFromInt(int64(o.Quantity))
	fg := &store.FinishedGood{
		ProductID:          product.ID,
		ProductionOrderID:  o.ID,
		TemplateID:         product.TemplateID,
		Quantity:           qty,
		CurrentStock:       qty,
		ProductionDate:     now,
		BatchNumber:        fmt.Sprintf("FG-%s-%s", o.OrderNumber, now.Format("20060102")),
		Notes:              o.Notes,
		ActualMaterialCost: product.MaterialCost,
		ActualLaborCost:    product.LaborCost,
	}
	if err := m.db.CreateFinishedGood(fg); err != nil {
		logging.LogError(m.log, "production", "Complete", "materials consumed but batch not recorded", o.OrderNumber, err)
		return nil, fmt.Errorf("record finished goods for %s: %w", o.OrderNumber, err)
	}
	m.emitter.EmitFinishedGoodCreated(fg.ID, fg.ProductID, fg.BatchNumber, fg.Quantity)

	if err := m.db.CompleteProductionOrder(o.ID, o.Status, StatusCompleted, now); err != nil {
		logging.LogError(m.log, "production", "Complete", "batch recorded but status not updated", o.OrderNumber, err)
		return nil, fmt.Errorf("complete order %s: %w", o.OrderNumber, err)
	}
	m.log.WithFields(logrus.Fields{"order": o.OrderNumber, "batch": fg.BatchNumber}).Info("order completed")
	m.emitter.EmitOrderCompleted(o.ID, o.OrderNumber, fg.ID)
	return m.db.GetProductionOrder(id)
}

// Cancel moves a Pending or InProgress order to Cancelled. Materials already
// consumed stay consumed. Cancelling a finished order is ignored.
func (m *Manager) Cancel(ctx context.Context, id int64) (*store.ProductionOrder, error) {
	unlock, err := m.lockOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := m.db.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	if !IsValidTransition(o.Status, StatusCancelled) {
		return o, nil
	}
	if err := m.db.UpdateOrderStatus(id, o.Status, StatusCancelled, "order cancelled"); err != nil {
		if errors.Is(err, store.ErrStatusChanged) {
			return m.db.GetProductionOrder(id)
		}
		return nil, fmt.Errorf("cancel order %s: %w", o.OrderNumber, err)
	}
	m.emitter.EmitOrderCancelled(o.ID, o.OrderNumber, o.Status)
	return m.db.GetProductionOrder(id)
}

func (m *Manager) lockOrder(ctx context.Context, id int64) (locks.Unlock, error) {
	unlock, err := m.locks.Acquire(ctx, locks.OrderKey(id))
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", id, err)
	}
	return unlock, nil
}

// Consumption lists the material draws booked against an order.
func (m *Manager) Consumption(id int64) ([]*store.MaterialConsumptionLog, error) {
	if _, err := m.db.GetProductionOrder(id); err != nil {
		return nil, err
	}
	return m.db.ListConsumptionByOrder(id)
}
