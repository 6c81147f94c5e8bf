// Package shipping manages outbound shipments and the finished-goods stock
// they draw. Unlike production orders, a shipment action in the wrong state
// is an error.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tinacopro/fault"
	"tinacopro/fifo"
	"tinacopro/locks"
	"tinacopro/logging"
	"tinacopro/store"
	"tinacopro/validate"
)

// Manager changes a shipment only while holding its lock, re-reading the
// shipment after the lock is taken.
type Manager struct {
	db      *store.DB
	fifo    *fifo.Allocator
	locks   locks.Manager
	emitter Emitter
	prefix  string
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewManager(db *store.DB, alloc *fifo.Allocator, lm locks.Manager, emitter Emitter, prefix string, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if prefix == "" {
		prefix = "SHIP"
	}
	return &Manager{
		db:      db,
		fifo:    alloc,
		locks:   lm,
		emitter: emitter,
		prefix:  prefix,
		log:     logger.WithField("module", "shipping"),
		now:     time.Now,
	}
}

// Destination holds the customer and delivery fields of a shipment.
type Destination struct {
	CustomerName       string `json:"customer_name" validate:"max=200"`
	CustomerContact    string `json:"customer_contact" validate:"max=200"`
	DestinationAddress string `json:"destination_address" validate:"max=300"`
	DestinationCity    string `json:"destination_city" validate:"max=100"`
	DestinationZone    string `json:"destination_zone" validate:"max=100"`
}

// CreateInput is a new shipment. Without FinishedGoodID the stock is drawn
// FIFO across the product's batches.
type CreateInput struct {
	ProductID            int64           `json:"product_id" validate:"required"`
	FinishedGoodID       *int64          `json:"finished_good_id"`
	Quantity             decimal.Decimal `json:"quantity" validate:"gt=0"`
	ShipmentDate         *time.Time      `json:"shipment_date"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date"`
	Notes                string          `json:"notes" validate:"max=500"`
	Destination
}

// UpdateInput edits a non-terminal shipment. A nil FinishedGoodID keeps the
// current batch.
type UpdateInput struct {
	FinishedGoodID       *int64          `json:"finished_good_id"`
	Quantity             decimal.Decimal `json:"quantity" validate:"gt=0"`
	ShipmentDate         *time.Time      `json:"shipment_date"`
	ExpectedDeliveryDate *time.Time      `json:"expected_delivery_date"`
	Notes                string          `json:"notes" validate:"max=500"`
	Destination
}

func (m *Manager) Create(ctx context.Context, in CreateInput) (*store.Shipment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := m.db.GetProduct(in.ProductID); err != nil {
		return nil, err
	}

	now := m.now()
	s := &store.Shipment{
		ProductID:            in.ProductID,
		Quantity:             in.Quantity,
		Status:               StatusPending,
		ShipmentDate:         now,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
	}
	if in.ShipmentDate != nil {
		s.ShipmentDate = *in.ShipmentDate
	}
	in.Destination.apply(s)

	if in.FinishedGoodID != nil {
		if err := m.checkBatch(*in.FinishedGoodID, in.ProductID); err != nil {
			return nil, err
		}
		if err := m.fifo.DepleteBatch(ctx, *in.FinishedGoodID, in.Quantity); err != nil {
			return nil, err
		}
		s.FinishedGoodID = in.FinishedGoodID
	} else {
		primary, err := m.fifo.AutoDeplete(ctx, in.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		s.FinishedGoodID = primary
	}

	number, err := m.db.NextNumber(m.prefix, now)
	if err != nil {
		m.compensate(ctx, s.FinishedGoodID, in.Quantity, "allocate shipment number")
		return nil, fmt.Errorf("allocate shipment number: %w", err)
	}
	s.ShipmentNumber = number
	if err := m.db.CreateShipment(s); err != nil {
		m.compensate(ctx, s.FinishedGoodID, in.Quantity, "create shipment")
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"shipment": s.ShipmentNumber, "product_id": s.ProductID, "quantity": s.Quantity.String()}).Info("shipment created")
	m.emitter.EmitShipmentCreated(s.ID, s.ShipmentNumber, s.ProductID, s.FinishedGoodID)
	return m.db.GetShipment(s.ID)
}

// Update edits a Pending or InTransit shipment and reconciles stock. On the
// same batch only the signed quantity difference moves; a batch change
// restores the old batch in full and draws the new one.
func (m *Manager) Update(ctx context.Context, id int64, in UpdateInput) (*store.Shipment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	return m.withShipment(ctx, id, func(s *store.Shipment) (*store.Shipment, error) {
		return m.update(ctx, s, in)
	})
}

func (m *Manager) update(ctx context.Context, s *store.Shipment, in UpdateInput) (*store.Shipment, error) {
	if IsTerminal(s.Status) {
		return nil, &fault.TransitionError{Entity: "shipment", ID: s.ID, From: s.Status, Action: "update"}
	}
	oldBatch := s.FinishedGoodID
	newBatch := in.FinishedGoodID
	if newBatch == nil {
		newBatch = oldBatch
	}

	var err error
	switch {
	case oldBatch != nil && newBatch != nil && *oldBatch == *newBatch:
		delta := in.Quantity.Sub(s.Quantity)
		if delta.IsPositive() {
			err = m.fifo.DepleteBatch(ctx, *oldBatch, delta)
		} else if delta.IsNegative() {
			err = m.fifo.Restore(ctx, *oldBatch, delta.Neg())
		}
		if err != nil {
			return nil, err
		}
	case newBatch != nil:
		if err := m.checkBatch(*newBatch, s.ProductID); err != nil {
			return nil, err
		}
		if oldBatch != nil {
			if err := m.fifo.Restore(ctx, *oldBatch, s.Quantity); err != nil {
				return nil, err
			}
		}
		if err := m.fifo.DepleteBatch(ctx, *newBatch, in.Quantity); err != nil {
			if oldBatch != nil {
				m.redeplete(ctx, *oldBatch, s.Quantity)
			}
			return nil, err
		}
	default:
		// nothing was drawn at creation; try to allocate now
		primary, err := m.fifo.AutoDeplete(ctx, s.ProductID, in.Quantity)
		if err != nil {
			return nil, err
		}
		newBatch = primary
	}

	s.FinishedGoodID = newBatch
	s.Quantity = in.Quantity
	if in.ShipmentDate != nil {
		s.ShipmentDate = *in.ShipmentDate
	}
	s.ExpectedDeliveryDate = in.ExpectedDeliveryDate
	s.Notes = in.Notes
	in.Destination.apply(s)
	if err := m.db.UpdateShipment(s, s.Status); err != nil {
		logging.LogError(m.log, "shipping", "Update", "stock reconciled but shipment not saved", s.ShipmentNumber, err)
		return nil, fmt.Errorf("update shipment %s: %w", s.ShipmentNumber, err)
	}
	return m.db.GetShipment(s.ID)
}

// UpdateStatus moves a shipment along Pending, InTransit, Delivered.
// Setting the current status again is a no-op, so repeated delivery
// confirmations keep the first delivery date. Cancelled goes through Cancel.
func (m *Manager) UpdateStatus(ctx context.Context, id int64, status string) (*store.Shipment, error) {
	if !IsKnown(status) {
		return nil, &fault.ValidationError{Fields: map[string]string{"status": "oneof"}}
	}
	if status == StatusCancelled {
		return m.Cancel(ctx, id)
	}
	return m.withShipment(ctx, id, func(s *store.Shipment) (*store.Shipment, error) {
		if s.Status == status {
			return s, nil
		}
		if !IsValidTransition(s.Status, status) {
			return nil, &fault.TransitionError{Entity: "shipment", ID: s.ID, From: s.Status, Action: "move to " + status}
		}
		return m.setStatus(s, status)
	})
}

// setStatus writes a status change. The caller holds the shipment lock.
func (m *Manager) setStatus(s *store.Shipment, status string) (*store.Shipment, error) {
	old := s.Status
	s.Status = status
	if status == StatusDelivered && s.ActualDeliveryDate == nil {
		now := m.now()
		s.ActualDeliveryDate = &now
	}
	if err := m.db.UpdateShipment(s, old); err != nil {
		return nil, fmt.Errorf("set shipment %s to %s: %w", s.ShipmentNumber, status, err)
	}
	m.emitter.EmitShipmentStatusChanged(s.ID, s.ShipmentNumber, old, status)
	return m.db.GetShipment(s.ID)
}

// Cancel restores the linked batch in full and marks the shipment
// Cancelled. Delivered and already cancelled shipments are rejected.
func (m *Manager) Cancel(ctx context.Context, id int64) (*store.Shipment, error) {
	return m.withShipment(ctx, id, func(s *store.Shipment) (*store.Shipment, error) {
		return m.cancel(ctx, s)
	})
}

func (m *Manager) cancel(ctx context.Context, s *store.Shipment) (*store.Shipment, error) {
	if IsTerminal(s.Status) {
		return nil, &fault.TransitionError{Entity: "shipment", ID: s.ID, From: s.Status, Action: "cancel"}
	}
	if s.FinishedGoodID != nil {
		if err := m.fifo.Restore(ctx, *s.FinishedGoodID, s.Quantity); err != nil {
			return nil, err
		}
	}
	old := s.Status
	s.Status = StatusCancelled
	if err := m.db.UpdateShipment(s, old); err != nil {
		if s.FinishedGoodID != nil {
			m.redeplete(ctx, *s.FinishedGoodID, s.Quantity)
		}
		if errors.Is(err, store.ErrStatusChanged) {
			return nil, &fault.TransitionError{Entity: "shipment", ID: s.ID, From: old, Action: "cancel"}
		}
		logging.LogError(m.log, "shipping", "Cancel", "restore undone, status not saved", s.ShipmentNumber, err)
		return nil, fmt.Errorf("cancel shipment %s: %w", s.ShipmentNumber, err)
	}
	m.log.WithFields(logrus.Fields{"shipment": s.ShipmentNumber, "from": old}).Info("shipment cancelled")
	m.emitter.EmitShipmentCancelled(s.ID, s.ShipmentNumber)
	return m.db.GetShipment(s.ID)
}

// AutoDispatch moves Pending shipments whose shipment day has arrived to
// InTransit and returns how many moved.
func (m *Manager) AutoDispatch(ctx context.Context, now time.Time) (int, error) {
	pending, err := m.db.ListShipmentsByStatus(StatusPending)
	if err != nil {
		return 0, fmt.Errorf("list pending shipments: %w", err)
	}
	cutoff := endOfDay(now)
	n := 0
	for _, s := range pending {
		if !s.ShipmentDate.Before(cutoff) {
			continue
		}
		moved, err := m.withShipment(ctx, s.ID, func(cur *store.Shipment) (*store.Shipment, error) {
			if cur.Status != StatusPending {
				return nil, nil
			}
			return m.setStatus(cur, StatusInTransit)
		})
		if err != nil {
			return n, err
		}
		if moved != nil {
			n++
		}
	}
	return n, nil
}

// AutoDeliver moves InTransit shipments whose expected delivery day has
// arrived to Delivered and returns how many moved.
func (m *Manager) AutoDeliver(ctx context.Context, now time.Time) (int, error) {
	moving, err := m.db.ListShipmentsByStatus(StatusInTransit)
	if err != nil {
		return 0, fmt.Errorf("list in-transit shipments: %w", err)
	}
	cutoff := endOfDay(now)
	n := 0
	for _, s := range moving {
		if s.ExpectedDeliveryDate == nil || !s.ExpectedDeliveryDate.Before(cutoff) {
			continue
		}
		moved, err := m.withShipment(ctx, s.ID, func(cur *store.Shipment) (*store.Shipment, error) {
			if cur.Status != StatusInTransit {
				return nil, nil
			}
			cur.ActualDeliveryDate = &now
			return m.setStatus(cur, StatusDelivered)
		})
		if err != nil {
			return n, err
		}
		if moved != nil {
			n++
		}
	}
	return n, nil
}

// withShipment runs fn on a fresh read of the shipment while holding its
// lock.
func (m *Manager) withShipment(ctx context.Context, id int64, fn func(*store.Shipment) (*store.Shipment, error)) (*store.Shipment, error) {
	unlock, err := m.locks.Acquire(ctx, locks.ShipmentKey(id))
	if err != nil {
		return nil, fmt.Errorf("lock shipment %d: %w", id, err)
	}
	defer unlock()
	s, err := m.db.GetShipment(id)
	if err != nil {
		return nil, err
	}
	return fn(s)
}

// endOfDay is the first instant of the day after t, in t's location.
func endOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d+1, 0, 0, 0, 0, t.Location())
}

func (m *Manager) checkBatch(batchID, productID int64) error {
	fg, err := m.db.GetFinishedGood(batchID)
	if err != nil {
		return err
	}
	if fg.ProductID != productID {
		return &fault.ValidationError{Fields: map[string]string{"finished_good_id": "different product"}}
	}
	return nil
}

// compensate puts back stock drawn for a shipment that was never saved.
func (m *Manager) compensate(ctx context.Context, batchID *int64, qty decimal.Decimal, step string) {
	if batchID == nil {
		return
	}
	if err := m.fifo.Restore(ctx, *batchID, qty); err != nil {
		logging.LogError(m.log, "shipping", "compensate", step, *batchID, err)
	}
}

func (m *Manager) redeplete(ctx context.Context, batchID int64, qty decimal.Decimal) {
	if err := m.fifo.DepleteBatch(ctx, batchID, qty); err != nil {
		logging.LogError(m.log, "shipping", "redeplete", "restore old batch assignment", batchID, err)
	}
}

func (d Destination) apply(s *store.Shipment) {
	s.CustomerName = d.CustomerName
	s.CustomerContact = d.CustomerContact
	s.DestinationAddress = d.DestinationAddress
	s.DestinationCity = d.DestinationCity
	s.DestinationZone = d.DestinationZone
}
